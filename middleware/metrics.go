package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/observability"
)

// Metrics records request counts and latencies. The path label uses
// the chi route pattern so caller-supplied path segments cannot blow
// up label cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		observability.HTTPRequestsTotal.
			WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
		observability.HTTPRequestDuration.
			WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
