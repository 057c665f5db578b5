package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClientIPKey is the context key for the caller's network origin
	ClientIPKey contextKey = "client_ip"
)

// GetRequestIDFromContext retrieves the request ID from context. It
// falls back to the id stamped by chi's RequestID middleware, which
// stores it under its own key.
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok && requestID != "" {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClientIPFromContext retrieves the client IP from context
func GetClientIPFromContext(ctx context.Context) string {
	if val := ctx.Value(ClientIPKey); val != nil {
		if ip, ok := val.(string); ok {
			return ip
		}
	}
	return ""
}

// ClientIP extracts the originating IP from forwarding headers,
// falling back to the socket address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ResolveClientIP stores the caller's network origin in the request
// context so handlers and audit entries see a consistent value.
func ResolveClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ClientIPKey, ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
