package middleware

import (
	"net/http"
	"strings"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/auth"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/utils"
)

// RequireAdmin guards a route group behind a valid admin-tier session.
// Callers identify themselves with the X-Caller-ID header and present
// their session token as a bearer token.
func RequireAdmin(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := sessions.Verify(r.Header.Get("X-Caller-ID"), bearerToken(r))
			if err != nil {
				_ = utils.WriteUnauthorized(w, "valid session required")
				return
			}
			if claims.Tier != models.TierAdmin {
				_ = utils.WriteForbidden(w, "admin tier required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}
