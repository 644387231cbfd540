package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Dosada05/ladder-system/services"
)

type contextKey string

const refereeClaimsKey contextKey = "refereeClaims"

// ClaimsFromContext returns the authenticated referee's claims, if any.
func ClaimsFromContext(ctx context.Context) (*services.RefereeClaims, bool) {
	claims, ok := ctx.Value(refereeClaimsKey).(*services.RefereeClaims)
	return claims, ok
}

// Authenticate validates the Bearer token and stores the referee claims in
// the request context. Requests without a valid token are rejected.
func Authenticate(auth services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing or malformed authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), refereeClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects authenticated requests whose token lacks the admin
// flag. It must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
