package middleware

import (
	"net/http"
	"strings"

	"companion/internal/auth"
	"companion/internal/domain/repositories"
	"companion/internal/httputil"
)

// Auth verifies the bearer token on protected routes and injects the
// resolved user into the request context.
//
// Paths matching a public prefix pass through untouched. The fine-tune
// routes are deliberately public; the API contract does not require a
// token for them.
func Auth(tokens *auth.TokenIssuer, users repositories.UserRepository, publicPrefixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range publicPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			const scheme = "Bearer "
			if !strings.HasPrefix(header, scheme) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			email, err := tokens.Verify(strings.TrimPrefix(header, scheme))
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			user, err := users.GetByEmail(r.Context(), email)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httputil.RespondError(w, http.StatusUnauthorized, "unknown user")
				return
			}

			next.ServeHTTP(w, httputil.WithUser(r, user))
		})
	}
}
