package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware attaches the principal of a valid bearer token to the request
// context. Requests without a valid token continue anonymously; handlers decide
// whether a principal is required.
func Middleware(verifier *TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.Verify(tokenStr)
			if err != nil {
				logger.Debug("ignoring invalid session token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
