package middleware

import (
	"net/http"
	"strings"

	"github.com/ayush/todolist/backend/internal/auth"
	"github.com/ayush/todolist/backend/internal/httputil"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, bool)
}

// RequireAuth rejects requests without an Authorization header (401) or with
// a token that fails verification (403), and injects the identity into the
// request context otherwise.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				httputil.Error(w, http.StatusForbidden, "invalid token")
				return
			}
			id, ok := tokens.Verify(strings.TrimSpace(token))
			if !ok {
				httputil.Error(w, http.StatusForbidden, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireOwner only lets the request through when the URL parameter param
// names the authenticated user. Must run after RequireAuth.
func RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			userID, ok := httputil.IDParam(r, param)
			if !ok {
				httputil.Error(w, http.StatusBadRequest, "invalid user id")
				return
			}
			if userID != id.UserID {
				httputil.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
