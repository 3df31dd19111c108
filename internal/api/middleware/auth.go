package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexgladd/llmsvc/internal/api/response"
	"github.com/alexgladd/llmsvc/internal/auth"
)

// Auth resolves caller credentials into an identity on the request context.
type Auth struct {
	authorizer *auth.Authorizer
	cookieName string
}

// NewAuth creates a new Auth middleware.
func NewAuth(a *auth.Authorizer, cookieName string) *Auth {
	return &Auth{authorizer: a, cookieName: cookieName}
}

// RequireSession admits only callers with a valid console session cookie.
func (a *Auth) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := a.authorizer.AuthorizeSession(r.Context(), a.sessionToken(r))
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), ident)))
	})
}

// RequireAuth admits callers with either a valid session cookie or a valid
// bearer API key. Sessions win when both are present.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := a.authorizer.AuthorizeSessionOrBearer(r.Context(),
			a.sessionToken(r), r.Header.Get("Authorization"))
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), ident)))
	})
}

func (a *Auth) sessionToken(r *http.Request) string {
	c, err := r.Cookie(a.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMalformedAuthHeader):
		response.Error(w, http.StatusUnauthorized, response.CategoryUnauthorized,
			"Malformed authorization header")
	case errors.Is(err, auth.ErrNotAuthorized):
		response.Error(w, http.StatusUnauthorized, response.CategoryUnauthorized,
			"Not authorized")
	default:
		slog.Error("authorization failed", "error", err)
		response.Error(w, http.StatusInternalServerError, response.CategoryInternal,
			"An unexpected error occurred")
	}
}
