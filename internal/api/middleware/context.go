package middleware

import (
	"context"
	"net/http"

	"github.com/alexgladd/llmsvc/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

func SetIdentity(ctx context.Context, ident *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

func GetIdentity(r *http.Request) (*auth.Identity, bool) {
	ident, ok := r.Context().Value(identityKey).(*auth.Identity)
	return ident, ok
}
