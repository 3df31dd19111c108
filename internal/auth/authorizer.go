package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexgladd/llmsvc/internal/store"
	"github.com/alexgladd/llmsvc/pkg/models"
)

var ErrNotAuthorized = errors.New("not authorized")
var ErrMalformedAuthHeader = errors.New("malformed authorization header")

// AdminIdentity is a caller authenticated by a console session.
type AdminIdentity struct {
	Admin        *models.AdminUser
	PasswordHash string
	SessionToken string
}

// APIIdentity is a caller authenticated by a bearer API key.
type APIIdentity struct {
	User  *models.ApiUser
	KeyID string
}

// Identity is the resolved caller. Exactly one of Admin or API is set.
type Identity struct {
	Admin *AdminIdentity
	API   *APIIdentity
}

// Authorizer resolves session tokens and API keys into caller identities.
type Authorizer struct {
	store store.Store
}

func NewAuthorizer(s store.Store) *Authorizer {
	return &Authorizer{store: s}
}

// AuthorizeSession resolves a session token into an admin identity. Any
// failure returns ErrNotAuthorized; the caller never learns whether the
// token was missing, expired, or unknown.
func (a *Authorizer) AuthorizeSession(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrNotAuthorized
	}

	sess, err := a.store.FindSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !sess.Valid(time.Now()) {
		return nil, ErrNotAuthorized
	}

	admin, hash, err := a.store.GetAdminByID(ctx, sess.AdminID)
	if errors.Is(err, store.ErrNotFound) {
		// Session points at a deleted admin; treat as unauthorized.
		slog.Error("session references missing admin", "adminId", sess.AdminID)
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load session admin: %w", err)
	}

	return &Identity{Admin: &AdminIdentity{
		Admin:        admin,
		PasswordHash: hash,
		SessionToken: sess.Token,
	}}, nil
}

// AuthorizeBearer resolves an Authorization header into an API identity.
func (a *Authorizer) AuthorizeBearer(ctx context.Context, header string) (*Identity, error) {
	if header == "" {
		return nil, ErrNotAuthorized
	}

	rawKey, err := parseBearer(header)
	if err != nil {
		return nil, err
	}

	key, err := a.store.FindApiKeyByValue(ctx, rawKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("find api key: %w", err)
	}
	if !key.Valid(time.Now()) {
		return nil, ErrNotAuthorized
	}

	user, err := a.store.GetApiUserByID(ctx, key.UserID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Error("api key references missing user", "userId", key.UserID, "keyId", key.ID)
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load key user: %w", err)
	}

	return &Identity{API: &APIIdentity{User: user, KeyID: key.ID}}, nil
}

// AuthorizeSessionOrBearer tries session auth first, then bearer auth. When
// both credentials are absent or invalid the bearer error is reported.
func (a *Authorizer) AuthorizeSessionOrBearer(ctx context.Context, token, header string) (*Identity, error) {
	if token != "" {
		ident, err := a.AuthorizeSession(ctx, token)
		if err == nil {
			return ident, nil
		}
		if !errors.Is(err, ErrNotAuthorized) {
			return nil, err
		}
	}
	return a.AuthorizeBearer(ctx, header)
}

func parseBearer(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedAuthHeader
	}
	key := strings.TrimSpace(parts[1])
	if key == "" {
		return "", ErrMalformedAuthHeader
	}
	return key, nil
}
