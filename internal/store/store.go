package store

import (
	"context"
	"errors"
	"time"

	"github.com/alexgladd/llmsvc/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateEmail = errors.New("email already registered")

// Store is the data access interface. All database operations go through here.
//
// Session and key reads exclude expired rows at the query level; callers
// still re-check expiry themselves because storage-side and application-side
// clocks can disagree.
type Store interface {
	Ping(ctx context.Context) error

	// Admin users. Reads that return a password hash are for credential
	// verification only; the hash must never reach a client.
	CreateAdmin(ctx context.Context, admin *models.AdminUser, passwordHash string) error
	FindAdminByEmail(ctx context.Context, email string) (*models.AdminUser, string, error)
	GetAdminByID(ctx context.Context, id string) (*models.AdminUser, string, error)
	ListAdmins(ctx context.Context) ([]*models.AdminUser, error)
	UpdateAdminPassword(ctx context.Context, id, newHash string, updatedAt time.Time) error
	// DeleteAdmin removes the profile, credential, and every session for the
	// admin as a single atomic unit.
	DeleteAdmin(ctx context.Context, id string) error

	// Admin sessions, keyed by token.
	CreateSession(ctx context.Context, session *models.AdminSession) error
	FindSession(ctx context.Context, token string) (*models.AdminSession, error)
	// DeleteSession is idempotent; deleting a missing session is not an error.
	DeleteSession(ctx context.Context, adminID, token string) error

	// API users and keys. CreateApiUser persists the user and its first key
	// atomically; DeleteApiUser cascades to all of the user's keys.
	CreateApiUser(ctx context.Context, user *models.ApiUser, initialKey *models.ApiKey) error
	FindApiUserByEmail(ctx context.Context, email string) (*models.ApiUser, error)
	GetApiUserByID(ctx context.Context, id string) (*models.ApiUser, error)
	ListApiUsersWithKeys(ctx context.Context) ([]*models.ApiUserWithKeys, error)
	DeleteApiUser(ctx context.Context, id string) error
	CreateApiKey(ctx context.Context, key *models.ApiKey) error
	DeleteApiKey(ctx context.Context, userID, keyID string) (bool, error)
	FindApiKeyByValue(ctx context.Context, rawKey string) (*models.ApiKey, error)
}
