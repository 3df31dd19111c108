package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/alexgladd/llmsvc/internal/store"
	"github.com/alexgladd/llmsvc/pkg/models"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("llmsvc_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newAdmin(email string) *models.AdminUser {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.AdminUser{
		ID:        uuid.NewString(),
		Name:      "Test Admin",
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newApiUser(email string) *models.ApiUser {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.ApiUser{
		ID:        uuid.NewString(),
		Name:      "Test User",
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newApiKey(userID, rawKey string, expiresAt time.Time) *models.ApiKey {
	return &models.ApiKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Key:       rawKey,
		ExpiresAt: expiresAt,
	}
}

// --- Admin Tests ---

func TestAdmin_CreateAndFind(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	admin := newAdmin("ada@example.com")
	require.NoError(t, s.CreateAdmin(ctx, admin, "argon2-hash"))

	got, hash, err := s.FindAdminByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.Equal(t, "argon2-hash", hash)

	got, hash, err = s.GetAdminByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "argon2-hash", hash)
}

func TestAdmin_DuplicateEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	require.NoError(t, s.CreateAdmin(ctx, newAdmin("dup@example.com"), "h1"))

	err := s.CreateAdmin(ctx, newAdmin("dup@example.com"), "h2")
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestAdmin_FindNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, _, err := s.FindAdminByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdmin_List(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateAdmin(ctx, newAdmin(uuid.NewString()+"@example.com"), "h"))
	}

	admins, err := s.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 3)
}

func TestAdmin_UpdatePassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	admin := newAdmin("rotate@example.com")
	require.NoError(t, s.CreateAdmin(ctx, admin, "old-hash"))

	updatedAt := time.Now().UTC().Truncate(time.Microsecond).Add(time.Minute)
	require.NoError(t, s.UpdateAdminPassword(ctx, admin.ID, "new-hash", updatedAt))

	got, hash, err := s.GetAdminByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", hash)
	assert.Equal(t, updatedAt, got.UpdatedAt.UTC())
}

func TestAdmin_UpdatePasswordNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.UpdateAdminPassword(context.Background(), uuid.NewString(), "h", time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdmin_DeleteCascadesSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	admin := newAdmin("leaving@example.com")
	require.NoError(t, s.CreateAdmin(ctx, admin, "h"))
	require.NoError(t, s.CreateSession(ctx, &models.AdminSession{
		AdminID:   admin.ID,
		Token:     "tok-cascade",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))

	require.NoError(t, s.DeleteAdmin(ctx, admin.ID))

	_, _, err := s.GetAdminByID(ctx, admin.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindSession(ctx, "tok-cascade")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdmin_DeleteNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.DeleteAdmin(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- Session Tests ---

func TestSession_CreateAndFind(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	admin := newAdmin("sess@example.com")
	require.NoError(t, s.CreateAdmin(ctx, admin, "h"))

	expiresAt := time.Now().UTC().Truncate(time.Microsecond).Add(time.Hour)
	require.NoError(t, s.CreateSession(ctx, &models.AdminSession{
		AdminID:   admin.ID,
		Token:     "tok-1",
		ExpiresAt: expiresAt,
	}))

	sess, err := s.FindSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, sess.AdminID)
	assert.Equal(t, expiresAt, sess.ExpiresAt.UTC())
}

func TestSession_ExpiredExcluded(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	admin := newAdmin("expired@example.com")
	require.NoError(t, s.CreateAdmin(ctx, admin, "h"))
	require.NoError(t, s.CreateSession(ctx, &models.AdminSession{
		AdminID:   admin.ID,
		Token:     "tok-expired",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}))

	_, err := s.FindSession(ctx, "tok-expired")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSession_DeleteIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	admin := newAdmin("logout@example.com")
	require.NoError(t, s.CreateAdmin(ctx, admin, "h"))
	require.NoError(t, s.CreateSession(ctx, &models.AdminSession{
		AdminID:   admin.ID,
		Token:     "tok-del",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))

	require.NoError(t, s.DeleteSession(ctx, admin.ID, "tok-del"))
	_, err := s.FindSession(ctx, "tok-del")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again is not an error
	assert.NoError(t, s.DeleteSession(ctx, admin.ID, "tok-del"))
}

// --- API User Tests ---

func TestApiUser_CreateAtomic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := newApiUser("grace@example.com")
	key := newApiKey(user.ID, "deadbeefcafe0123", time.Now().UTC().Add(24*time.Hour))
	require.NoError(t, s.CreateApiUser(ctx, user, key))

	got, err := s.GetApiUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", got.Email)

	byEmail, err := s.FindApiUserByEmail(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	found, err := s.FindApiKeyByValue(ctx, "deadbeefcafe0123")
	require.NoError(t, err)
	assert.Equal(t, key.ID, found.ID)
	assert.Equal(t, user.ID, found.UserID)
	assert.Equal(t, "deadbeef", found.Snippet)
}

func TestApiUser_CreateRollsBackOnKeyConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	existing := newApiUser("first@example.com")
	require.NoError(t, s.CreateApiUser(ctx, existing,
		newApiKey(existing.ID, "colliding-key", time.Now().UTC().Add(time.Hour))))

	// The key value collides, so the second insert of the tx fails after the
	// user row was written. Neither row may survive.
	user := newApiUser("second@example.com")
	err := s.CreateApiUser(ctx, user,
		newApiKey(user.ID, "colliding-key", time.Now().UTC().Add(time.Hour)))
	require.Error(t, err)

	_, err = s.GetApiUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindApiUserByEmail(ctx, "second@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApiUser_DuplicateEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := newApiUser("dup-user@example.com")
	require.NoError(t, s.CreateApiUser(ctx, user,
		newApiKey(user.ID, "key-one", time.Now().UTC().Add(time.Hour))))

	other := newApiUser("dup-user@example.com")
	err := s.CreateApiUser(ctx, other,
		newApiKey(other.ID, "key-two", time.Now().UTC().Add(time.Hour)))
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	// The duplicate's key must not have been inserted either
	_, err = s.FindApiKeyByValue(ctx, "key-two")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApiUser_ListWithKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := newApiUser("keys@example.com")
	require.NoError(t, s.CreateApiUser(ctx, user,
		newApiKey(user.ID, "cafebabe00112233", time.Now().UTC().Add(time.Hour))))
	require.NoError(t, s.CreateApiKey(ctx,
		newApiKey(user.ID, "feedface44556677", time.Now().UTC().Add(time.Hour))))

	list, err := s.ListApiUsersWithKeys(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, user.ID, list[0].ID)
	require.Len(t, list[0].ApiKeys, 2)
	for _, k := range list[0].ApiKeys {
		assert.Empty(t, k.Key)
		assert.Len(t, k.Snippet, models.SnippetLen)
	}
}

func TestApiUser_ListEmptyKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := newApiUser("nokeys@example.com")
	key := newApiKey(user.ID, "temporary-key", time.Now().UTC().Add(time.Hour))
	require.NoError(t, s.CreateApiUser(ctx, user, key))

	deleted, err := s.DeleteApiKey(ctx, user.ID, key.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	list, err := s.ListApiUsersWithKeys(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].ApiKeys)
	assert.Empty(t, list[0].ApiKeys)
}

func TestApiUser_DeleteCascadesKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := newApiUser("gone@example.com")
	require.NoError(t, s.CreateApiUser(ctx, user,
		newApiKey(user.ID, "orphan-key", time.Now().UTC().Add(time.Hour))))

	require.NoError(t, s.DeleteApiUser(ctx, user.ID))

	_, err := s.GetApiUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindApiKeyByValue(ctx, "orphan-key")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApiUser_DeleteNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.DeleteApiUser(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- API Key Tests ---

func TestApiKey_ExpiredExcluded(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := newApiUser("stale@example.com")
	require.NoError(t, s.CreateApiUser(ctx, user,
		newApiKey(user.ID, "stale-key", time.Now().UTC().Add(-time.Minute))))

	_, err := s.FindApiKeyByValue(ctx, "stale-key")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApiKey_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := newApiUser("delkey@example.com")
	key := newApiKey(user.ID, "doomed-key", time.Now().UTC().Add(time.Hour))
	require.NoError(t, s.CreateApiUser(ctx, user, key))

	deleted, err := s.DeleteApiKey(ctx, user.ID, key.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Gone, and deleting again reports false
	deleted, err = s.DeleteApiKey(ctx, user.ID, key.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestApiKey_DeleteWrongUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	user := newApiUser("owner@example.com")
	key := newApiKey(user.ID, "owned-key", time.Now().UTC().Add(time.Hour))
	require.NoError(t, s.CreateApiUser(ctx, user, key))

	deleted, err := s.DeleteApiKey(ctx, uuid.NewString(), key.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	// Still resolvable
	_, err = s.FindApiKeyByValue(ctx, "owned-key")
	assert.NoError(t, err)
}

// --- Ping Test ---

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.Ping(context.Background())
	assert.NoError(t, err)
}
