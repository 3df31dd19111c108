package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexgladd/llmsvc/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Admin users ---

func (s *PostgresStore) CreateAdmin(ctx context.Context, admin *models.AdminUser, passwordHash string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create admin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO admin_users (id, name, email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		admin.ID, admin.Name, admin.Email, admin.CreatedAt, admin.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create admin: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO admin_credentials (admin_id, password_hash) VALUES ($1, $2)`,
		admin.ID, passwordHash)
	if err != nil {
		return fmt.Errorf("create admin credential: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAdminByEmail(ctx context.Context, email string) (*models.AdminUser, string, error) {
	return s.queryAdmin(ctx,
		`SELECT u.id, u.name, u.email, u.created_at, u.updated_at, c.password_hash
		 FROM admin_users u JOIN admin_credentials c ON c.admin_id = u.id
		 WHERE u.email = $1`, email)
}

func (s *PostgresStore) GetAdminByID(ctx context.Context, id string) (*models.AdminUser, string, error) {
	return s.queryAdmin(ctx,
		`SELECT u.id, u.name, u.email, u.created_at, u.updated_at, c.password_hash
		 FROM admin_users u JOIN admin_credentials c ON c.admin_id = u.id
		 WHERE u.id = $1`, id)
}

func (s *PostgresStore) queryAdmin(ctx context.Context, query string, arg any) (*models.AdminUser, string, error) {
	var u models.AdminUser
	var hash string
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("query admin: %w", err)
	}
	return &u, hash, nil
}

func (s *PostgresStore) ListAdmins(ctx context.Context) ([]*models.AdminUser, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, created_at, updated_at
		 FROM admin_users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var admins []*models.AdminUser
	for rows.Next() {
		var u models.AdminUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		admins = append(admins, &u)
	}
	return admins, rows.Err()
}

func (s *PostgresStore) UpdateAdminPassword(ctx context.Context, id, newHash string, updatedAt time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update password: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE admin_credentials SET password_hash = $2 WHERE admin_id = $1`, id, newHash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`UPDATE admin_users SET updated_at = $2 WHERE id = $1`, id, updatedAt)
	if err != nil {
		return fmt.Errorf("bump admin updated_at: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update password: %w", err)
	}
	return nil
}

// DeleteAdmin deletes the admin profile. The credential row and any sessions
// go with it in the same statement via ON DELETE CASCADE, so the delete is
// all-or-nothing.
func (s *PostgresStore) DeleteAdmin(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Admin sessions ---

func (s *PostgresStore) CreateSession(ctx context.Context, session *models.AdminSession) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO admin_sessions (token, admin_id, expires_at) VALUES ($1, $2, $3)`,
		session.Token, session.AdminID, session.ExpiresAt)
	if err != nil {
		// A token collision means the RNG is broken; surface it, never overwrite.
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindSession looks up a session by token. Expired rows are excluded here;
// the authorization layer re-checks expiry as defense in depth.
func (s *PostgresStore) FindSession(ctx context.Context, token string) (*models.AdminSession, error) {
	var sess models.AdminSession
	err := s.pool.QueryRow(ctx,
		`SELECT token, admin_id, expires_at FROM admin_sessions
		 WHERE token = $1 AND expires_at > NOW()`, token).
		Scan(&sess.Token, &sess.AdminID, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, adminID, token string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM admin_sessions WHERE admin_id = $1 AND token = $2`, adminID, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// --- API users & keys ---

func (s *PostgresStore) CreateApiUser(ctx context.Context, user *models.ApiUser, initialKey *models.ApiKey) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create api user: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO api_users (id, name, email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, user.Email, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create api user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, key, expires_at) VALUES ($1, $2, $3, $4)`,
		initialKey.ID, user.ID, initialKey.Key, initialKey.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create initial api key: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create api user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindApiUserByEmail(ctx context.Context, email string) (*models.ApiUser, error) {
	return s.queryApiUser(ctx,
		`SELECT id, name, email, created_at, updated_at FROM api_users WHERE email = $1`, email)
}

func (s *PostgresStore) GetApiUserByID(ctx context.Context, id string) (*models.ApiUser, error) {
	return s.queryApiUser(ctx,
		`SELECT id, name, email, created_at, updated_at FROM api_users WHERE id = $1`, id)
}

func (s *PostgresStore) queryApiUser(ctx context.Context, query string, arg any) (*models.ApiUser, error) {
	var u models.ApiUser
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query api user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) ListApiUsersWithKeys(ctx context.Context) ([]*models.ApiUserWithKeys, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, created_at, updated_at FROM api_users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list api users: %w", err)
	}
	defer rows.Close()

	var users []*models.ApiUserWithKeys
	byID := make(map[string]*models.ApiUserWithKeys)
	for rows.Next() {
		var u models.ApiUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api user: %w", err)
		}
		uwk := &models.ApiUserWithKeys{ApiUser: u, ApiKeys: []models.ApiKey{}}
		users = append(users, uwk)
		byID[u.ID] = uwk
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	keyRows, err := s.pool.Query(ctx,
		`SELECT id, user_id, key, expires_at FROM api_keys ORDER BY expires_at`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer keyRows.Close()

	for keyRows.Next() {
		var k models.ApiKey
		if err := keyRows.Scan(&k.ID, &k.UserID, &k.Key, &k.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		k.Snippet = snippet(k.Key)
		k.Key = ""
		if u, ok := byID[k.UserID]; ok {
			u.ApiKeys = append(u.ApiKeys, k)
		}
	}
	return users, keyRows.Err()
}

// DeleteApiUser deletes the user profile; its keys cascade in the same
// statement.
func (s *PostgresStore) DeleteApiUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateApiKey(ctx context.Context, key *models.ApiKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, key, expires_at) VALUES ($1, $2, $3, $4)`,
		key.ID, key.UserID, key.Key, key.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteApiKey(ctx context.Context, userID, keyID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, keyID, userID)
	if err != nil {
		return false, fmt.Errorf("delete api key: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindApiKeyByValue looks up a key by its raw value, excluding expired rows.
func (s *PostgresStore) FindApiKeyByValue(ctx context.Context, rawKey string) (*models.ApiKey, error) {
	var k models.ApiKey
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, key, expires_at FROM api_keys
		 WHERE key = $1 AND expires_at > NOW()`, rawKey).
		Scan(&k.ID, &k.UserID, &k.Key, &k.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find api key: %w", err)
	}
	k.Snippet = snippet(k.Key)
	return &k, nil
}

func snippet(key string) string {
	if len(key) <= models.SnippetLen {
		return key
	}
	return key[:models.SnippetLen]
}

// isUniqueViolation checks if a pgx error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
