package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ryzeagent/adsmcp/internal/logging"
)

// ErrUserNotFound reports a write or lookup against a user id that has no
// stored row. Fail-open reads (GetTokens, DefaultCustomerID) never return it.
var ErrUserNotFound = errors.New("user not found")

// User is one stored row: the OAuth tokens and preferences for a single
// Google identity.
type User struct {
	ID                string
	Email             string
	Name              string
	AccessToken       string
	RefreshToken      string
	DefaultCustomerID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Store persists per-user OAuth tokens in SQLite. It is constructed once at
// process start and passed to every handler; all writes go through the
// single-connection writer so each statement is atomic at row granularity.
//
// Reads follow a fail-open policy: a missing user or a read error yields an
// empty result, never an error. Writes fail closed: errors are logged and
// returned.
type Store struct {
	db     *DB
	logger *slog.Logger
}

// NewStore wraps an open database. A nil logger falls back to slog.Default.
func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Save upserts the user's row wholesale in a single statement. Saving the
// same values twice leaves one row, identical except updated_at.
func (s *Store) Save(ctx context.Context, u User) error {
	const query = `
		INSERT INTO users (google_user_id, email, name, access_token, refresh_token, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(google_user_id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at = CURRENT_TIMESTAMP`

	_, err := s.db.Writer.ExecContext(ctx, query, u.ID, u.Email, u.Name, u.AccessToken, u.RefreshToken)
	if err != nil {
		s.logger.Error("saving user failed",
			logging.Operation("userstore.save"),
			logging.UserHash(u.ID),
			logging.Err(err))
		return fmt.Errorf("save user: %w", err)
	}

	s.logger.Info("user saved",
		logging.Operation("userstore.save"),
		logging.UserHash(u.ID))
	return nil
}

// GetTokens returns the stored access and refresh tokens for a user. Missing
// users and read errors both yield empty tokens; errors are logged, not
// returned, so a transient storage fault degrades to "not authenticated"
// instead of failing the request outright.
func (s *Store) GetTokens(ctx context.Context, userID string) (accessToken, refreshToken string) {
	const query = `SELECT access_token, refresh_token FROM users WHERE google_user_id = ?`

	err := s.db.Reader.QueryRowContext(ctx, query, userID).Scan(&accessToken, &refreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ""
	}
	if err != nil {
		s.logger.Warn("reading tokens failed, treating as not found",
			logging.Operation("userstore.get_tokens"),
			logging.UserHash(userID),
			logging.Err(err))
		return "", ""
	}
	return accessToken, refreshToken
}

// UpdateTokens replaces the user's access token and, when refreshToken is
// non-empty, the refresh token. An empty refreshToken preserves whatever
// refresh token is already stored. The whole update is one statement.
func (s *Store) UpdateTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	const query = `
		UPDATE users SET
			access_token = ?,
			refresh_token = CASE WHEN ? = '' THEN refresh_token ELSE ? END,
			updated_at = CURRENT_TIMESTAMP
		WHERE google_user_id = ?`

	res, err := s.db.Writer.ExecContext(ctx, query, accessToken, refreshToken, refreshToken, userID)
	if err != nil {
		s.logger.Error("updating tokens failed",
			logging.Operation("userstore.update_tokens"),
			logging.UserHash(userID),
			logging.Err(err))
		return fmt.Errorf("update tokens: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update tokens for %q: %w", userID, ErrUserNotFound)
	}

	s.logger.Info("tokens updated",
		logging.Operation("userstore.update_tokens"),
		logging.UserHash(userID))
	return nil
}

// Delete removes the user's row and reports whether one existed.
func (s *Store) Delete(ctx context.Context, userID string) (bool, error) {
	const query = `DELETE FROM users WHERE google_user_id = ?`

	res, err := s.db.Writer.ExecContext(ctx, query, userID)
	if err != nil {
		s.logger.Error("deleting user failed",
			logging.Operation("userstore.delete"),
			logging.UserHash(userID),
			logging.Err(err))
		return false, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}

	s.logger.Info("user deleted",
		logging.Operation("userstore.delete"),
		logging.UserHash(userID),
		slog.Bool("existed", n > 0))
	return n > 0, nil
}

// Get returns the full row for a user, or ErrUserNotFound.
func (s *Store) Get(ctx context.Context, userID string) (*User, error) {
	const query = `
		SELECT google_user_id, email, name, access_token, refresh_token,
		       default_customer_id, created_at, updated_at
		FROM users WHERE google_user_id = ?`

	var u User
	err := s.db.Reader.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Email, &u.Name, &u.AccessToken, &u.RefreshToken,
		&u.DefaultCustomerID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %q: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// List returns every stored user, newest first.
func (s *Store) List(ctx context.Context) ([]User, error) {
	const query = `
		SELECT google_user_id, email, name, access_token, refresh_token,
		       default_customer_id, created_at, updated_at
		FROM users ORDER BY created_at DESC, google_user_id`

	rows, err := s.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Name, &u.AccessToken, &u.RefreshToken,
			&u.DefaultCustomerID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetDefaultCustomerID stores the user's preferred Google Ads account.
func (s *Store) SetDefaultCustomerID(ctx context.Context, userID, customerID string) error {
	const query = `
		UPDATE users SET default_customer_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE google_user_id = ?`

	res, err := s.db.Writer.ExecContext(ctx, query, customerID, userID)
	if err != nil {
		s.logger.Error("setting default account failed",
			logging.Operation("userstore.set_default_customer"),
			logging.UserHash(userID),
			logging.Err(err))
		return fmt.Errorf("set default customer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set default customer for %q: %w", userID, ErrUserNotFound)
	}
	return nil
}

// DefaultCustomerID returns the user's preferred account id, or "" when the
// user is unknown, has no preference, or the read fails (fail-open, like
// GetTokens).
func (s *Store) DefaultCustomerID(ctx context.Context, userID string) string {
	const query = `SELECT default_customer_id FROM users WHERE google_user_id = ?`

	var customerID string
	err := s.db.Reader.QueryRowContext(ctx, query, userID).Scan(&customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	if err != nil {
		s.logger.Warn("reading default account failed, treating as unset",
			logging.Operation("userstore.default_customer"),
			logging.UserHash(userID),
			logging.Err(err))
		return ""
	}
	return customerID
}

// Ping verifies the reader connection. Used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Reader.PingContext(ctx)
}
