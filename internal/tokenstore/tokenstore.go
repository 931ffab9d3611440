// Package tokenstore persists cached authorization headers in SQLite so a
// restarted client can resume with a still-valid token instead of forcing a
// fresh authorization round trip.
package tokenstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/wlsession/internal/logging"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned by Load when no token is stored for the scope.
var ErrNotFound = errors.New("token not found")

// Token is one persisted authorization header with its expiry.
type Token struct {
	Header    string
	ExpiresAt time.Time
}

// Store keeps tokens keyed by scope in a SQLite database. One store can back
// several providers as long as their scopes differ.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// New returns a Store, running migrations from schema.sql.
// db should typically be the SQLite DB at the client's storage root.
func New(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Save upserts the token for scope.
func (s *Store) Save(ctx context.Context, scope string, token Token) error {
	if scope == "" {
		return fmt.Errorf("scope is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (scope, header, expires_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope) DO UPDATE SET
		   header = excluded.header,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		scope, token.Header, token.ExpiresAt.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save token for scope %q: %w", scope, err)
	}
	if s.logger != nil {
		s.logger.Debug("persisted token",
			logging.Field{Key: "scope", Value: scope},
			logging.Field{Key: "expires_at", Value: token.ExpiresAt.UTC().Format(time.RFC3339)})
	}
	return nil
}

// Load returns the token for scope, or ErrNotFound.
func (s *Store) Load(ctx context.Context, scope string) (Token, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT header, expires_at FROM tokens WHERE scope = ?`, scope)

	var header string
	var expiresAt int64
	if err := row.Scan(&header, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Token{}, ErrNotFound
		}
		return Token{}, fmt.Errorf("load token for scope %q: %w", scope, err)
	}
	return Token{Header: header, ExpiresAt: time.Unix(expiresAt, 0)}, nil
}

// Delete removes the token for scope. Deleting a missing scope is not an
// error.
func (s *Store) Delete(ctx context.Context, scope string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE scope = ?`, scope)
	if err != nil {
		return fmt.Errorf("delete token for scope %q: %w", scope, err)
	}
	return nil
}
