package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flacode/shopping-list-api/internal/apperror"
	"github.com/flacode/shopping-list-api/internal/repository"
)

var _ repository.RevokedTokenRepository = (*RevokedTokenDB)(nil)

// RevokedTokenDB is the append-only revoked_tokens table. Rows are never
// updated or deleted; token is UNIQUE.
type RevokedTokenDB struct {
	conn *sql.DB
}

// Insert records a revoked token. When two logouts race with the same token,
// the loser gets an error wrapping apperror.ErrConflict.
func (r *RevokedTokenDB) Insert(ctx context.Context, token string, revokedAt time.Time) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO revoked_tokens (token, revoked_at) VALUES (?, ?)`,
		token, revokedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: revoking token: %w", apperror.ErrConflict)
		}
		return fmt.Errorf("sqlite: revoking token: %w", err)
	}
	return nil
}

func (r *RevokedTokenDB) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token = ?)`, token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking revoked token: %w", err)
	}
	return exists, nil
}
