package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flacode/shopping-list-api/internal/apperror"
	"github.com/flacode/shopping-list-api/internal/repository"
)

// ErrAlreadyRevoked is returned by Revoke when the token is already in the
// ledger, typically because two logouts with the same token raced.
var ErrAlreadyRevoked = errors.New("auth: token already revoked")

// Ledger is the revocation list (blacklist). Entries are never removed;
// expired tokens are rejected by Verify regardless, so stale rows are harmless.
type Ledger struct {
	store repository.RevokedTokenRepository
	now   func() time.Time
}

func NewLedger(store repository.RevokedTokenRepository) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Revoke records token as logged out.
func (l *Ledger) Revoke(ctx context.Context, token string) error {
	err := l.store.Insert(ctx, token, l.now())
	if errors.Is(err, apperror.ErrConflict) {
		return ErrAlreadyRevoked
	}
	if err != nil {
		return fmt.Errorf("auth: revoking token: %w", err)
	}
	return nil
}

func (l *Ledger) Contains(ctx context.Context, token string) (bool, error) {
	ok, err := l.store.Exists(ctx, token)
	if err != nil {
		return false, fmt.Errorf("auth: reading revocation ledger: %w", err)
	}
	return ok, nil
}
