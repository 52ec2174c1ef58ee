package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/flacode/shopping-list-api/internal/apperror"
)

// fakeRevokedStore mimics the UNIQUE constraint of the real table.
type fakeRevokedStore struct {
	mu        sync.Mutex
	rows      map[string]time.Time
	insertErr error
}

func newFakeRevokedStore() *fakeRevokedStore {
	return &fakeRevokedStore{rows: make(map[string]time.Time)}
}

func (f *fakeRevokedStore) Insert(_ context.Context, token string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.rows[token]; ok {
		return fmt.Errorf("fake: %w", apperror.ErrConflict)
	}
	f.rows[token] = at
	return nil
}

func (f *fakeRevokedStore) Exists(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[token]
	return ok, nil
}

func TestLedger_RevokeThenContains(t *testing.T) {
	store := newFakeRevokedStore()
	l := NewLedger(store)
	ctx := context.Background()

	if ok, _ := l.Contains(ctx, "tok"); ok {
		t.Fatal("Contains() = true before Revoke")
	}
	if err := l.Revoke(ctx, "tok"); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if ok, _ := l.Contains(ctx, "tok"); !ok {
		t.Fatal("Contains() = false after Revoke")
	}
	if store.rows["tok"].IsZero() {
		t.Error("revocation timestamp not recorded")
	}
}

func TestLedger_RevokeTwice(t *testing.T) {
	l := NewLedger(newFakeRevokedStore())
	ctx := context.Background()

	if err := l.Revoke(ctx, "tok"); err != nil {
		t.Fatalf("first Revoke() error = %v", err)
	}
	if err := l.Revoke(ctx, "tok"); !errors.Is(err, ErrAlreadyRevoked) {
		t.Fatalf("second Revoke() error = %v, want ErrAlreadyRevoked", err)
	}
}

func TestLedger_ConcurrentRevoke(t *testing.T) {
	l := NewLedger(newFakeRevokedStore())

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     int
		already int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Revoke(context.Background(), "same-token")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, ErrAlreadyRevoked):
				already++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if won != 1 || already != 9 {
		t.Errorf("won = %d, already = %d, want 1 and 9", won, already)
	}
}

func TestLedger_StorageErrorPropagates(t *testing.T) {
	store := newFakeRevokedStore()
	store.insertErr = errors.New("disk full")
	l := NewLedger(store)

	err := l.Revoke(context.Background(), "tok")

	if err == nil || errors.Is(err, ErrAlreadyRevoked) {
		t.Fatalf("Revoke() error = %v, want a wrapped storage error", err)
	}
}
