package auth

import (
	"errors"
	"strings"
	"testing"
)

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewPasswordService_Cost(t *testing.T) {
	tests := []struct {
		name     string
		cost     int
		wantCost int
		wantErr  bool
	}{
		{"zero picks default", 0, DefaultBcryptCost, false},
		{"minimum", 4, 4, false},
		{"below minimum", 3, 0, true},
		{"above maximum", 32, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := NewPasswordService(tt.cost)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPasswordService(%d) error = %v, wantErr %v", tt.cost, err, tt.wantErr)
			}
			if !tt.wantErr && ps.cost != tt.wantCost {
				t.Errorf("cost = %d, want %d", ps.cost, tt.wantCost)
			}
		})
	}
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := NewPasswordServiceForTest()

	hash, err := ps.Hash("flavia")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// bcrypt hashes always start with $2a$ or $2b$
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := NewPasswordServiceForTest()

	// bcrypt generates a random salt each time
	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_LengthLimit(t *testing.T) {
	ps := NewPasswordServiceForTest()

	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("Hash() should accept a 72-byte password, got error: %v", err)
	}

	_, err := ps.Hash(strings.Repeat("a", 73))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("Hash() error = %v, want ErrPasswordTooLong", err)
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify(t *testing.T) {
	ps := NewPasswordServiceForTest()
	hash, err := ps.Hash("flavia")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "flavia"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}

	if err := ps.Verify(hash, "not-flavia"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Verify() with wrong password error = %v, want ErrInvalidPassword", err)
	}
}

func TestVerify_CorruptHash(t *testing.T) {
	ps := NewPasswordServiceForTest()

	err := ps.Verify("not-a-bcrypt-hash", "flavia")

	if err == nil {
		t.Fatal("Verify() should fail for a corrupt hash")
	}
	if errors.Is(err, ErrInvalidPassword) {
		t.Error("a corrupt hash must not be reported as a wrong password")
	}
}
