package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVerifier returns a fixed result. It records the token it was given.
type stubVerifier struct {
	userID int64
	err    error
	got    string
}

func (s *stubVerifier) Verify(_ context.Context, token string) (int64, error) {
	s.got = token
	return s.userID, s.err
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// echoHandler writes the user ID and token the gate put in the context.
func echoHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())
	tok, _ := TokenFromContext(r.Context())
	_ = json.NewEncoder(w).Encode(map[string]any{"user_id": id, "token": tok})
}

func serveGate(t *testing.T, v Verifier, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/shoppinglists/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	RequireAuth(v, discardLogger)(http.HandlerFunc(echoHandler)).ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	v := &stubVerifier{userID: 1}

	rec := serveGate(t, v, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please register or login.", decodeMessage(t, rec))
	assert.Empty(t, v.got, "verifier must not be called without a token")
}

func TestRequireAuth_Failures(t *testing.T) {
	tests := []struct {
		name    string
		failure *Failure
	}{
		{"invalid", failInvalid},
		{"expired", failExpired},
		{"revoked", failRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveGate(t, &stubVerifier{err: tt.failure}, "some-token")

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.failure.Message, decodeMessage(t, rec))
		})
	}
}

func TestRequireAuth_LedgerErrorIs500(t *testing.T) {
	rec := serveGate(t, &stubVerifier{err: io.ErrUnexpectedEOF}, "some-token")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An internal error occurred", decodeMessage(t, rec))
}

func TestRequireAuth_PassesRawHeaderAndSetsContext(t *testing.T) {
	v := &stubVerifier{userID: 42}

	rec := serveGate(t, v, "raw.jwt.value")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "raw.jwt.value", v.got)

	var body struct {
		UserID int64  `json:"user_id"`
		Token  string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(42), body.UserID)
	assert.Equal(t, "raw.jwt.value", body.Token)
}

// Full path through a real TokenService: issue, pass the gate, revoke,
// get turned away.
func TestRequireAuth_WithTokenService(t *testing.T) {
	ts, ledger, clock := newTestTokenService(t)
	token, err := ts.Issue(9)
	require.NoError(t, err)

	rec := serveGate(t, ts, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	clock.advance(2 * time.Hour)
	rec = serveGate(t, ts, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Expired token. Please login to get new token", decodeMessage(t, rec))

	ledger.revoke(token)
	rec = serveGate(t, ts, token)
	assert.Equal(t, "You are logged out. Please log in again.", decodeMessage(t, rec))
}

func TestUserIDFromContext_Empty(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), 5))
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)
}
