package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "userID", id), ANY package that knows the string "userID"
// can read or shadow your value. Using a package-private type prevents collisions.
type contextKey string

const (
	userIDKey contextKey = "userID"
	tokenKey  contextKey = "token"
)

// Verifier is what the gate needs from the TokenService.
type Verifier interface {
	Verify(ctx context.Context, token string) (int64, error)
}

const msgNoToken = "Please register or login."

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the raw Authorization header (the token itself, no "Bearer "
// prefix), verifies it, and stores the user ID and the token in the request
// context. Otherwise it answers 401 with {"message": ...} and stops the chain:
//
//	no header      → "Please register or login."
//	bad token      → "Invalid token. Please register or login"
//	expired token  → "Expired token. Please login to get new token"
//	revoked token  → "You are logged out. Please log in again."
//
// If the ledger can't be read the request fails with 500; that's our fault,
// not the client's.
func RequireAuth(tokens Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			userID, err := tokens.Verify(r.Context(), token)
			if err != nil {
				if f, ok := FailureOf(err); ok {
					writeMessage(w, http.StatusUnauthorized, f.Message)
					return
				}
				logger.Error("token verification failed", slog.String("error", err.Error()))
				writeMessage(w, http.StatusInternalServerError, "An internal error occurred")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request context.
//
// Returns (0, false) outside of RequireAuth.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// TokenFromContext returns the raw token RequireAuth accepted. Logout uses
// it to know what to revoke.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey).(string)
	return tok, ok && tok != ""
}

// WithUserID returns a context carrying userID as if RequireAuth had run.
// Handler tests use it to skip token plumbing.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
