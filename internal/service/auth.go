// Account and session business logic.
//
// AuthService sits between the HTTP handlers and the credential store:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT)   ↘ Ledger (logout)
//
// KEY RESPONSIBILITIES:
//   - Registration with uniqueness left to the database
//   - Login by username OR email, issuing an access token
//   - Direct password reset (no mailed link)
//   - Logout by recording the token in the revocation ledger

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/flacode/shopping-list-api/internal/apperror"
	"github.com/flacode/shopping-list-api/internal/auth"
	"github.com/flacode/shopping-list-api/internal/model"
	"github.com/flacode/shopping-list-api/internal/repository"
)

// Client-facing messages. Clients match on some of these, so they are kept
// exactly as they have always been.
const (
	MsgRegisterMissing  = "Fields required for registration not supplied"
	MsgInvalidEmail     = "Invalid email address"
	MsgPasswordTooLong  = "Password must be 72 bytes or fewer"
	MsgAccountExists    = "User account already exists."
	MsgLoginMissing     = "Fields required for login not supplied"
	MsgNoSuchAccount    = "User account does not exist"
	MsgBadCredentials   = "Invalid user credentials"
	MsgResetMissing     = "Fields required for reset password not supplied"
	MsgNoUserInfo       = "No user information found"
	MsgUserNotFound     = "User account not found"
	MsgAlreadyLoggedOut = "You are logged out. Please log in again."
)

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Revoker records a token as logged out. *auth.Ledger implements it.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// AuthService handles the account business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     TokenIssuer                → sign JWTs
//   - revoker    Revoker                    → logout
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    TokenIssuer
	revoker   Revoker
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens TokenIssuer,
	revoker Revoker,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		revoker:   revoker,
		passwords: passwords,
		logger:    logger,
	}
}

// Credentials identifies an account by Username or, if that is empty, Email.
type Credentials struct {
	Username string
	Email    string
	Password string
}

func (c Credentials) login() string {
	if u := strings.TrimSpace(c.Username); u != "" {
		return u
	}
	return strings.TrimSpace(c.Email)
}

// Register creates an account. All three fields are required.
//
// A duplicate username or email comes back as apperror.ErrConflict; the
// database's UNIQUE constraints decide, so two concurrent registrations for
// the same name can't both succeed.
func (s *AuthService) Register(ctx context.Context, in Credentials) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, apperror.ValidationFailed("", MsgRegisterMissing)
	}
	if !validEmail(email) {
		return nil, apperror.ValidationFailed("email", MsgInvalidEmail)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", MsgPasswordTooLong)
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict(MsgAccountExists)
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login checks the password and issues an access token.
func (s *AuthService) Login(ctx context.Context, in Credentials) (string, error) {
	login := in.login()
	if login == "" || in.Password == "" {
		return "", apperror.Unauthenticated(MsgLoginMissing)
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthenticated(MsgNoSuchAccount)
		}
		return "", fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login rejected", slog.Int64("userID", user.ID))
			return "", apperror.Unauthenticated(MsgBadCredentials)
		}
		return "", fmt.Errorf("service/auth: verifying password for user %d: %w", user.ID, err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return token, nil
}

// ResetPassword replaces the password of the account named by in.
// Tokens issued before the reset stay valid until they expire or are
// logged out.
func (s *AuthService) ResetPassword(ctx context.Context, in Credentials) error {
	login := in.login()
	if login == "" || in.Password == "" {
		return apperror.Unauthenticated(MsgResetMissing)
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound(MsgNoUserInfo)
		}
		return fmt.Errorf("service/auth: looking up user: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return apperror.ValidationFailed("password", MsgPasswordTooLong)
		}
		return fmt.Errorf("service/auth: hashing password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// deleted between lookup and update
			return apperror.NotFound(MsgNoUserInfo)
		}
		return fmt.Errorf("service/auth: updating password for user %d: %w", user.ID, err)
	}

	s.logger.Info("password reset", slog.Int64("userID", user.ID))
	return nil
}

// Logout revokes token. The token has already passed the access gate, so a
// conflict here means a concurrent logout with the same token won the race.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.revoker.Revoke(ctx, token); err != nil {
		if errors.Is(err, auth.ErrAlreadyRevoked) {
			return apperror.Unauthenticated(MsgAlreadyLoggedOut)
		}
		return fmt.Errorf("service/auth: logging out: %w", err)
	}
	s.logger.Info("token revoked")
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/auth: listing users: %w", err)
	}
	return users, nil
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(MsgUserNotFound)
		}
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", id, err)
	}
	return user, nil
}

// DeleteUser removes the account together with its lists and items.
func (s *AuthService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound(MsgUserNotFound)
		}
		return fmt.Errorf("service/auth: deleting user %d: %w", id, err)
	}
	s.logger.Info("user deleted", slog.Int64("userID", id))
	return nil
}

// validEmail accepts a bare address ("a@b.c"), not "Name <a@b.c>".
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}
