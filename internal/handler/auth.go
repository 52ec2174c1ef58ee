package handler

import (
	"log/slog"
	"net/http"

	"github.com/flacode/shopping-list-api/internal/auth"
	"github.com/flacode/shopping-list-api/internal/service"
)

// AuthHandler serves the /auth routes: account lifecycle and sessions.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister      → create an account
//   - HandleLogin         → check credentials, hand out an access token
//   - HandleResetPassword → replace a password
//   - HandleLogout        → revoke the token the request came with
//   - HandleListUsers / HandleGetUser / HandleDeleteUser → account admin
//
// Validation and the exact client messages live in service.AuthService;
// this layer only moves JSON in and out.
type AuthHandler struct {
	accounts *service.AuthService
	logger   *slog.Logger
}

func NewAuthHandler(accounts *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentialsRequest) toService() service.Credentials {
	return service.Credentials{Username: c.Username, Email: c.Email, Password: c.Password}
}

// LoginResponse is returned by a successful login. The token goes back in
// the Authorization header as is, without a "Bearer " prefix.
type LoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

// HandleRegister creates an account.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"username": "...", "email": "...", "password": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	if _, err := h.accounts.Register(r.Context(), req.toService()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusCreated, "You registered successfully. Please log in.")
}

// HandleLogin issues an access token.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"username": "..." | "email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	token, err := h.accounts.Login(r.Context(), req.toService())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Message:     "User logged in successfully",
		AccessToken: token,
	})
}

// HandleResetPassword sets a new password for the named account.
//
// HTTP: POST /auth/reset-password
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.toService()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "You have successfully changed your password.")
}

// HandleLogout revokes the token that authenticated this request.
//
// HTTP: POST /auth/logout
// Auth: Required. RequireAuth has verified the token and put it in the context.
//
// Tokens are stateless, so logging out means recording the token in the
// revocation ledger; from then on the gate rejects it even though it has
// not expired.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		// only reachable if the route was mounted without RequireAuth
		writeMessage(w, http.StatusUnauthorized, "Please register or login.")
		return
	}

	if err := h.accounts.Logout(r.Context(), token); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully logged out")
}

// HandleListUsers returns every account.
//
// HTTP: GET /auth/users
func (h *AuthHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if len(users) == 0 {
		writeMessage(w, http.StatusOK, "No users registered yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Users": users})
}

// HandleGetUser returns one account.
//
// HTTP: GET /auth/user/{id}
func (h *AuthHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, service.MsgUserNotFound)
		return
	}

	user, err := h.accounts.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleDeleteUser removes an account with its lists and items.
//
// HTTP: DELETE /auth/user/{id}
func (h *AuthHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, service.MsgUserNotFound)
		return
	}

	if err := h.accounts.DeleteUser(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "User account successfully deleted")
}
