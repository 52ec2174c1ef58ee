package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT BODY FORMAT:
// Every error response, and every success response without a payload, has
// the same shape:
//
//	{"message": "Shopping list can not be found"}
//
// Clients show the message to the user as is, so the wording of each
// message is part of the API.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flacode/shopping-list-api/internal/apperror"
)

const (
	msgInternal    = "An internal error occurred"
	msgInvalidJSON = "Invalid JSON body"
)

// MessageResponse is the body of every error and of payload-less successes.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written. Once Encode
// calls w.Write(), header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeError maps a domain error to an HTTP status and sends its message.
//
// ERROR MAPPING:
//
//	ErrValidation      → 400
//	ErrUnauthenticated → 401
//	ErrForbidden       → 403
//	ErrNotFound        → 404
//	ErrConflict        → 202 (duplicate account; clients expect 202)
//	anything else      → 500 with a generic message
//
// errors.As walks the chain, so services may wrap an *AppError with
// fmt.Errorf("...: %w", err) and the mapping still works.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusAccepted
		}
		if status != http.StatusInternalServerError {
			writeMessage(w, status, appErr.Message)
			return
		}
	}

	// NEVER expose internal error details to the client: the raw error may
	// contain SQL or file paths.
	logger.Error("request failed", slog.String("error", err.Error()))
	writeMessage(w, http.StatusInternalServerError, msgInternal)
}

// decodeJSON reads the request body into dst. A malformed body is answered
// with 400 and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid JSON body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeMessage(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter. ok is false when the
// segment is not one, which callers treat like an unknown id.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
