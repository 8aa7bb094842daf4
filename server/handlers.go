package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/connectspace/connectspace-api/internal/errors"
	"github.com/connectspace/connectspace-api/upload"
	"github.com/rs/zerolog"
)

const (
	internalServerError       = "Internal server error"
	invalidTokenMessage       = "Invalid or expired token"
	invalidCredentialsMessage = "Invalid email or password"
	duplicateAccountMessage   = "User already exists with this email"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError translates a service error into its client response.
// Unrecognised errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if resp, ok := upload.HandleUploadError(err); ok {
		writeJSON(w, resp.Status, resp)
		return
	}

	var validationErr *apperrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Message, Field: validationErr.Field})
	case apperrors.Is(err, apperrors.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case apperrors.Is(err, apperrors.ErrDuplicateAccount):
		writeJSONError(w, http.StatusBadRequest, duplicateAccountMessage)
	case apperrors.Is(err, apperrors.ErrInvalidCredentials):
		writeJSONError(w, http.StatusUnauthorized, invalidCredentialsMessage)
	case apperrors.Is(err, apperrors.ErrInvalidToken):
		writeJSONError(w, http.StatusUnauthorized, invalidTokenMessage)
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
		writeJSONError(w, http.StatusInternalServerError, internalServerError)
	}
}

// decodeJSON reads a JSON request body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return apperrors.NewValidationError("", "Request body too large")
		}
		return apperrors.NewValidationError("", "Invalid request body")
	}
	return nil
}

// HealthHandler reports that the process is up
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// APINotFoundHandler answers unknown API routes in JSON
func (s *Server) APINotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Route not found")
	}
}
