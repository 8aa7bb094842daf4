package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/connectspace/connectspace-api/token"
	"github.com/rs/zerolog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyPayload stores the verified token payload
	ContextKeyPayload ContextKey = "token_payload"
)

// PayloadFromContext returns the verified token payload placed by RequireAuth
func PayloadFromContext(ctx context.Context) (token.Payload, bool) {
	payload, ok := ctx.Value(ContextKeyPayload).(token.Payload)
	return payload, ok
}

// RequireAuth is middleware that validates a Bearer access token.
// The token is re-verified on every request; nothing about it is cached.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// Extract Bearer token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
				writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			payload, err := s.tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Rejected bearer token")
				writeJSONError(w, http.StatusUnauthorized, invalidTokenMessage)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPayload, payload)
			next(w, r.WithContext(ctx))
		}
	}
}
