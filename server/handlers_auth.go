package server

import (
	"net/http"

	"github.com/connectspace/connectspace-api/auth"
	"github.com/connectspace/connectspace-api/users"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	User *users.User `json:"user"`
}

// RegisterHandler creates an account and returns 201 with both tokens and the user
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		session, err := s.auth.Register(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

// LoginHandler checks credentials and returns a fresh session
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		session, err := s.auth.Login(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// RefreshHandler exchanges a refresh token for a new token pair
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.RefreshToken == "" {
			writeJSONError(w, http.StatusUnauthorized, "Refresh token required")
			return
		}

		session, err := s.auth.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

// MeHandler returns the profile of the authenticated user
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := PayloadFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, invalidTokenMessage)
			return
		}

		user, err := s.auth.CurrentUser(r.Context(), payload.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{User: user})
	}
}
