package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/connectspace/connectspace-api/auth"
	"github.com/connectspace/connectspace-api/server/authflowrepo"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const stateLength = 32

// OIDCLoginHandler redirects the browser to the provider with a fresh state, nonce and PKCE challenge
func (s *Server) OIDCLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := generateRandomString(stateLength)
		nonce := generateRandomString(stateLength)
		verifier := oauth2.GenerateVerifier()

		err := s.authState.Upsert(state, &authflowrepo.AuthFlowState{
			CodeVerifier: verifier,
			Nonce:        nonce,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		authURL := s.oidc.OAuth2Config.AuthCodeURL(state,
			oidc.Nonce(nonce),
			oauth2.S256ChallengeOption(verifier),
		)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OIDCCallbackHandler completes the code flow, verifies the ID token and signs the user in
func (s *Server) OIDCCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")

		// Check for authorization errors
		if errorParam != "" {
			logger.Warn().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("Provider refused authorization")
			writeJSONError(w, http.StatusUnauthorized, "Authorization failed")
			return
		}

		if code == "" || state == "" {
			writeJSONError(w, http.StatusBadRequest, "Missing code or state parameter")
			return
		}

		// Each state is redeemed once
		authState, err := s.authState.Take(state)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid state parameter")
			return
		}

		// Exchange authorization code for tokens using standard oauth2 library
		oauth2Token, err := s.oidc.OAuth2Config.Exchange(r.Context(), code, oauth2.VerifierOption(authState.CodeVerifier))
		if err != nil {
			logger.Warn().Err(err).Msg("Token exchange failed")
			writeJSONError(w, http.StatusUnauthorized, "Authorization failed")
			return
		}

		// Extract ID token and verify it
		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "No ID token in response")
			return
		}

		idToken, err := s.oidc.OidcVerifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			logger.Warn().Err(err).Msg("ID token verification failed")
			writeJSONError(w, http.StatusUnauthorized, invalidTokenMessage)
			return
		}

		// Extract and validate claims in one pass
		var claims struct {
			Nonce         string `json:"nonce"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
			Name          string `json:"name"`
			GivenName     string `json:"given_name"`
			FamilyName    string `json:"family_name"`
		}
		if err := idToken.Claims(&claims); err != nil {
			writeJSONError(w, http.StatusUnauthorized, invalidTokenMessage)
			return
		}

		// Validate nonce to prevent replay attacks
		if claims.Nonce != authState.Nonce {
			writeJSONError(w, http.StatusUnauthorized, "Invalid nonce")
			return
		}

		firstName, lastName := claims.GivenName, claims.FamilyName
		if firstName == "" && lastName == "" {
			firstName, lastName, _ = strings.Cut(strings.TrimSpace(claims.Name), " ")
		}

		session, err := s.auth.FederatedLogin(r.Context(), auth.Identity{
			Issuer:        idToken.Issuer,
			Subject:       idToken.Subject,
			Email:         claims.Email,
			EmailVerified: claims.EmailVerified,
			FirstName:     firstName,
			LastName:      strings.TrimSpace(lastName),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}
