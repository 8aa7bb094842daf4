// Package authflowrepo keeps the short lived state of a federated sign-in between the redirect and the callback.
package authflowrepo

import (
	"errors"
	"time"
)

var ErrStateNotFound = errors.New("state not found")

type AuthFlowState struct {
	CodeVerifier string // PKCE verifier sent with the code exchange
	Nonce        string // Must come back inside the ID token
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	// Take returns the state and removes it, so each state can be redeemed once.
	// Unknown and expired states return ErrStateNotFound.
	Take(state string) (*AuthFlowState, error)
}
