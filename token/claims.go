package token

import (
	"github.com/connectspace/connectspace-api/users"
	"github.com/golang-jwt/jwt/v5"
)

// Kind separates access tokens from refresh tokens so one can never stand in for the other
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Payload is what a session token asserts about its holder
type Payload struct {
	UserID string         `json:"userId"`
	Role   users.UserType `json:"role"`
}

// Claims is the JWT body of every session token
type Claims struct {
	jwt.RegisteredClaims

	UserID    string         `json:"user_id"`
	Role      users.UserType `json:"role"`
	TokenType Kind           `json:"token_type"`
}

func (c *Claims) payload() Payload {
	return Payload{UserID: c.UserID, Role: c.Role}
}
