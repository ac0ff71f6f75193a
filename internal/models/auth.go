package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims of an access token issued by the auth platform.
// Subject holds the owning account id.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Owner identifies the account acting on employee records.
type Owner struct {
	ID    string
	Email string
}

// Owner returns the account identity carried by the token.
func (c *TokenClaims) Owner() Owner {
	return Owner{ID: c.Subject, Email: c.Email}
}
