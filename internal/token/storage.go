// Package token provides credentials for authenticated fetches over HTTP.
//
// Tokens are looked up per provider. The provider is derived from the host
// of the remote URL (github.com → GITHUB, gitlab.com → GITLAB, anything else
// → the host name upper-cased with non-alphanumerics replaced by '_').
//
// Environment variables are the primary source:
//
//	export GIT_TOKEN_GITHUB="ghp_..."
//	export GIT_TOKEN_GIT_EXAMPLE_COM='{"Value":"...","Username":"ci"}'
package token

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenInvalid  = errors.New("token is invalid")
	ErrTokenExpired  = errors.New("token has expired")
)

// Token is a secret used as the password of HTTP basic authentication.
type Token struct {
	Value string `json:"Value"`

	// Username overrides the provider's default user name.
	Username string `json:"Username,omitempty"`

	// Zero value means the token does not expire
	ExpiresAt time.Time `json:"ExpiresAt,omitempty"`
}

// Storage looks up tokens by provider key.
type Storage interface {
	// Store saves a token, overwriting any previous one for the key
	Store(ctx context.Context, key string, token Token) error

	// Retrieve returns ErrTokenNotFound if no token exists for the key
	Retrieve(ctx context.Context, key string) (Token, error)

	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// IsExpired checks if a token has expired
func IsExpired(token Token) bool {
	if token.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(token.ExpiresAt)
}

func validate(token Token) error {
	if token.Value == "" {
		return ErrTokenInvalid
	}
	if IsExpired(token) {
		return ErrTokenExpired
	}
	return nil
}
