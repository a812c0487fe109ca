package token

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// EnvPrefix is the prefix used for all token environment variables
const EnvPrefix = "GIT_TOKEN_"

// EnvStorage reads tokens from GIT_TOKEN_<KEY> environment variables. A
// value is either the raw token or a JSON encoded Token.
type EnvStorage struct {
	// lookup defaults to os.LookupEnv
	lookup func(string) (string, bool)
}

// NewEnvStorage creates a new environment variable-based token storage
func NewEnvStorage() *EnvStorage {
	return &EnvStorage{lookup: os.LookupEnv}
}

// Store sets the environment variable of key to the JSON encoded token.
func (e *EnvStorage) Store(_ context.Context, key string, token Token) error {
	if err := validate(token); err != nil {
		return err
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.Setenv(FormatEnvKey(key), string(data)); err != nil {
		return fmt.Errorf("failed to set environment variable: %w", err)
	}
	return nil
}

// Retrieve gets a token by its key from environment variables
func (e *EnvStorage) Retrieve(_ context.Context, key string) (Token, error) {
	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	data, ok := lookup(FormatEnvKey(key))
	data = strings.TrimSpace(data)
	if !ok || data == "" {
		return Token{}, ErrTokenNotFound
	}

	token := Token{Value: data}
	if strings.HasPrefix(data, "{") {
		token = Token{}
		if err := json.Unmarshal([]byte(data), &token); err != nil {
			return Token{}, fmt.Errorf("failed to unmarshal token %s: %w", FormatEnvKey(key), err)
		}
	}
	if err := validate(token); err != nil {
		return Token{}, err
	}
	return token, nil
}

// Delete removes a token by unsetting its environment variable
func (e *EnvStorage) Delete(_ context.Context, key string) error {
	if err := os.Unsetenv(FormatEnvKey(key)); err != nil {
		return fmt.Errorf("failed to unset environment variable: %w", err)
	}
	return nil
}

// List returns the keys of all GIT_TOKEN_ variables.
func (e *EnvStorage) List(_ context.Context) ([]string, error) {
	var keys []string
	for _, env := range os.Environ() {
		name, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(name, EnvPrefix) && len(name) > len(EnvPrefix) {
			keys = append(keys, strings.TrimPrefix(name, EnvPrefix))
		}
	}
	return keys, nil
}

// FormatEnvKey converts a token key into an environment variable name
func FormatEnvKey(key string) string {
	return EnvPrefix + sanitizeKey(key)
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, strings.ToUpper(key))
}
