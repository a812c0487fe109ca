package token

import (
	"context"
	"sync"
)

// MemoryStorage keeps tokens in process memory. Keys are normalized the same
// way EnvStorage names its variables.
type MemoryStorage struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewMemoryStorage creates a new instance of MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tokens: make(map[string]Token),
	}
}

func (m *MemoryStorage) Store(_ context.Context, key string, token Token) error {
	if token.Value == "" {
		return ErrTokenInvalid
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[sanitizeKey(key)] = token
	return nil
}

func (m *MemoryStorage) Retrieve(_ context.Context, key string) (Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	token, exists := m.tokens[sanitizeKey(key)]
	if !exists {
		return Token{}, ErrTokenNotFound
	}
	if IsExpired(token) {
		return Token{}, ErrTokenExpired
	}
	return token, nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sanitizeKey(key))
	return nil
}

func (m *MemoryStorage) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.tokens))
	for k := range m.tokens {
		keys = append(keys, k)
	}
	return keys, nil
}
