// Package credentials stores the access and refresh tokens of the signed-in
// user. The HTTP client and the auth service only ever talk to a Provider, so
// the backing store can be swapped without touching them.
package credentials

import (
	"context"
	"errors"
	"sync"
)

// Key names used by every backend.
const (
	AccessTokenKey  = "authToken"
	RefreshTokenKey = "refreshToken"
)

var (
	// ErrCorruptValue indicates a stored value could not be decoded.
	ErrCorruptValue = errors.New("corrupt credential value")
	// ErrInvalidKey indicates an unusable encryption key.
	ErrInvalidKey = errors.New("invalid credential encryption key")
)

// Provider reads and writes the session tokens. Missing values read as ""
// with a nil error.
type Provider interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	// SetTokens stores both tokens. An empty refresh token leaves the stored
	// one untouched.
	SetTokens(ctx context.Context, access, refresh string) error
	SetAccessToken(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps tokens in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
}

// NewMemoryStore builds an empty in-memory provider.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AccessToken(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, nil
}

func (s *MemoryStore) RefreshToken(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh, nil
}

func (s *MemoryStore) SetTokens(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	s.access = access
	if refresh != "" {
		s.refresh = refresh
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SetAccessToken(_ context.Context, access string) error {
	s.mu.Lock()
	s.access = access
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.access, s.refresh = "", ""
	s.mu.Unlock()
	return nil
}

var (
	_ Provider = (*MemoryStore)(nil)
	_ Provider = (*BoltStore)(nil)
	_ Provider = (*RedisStore)(nil)
	_ Provider = (*Sealed)(nil)
)
