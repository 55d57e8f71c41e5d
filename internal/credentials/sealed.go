package credentials

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed encrypts token values with XChaCha20-Poly1305 before handing them to
// the wrapped provider. The key name is bound as additional data so an access
// token cannot be swapped in for a refresh token.
type Sealed struct {
	inner Provider
	key   []byte
}

// NewSealed wraps inner. key must be chacha20poly1305.KeySize bytes.
func NewSealed(inner Provider, key []byte) (*Sealed, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidKey, chacha20poly1305.KeySize, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Sealed{inner: inner, key: k}, nil
}

// ParseKey accepts a 32-byte key encoded as hex or standard base64. Any other
// non-empty string is treated as a passphrase and hashed with SHA-256.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidKey
	}
	if b, err := hex.DecodeString(raw); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	sum := sha256.Sum256([]byte(raw))
	return sum[:], nil
}

func (s *Sealed) AccessToken(ctx context.Context) (string, error) {
	v, err := s.inner.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	return s.open(AccessTokenKey, v)
}

func (s *Sealed) RefreshToken(ctx context.Context) (string, error) {
	v, err := s.inner.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	return s.open(RefreshTokenKey, v)
}

func (s *Sealed) SetTokens(ctx context.Context, access, refresh string) error {
	sealedAccess, err := s.seal(AccessTokenKey, access)
	if err != nil {
		return err
	}
	sealedRefresh, err := s.seal(RefreshTokenKey, refresh)
	if err != nil {
		return err
	}
	return s.inner.SetTokens(ctx, sealedAccess, sealedRefresh)
}

func (s *Sealed) SetAccessToken(ctx context.Context, access string) error {
	sealed, err := s.seal(AccessTokenKey, access)
	if err != nil {
		return err
	}
	return s.inner.SetAccessToken(ctx, sealed)
}

func (s *Sealed) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

func (s *Sealed) seal(name, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, []byte(plaintext), []byte(name))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *Sealed) open(name, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrCorruptValue
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(name))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	return string(plain), nil
}
