package credentials

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func exerciseProvider(t *testing.T, p Provider) {
	t.Helper()
	ctx := context.Background()

	if v, err := p.AccessToken(ctx); err != nil || v != "" {
		t.Fatalf("expected empty access token, got %q err=%v", v, err)
	}
	if err := p.SetTokens(ctx, "access-1", "refresh-1"); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	if v, _ := p.AccessToken(ctx); v != "access-1" {
		t.Fatalf("access token = %q", v)
	}
	if v, _ := p.RefreshToken(ctx); v != "refresh-1" {
		t.Fatalf("refresh token = %q", v)
	}

	if err := p.SetTokens(ctx, "access-2", ""); err != nil {
		t.Fatalf("set tokens without refresh: %v", err)
	}
	if v, _ := p.RefreshToken(ctx); v != "refresh-1" {
		t.Fatalf("empty refresh must keep the stored one, got %q", v)
	}

	if err := p.SetAccessToken(ctx, "access-3"); err != nil {
		t.Fatalf("set access token: %v", err)
	}
	if v, _ := p.AccessToken(ctx); v != "access-3" {
		t.Fatalf("access token = %q", v)
	}

	if err := p.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	a, _ := p.AccessToken(ctx)
	r, _ := p.RefreshToken(ctx)
	if a != "" || r != "" {
		t.Fatalf("expected cleared tokens, got %q %q", a, r)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseProvider(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	s, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	exerciseProvider(t, s)

	if err := s.SetTokens(context.Background(), "kept", "kept-refresh"); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen bolt: %v", err)
	}
	defer reopened.Close()
	if v, _ := reopened.AccessToken(context.Background()); v != "kept" {
		t.Fatalf("expected token to survive reopen, got %q", v)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(RedisOptions{Addr: mr.Addr(), Prefix: "test:"})
	defer s.Close()
	exerciseProvider(t, s)
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(RedisOptions{Addr: mr.Addr(), TTL: time.Minute})
	defer s.Close()

	if err := s.SetTokens(context.Background(), "a", "r"); err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	if got := mr.TTL(defaultRedisPrefix + AccessTokenKey); got != time.Minute {
		t.Fatalf("unexpected ttl: %v", got)
	}
	mr.FastForward(2 * time.Minute)
	if v, err := s.AccessToken(context.Background()); err != nil || v != "" {
		t.Fatalf("expected expired token, got %q err=%v", v, err)
	}
}
