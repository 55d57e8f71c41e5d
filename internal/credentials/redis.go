package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "musicworks:session:"
	redisCallTimeout   = 3 * time.Second
)

// RedisStore keeps tokens in Redis so several hosts can share one session.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	// Prefix namespaces the keys; it usually ends with the account name.
	Prefix string
	// TTL expires stored tokens; zero keeps them until cleared.
	TTL time.Duration
}

// NewRedisStore builds a Redis-backed provider.
func NewRedisStore(opts RedisOptions) *RedisStore {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
		}),
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, AccessTokenKey)
}

func (s *RedisStore) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, RefreshTokenKey)
}

func (s *RedisStore) SetTokens(ctx context.Context, access, refresh string) error {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(AccessTokenKey), access, s.ttl)
	if refresh != "" {
		pipe.Set(ctx, s.key(RefreshTokenKey), refresh, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) SetAccessToken(ctx context.Context, access string) error {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return s.client.Set(ctx, s.key(AccessTokenKey), access, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return s.client.Del(ctx, s.key(AccessTokenKey), s.key(RefreshTokenKey)).Err()
}

func (s *RedisStore) get(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	value, err := s.client.Get(ctx, s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}
