// Package cache remembers pages and remote records that a bot has already
// handled, so later runs skip them without touching the wiki.
package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// DefaultURL is the Toolforge Redis instance.
const DefaultURL = "redis://redis.svc.tools.eqiad1.wikimedia.cloud:6379/9"

// Store is a set of keys.
type Store interface {
	// Exists reports whether key has been marked.
	Exists(ctx context.Context, key string) (bool, error)

	// Mark records key. Marks do not expire.
	Mark(ctx context.Context, key string) error

	// Close releases the connection.
	Close() error
}

// RedisStore is a Store backed by Redis or a compatible server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the server at url, e.g.
// "redis://host:6379/9". The connection is verified with PING.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	if url == "" {
		url = DefaultURL
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // connection never became usable
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Exists implements Store.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Mark implements Store.
func (s *RedisStore) Mark(ctx context.Context, key string) error {
	if err := s.client.Set(ctx, key, 1, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// ReadOnly wraps a store so that Mark does nothing. Dry runs use it to
// honour existing marks without recording new ones.
type ReadOnly struct {
	Store
}

// Mark implements Store.
func (ReadOnly) Mark(context.Context, string) error {
	return nil
}

// PageKey returns the key for a file page, "<prefix>:commons:<mid>".
func PageKey(prefix, mid string) string {
	return Key(prefix, "commons", mid)
}

// Key joins prefix and parts with colons.
func Key(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), ":")
}

// Namespace derives a stable key prefix for a bot name.
func Namespace(bot string) string {
	sum := blake2b.Sum256([]byte("wikibots/" + bot))
	return base64.StdEncoding.EncodeToString(sum[:])
}
