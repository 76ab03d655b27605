// Package redis implements store.Storage and store.PubSub on Redis, for
// deployments where several server processes share sessions.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aydenstechdungeon/qpick/store"
)

// Store provides a Redis-backed implementation of the store.Storage interface.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

// NewStore creates a new Redis storage. Keys are prefixed with prefix.
func NewStore(client goredis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Get retrieves a key from Redis.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	return val, err
}

// Set stores a key in Redis with an optional expiration time.
func (s *Store) Set(ctx context.Context, key string, val []byte, exp time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, val, exp).Err()
}

// Delete removes a key from Redis.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// PubSub provides a Redis-backed implementation of the store.PubSub interface.
type PubSub struct {
	client goredis.UniversalClient
}

// NewPubSub creates a new Redis PubSub.
func NewPubSub(client goredis.UniversalClient) *PubSub {
	return &PubSub{client: client}
}

// Publish publishes a message to a Redis channel.
func (p *PubSub) Publish(ctx context.Context, channel string, message []byte) error {
	return p.client.Publish(ctx, channel, message).Err()
}

// Subscribe subscribes to a Redis channel and invokes the handler for each
// message until the returned function is called.
func (p *PubSub) Subscribe(ctx context.Context, channel string, handler store.Handler) (func(), error) {
	pubsub := p.client.Subscribe(ctx, channel)

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	go func() {
		for msg := range pubsub.Channel() {
			handler([]byte(msg.Payload))
		}
	}()

	return func() { _ = pubsub.Close() }, nil
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
