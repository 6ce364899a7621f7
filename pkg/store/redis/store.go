// Package redis implements store.Store on Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/vango-dev/observe/pkg/observe"
	"github.com/vango-dev/observe/pkg/store"
)

// Store keeps each snapshot as a JSON string under prefix+name.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for snapshots.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "observe:snapshot:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Load retrieves the snapshot saved under name.
func (s *Store) Load(ctx context.Context, name string) (*observe.Object, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	val, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return store.Decode(val)
}

// Save persists doc under name.
func (s *Store) Save(ctx context.Context, name string, doc *observe.Object) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(name), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete removes the snapshot saved under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	return s.client.Del(ctx, s.key(name)).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
