// Package redis provides a Redis-backed implementation of
// storage.UploadStore. Uploads are stored as plain string values under
// "<prefix>:<name>" with an optional expiry, so several gateway replicas
// can serve the same uploads.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rhuss/pinpoint/pkg/debug"
	"github.com/rhuss/pinpoint/pkg/storage"
)

const defaultPrefix = "pinpoint:uploads"

// Config holds Redis upload store settings.
type Config struct {
	// URL is a redis:// or rediss:// connection URL. Required.
	URL string
	// Prefix namespaces upload keys. Defaults to "pinpoint:uploads".
	Prefix string
	// TTL expires uploads after the given duration. Zero keeps them forever.
	TTL time.Duration
}

// Store is an UploadStore backed by Redis.
type Store struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

var _ storage.UploadStore = (*Store)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("redis url is empty")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}

	opt, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Store{client: client, prefix: cfg.Prefix, ttl: cfg.TTL, now: time.Now}, nil
}

// Save stores the upload under a fresh name. SETNX guards against a name
// collision with an existing key.
func (s *Store) Save(ctx context.Context, u storage.Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", storage.ErrEmpty
	}
	name := storage.NewUploadName(s.now(), u.ContentType)

	ok, err := s.client.SetNX(ctx, s.key(name), u.Data, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return "", storage.ErrConflict
	}

	debug.Log("uploads", "saved upload", "store", "redis", "name", name, "bytes", len(u.Data))
	return name, nil
}

// Get returns the bytes stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(name string) string {
	return s.prefix + ":" + name
}
