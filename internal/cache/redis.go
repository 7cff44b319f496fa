package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the slow cache tier in Redis. Entries are stored as
// JSON under a shared namespace so Clear only touches this service's
// keys. Redis expiry mirrors the entry's own lifetime.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "jobradar:cache:"
	}

	return &RedisStore{client: client, namespace: namespace}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	raw, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, fmt.Errorf("redis get: decode entry: %w", err)
	}
	return entry, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis set: encode entry: %w", err)
	}

	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.namespace+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.namespace+key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Clear removes every key in the store's namespace using SCAN so large
// keyspaces are not blocked.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.namespace+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis clear: scan: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
