package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/datableed/decision-engine/pkg/progress"
)

const progressKeyPrefix = "progress:"

// RedisStore implements ProgressStore using Redis.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ ProgressStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed progress store.
func NewRedisStore(redisURL string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	return &RedisStore{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}

func (r *RedisStore) SaveProgress(ctx context.Context, character string, p *progress.SessionProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("Failed to marshal progress", "character", character, "error", err)
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	key := progressKeyPrefix + character
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save progress", "character", character, "error", err)
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadProgress(ctx context.Context, character string) (*progress.SessionProgress, error) {
	key := progressKeyPrefix + character
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		r.logger.Error("Failed to load progress", "character", character, "error", err)
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	var p progress.SessionProgress
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		r.logger.Error("Failed to unmarshal progress", "character", character, "error", err)
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	// Backfill missing keys from older documents.
	p.Normalize()
	if p.Character == "" {
		p.Character = character
	}
	return &p, nil
}

func (r *RedisStore) LoadAllProgress(ctx context.Context) (map[string]*progress.SessionProgress, error) {
	all := make(map[string]*progress.SessionProgress)

	iter := r.client.Scan(ctx, 0, progressKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		character := strings.TrimPrefix(key, progressKeyPrefix)
		p, err := r.LoadProgress(ctx, character)
		if err != nil {
			r.logger.Warn("Skipping unreadable progress document", "key", key, "error", err)
			continue
		}
		if p != nil {
			all[character] = p
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan progress keys: %w", err)
	}
	return all, nil
}

func (r *RedisStore) DeleteProgress(ctx context.Context, character string) error {
	key := progressKeyPrefix + character
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete progress", "character", character, "error", err)
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

// Publish sends a payload to a Redis pub/sub channel. Used by the events
// forwarder to fan trigger events out to the web front end.
func (r *RedisStore) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}
