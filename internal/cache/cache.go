// Package cache provides the Redis-backed answer cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ragshield/ragshield/config"
)

// Recorder receives cache hit/miss events; satisfied by the metrics
// collector. May be nil.
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// AnswerCache stores final answers in Redis with a TTL. It implements
// rag.AnswerCache.
type AnswerCache struct {
	client   *redis.Client
	ttl      time.Duration
	recorder Recorder
	logger   *zap.Logger
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg config.CacheConfig, recorder Recorder, logger *zap.Logger) (*AnswerCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("answer cache connected",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", cfg.TTL))

	return &AnswerCache{
		client:   client,
		ttl:      cfg.TTL,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "answer_cache")),
	}, nil
}

// Get returns the cached answer for key. A miss is ("", false, nil).
func (c *AnswerCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.recordMiss()
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	c.recordHit()
	return val, true, nil
}

// Set stores answer under key with the configured TTL.
func (c *AnswerCache) Set(ctx context.Context, key, answer string) error {
	if err := c.client.Set(ctx, key, answer, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *AnswerCache) Close() error {
	return c.client.Close()
}

func (c *AnswerCache) recordHit() {
	if c.recorder != nil {
		c.recorder.RecordCacheHit()
	}
}

func (c *AnswerCache) recordMiss() {
	if c.recorder != nil {
		c.recorder.RecordCacheMiss()
	}
}
