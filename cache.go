package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LeaderboardTTL bounds how stale a cached board can get if an invalidation is lost.
const LeaderboardTTL = 5 * time.Minute

// RedisCache caches ranked leaderboards in Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance at url and pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

func boardKey(game string, d Difficulty) string {
	if d == "" {
		return fmt.Sprintf("leaderboard:%s:all", game)
	}
	return fmt.Sprintf("leaderboard:%s:%s", game, d)
}

func (c *RedisCache) Get(ctx context.Context, game string, d Difficulty) ([]LeaderboardEntry, bool, error) {
	data, err := c.client.Get(ctx, boardKey(game, d)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entries []LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("unmarshaling leaderboard: %w", err)
	}
	return entries, true, nil
}

func (c *RedisCache) Set(ctx context.Context, game string, d Difficulty, entries []LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling leaderboard: %w", err)
	}
	return c.client.Set(ctx, boardKey(game, d), data, LeaderboardTTL).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, game string) error {
	keys := []string{boardKey(game, "")}
	for _, d := range []Difficulty{Easy, Medium, Hard, Crazy} {
		keys = append(keys, boardKey(game, d))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
