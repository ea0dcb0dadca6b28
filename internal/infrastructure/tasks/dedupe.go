package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claimer guards a task id so a redelivered message runs at most once.
type Claimer interface {
	Claim(ctx context.Context, taskID string) (bool, error)
	Release(ctx context.Context, taskID string) error
}

type RedisDeduper struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisDeduper(client redis.Cmdable, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func dedupeKey(taskID string) string {
	return fmt.Sprintf("task:%s", taskID)
}

// Claim returns false when another consumer already holds or completed
// the task.
func (d *RedisDeduper) Claim(ctx context.Context, taskID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupeKey(taskID), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim task %s: %w", taskID, err)
	}
	return ok, nil
}

// Release drops the claim so a later redelivery can retry the task.
func (d *RedisDeduper) Release(ctx context.Context, taskID string) error {
	if err := d.client.Del(ctx, dedupeKey(taskID)).Err(); err != nil {
		return fmt.Errorf("release task %s: %w", taskID, err)
	}
	return nil
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}
