package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisClient struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisClient(addr, password string, db int, log *zap.Logger) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis connected successfully", zap.String("addr", addr))

	return &RedisClient{
		client: rdb,
		log:    log,
	}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Locker распределённые блокировки поверх этого клиента.
func (r *RedisClient) Locker(ttl time.Duration) *RedisLocker {
	return NewRedisLocker(r.client, ttl, r.log)
}
