package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr     string
	Username string
	Password string
	LockTTL  time.Duration
}

func NewRedisClient(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

// NewLocker returns a Redis slot locker and its client, or NopLocker and a
// nil client when no address is configured.
func NewLocker(ctx context.Context, opts Options) (Locker, *redis.Client, error) {
	if opts.Addr == "" {
		return NopLocker{}, nil, nil
	}
	rdb, err := NewRedisClient(ctx, opts.Addr, opts.Username, opts.Password)
	if err != nil {
		return nil, nil, err
	}
	return NewSlotLocker(rdb, opts.LockTTL), rdb, nil
}
