package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options tunes the shared Redis client. Zero values fall back to defaults.
type Options struct {
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New dials Redis for sessions and the job queue and fails fast when the
// server does not answer PING.
func New(ctx context.Context, addr string, opts ...Options) (*redis.Client, error) {
	o := Options{DialTimeout: 5 * time.Second, ReadTimeout: 3 * time.Second, WriteTimeout: 3 * time.Second}
	if len(opts) > 0 {
		o = merge(o, opts[0])
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           o.DB,
		PoolSize:     o.PoolSize,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, o.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", addr, err)
	}
	return client, nil
}

func merge(base, o Options) Options {
	base.DB = o.DB
	if o.PoolSize > 0 {
		base.PoolSize = o.PoolSize
	}
	if o.DialTimeout > 0 {
		base.DialTimeout = o.DialTimeout
	}
	if o.ReadTimeout > 0 {
		base.ReadTimeout = o.ReadTimeout
	}
	if o.WriteTimeout > 0 {
		base.WriteTimeout = o.WriteTimeout
	}
	return base
}
