// Package redisstore keeps progress records in Redis, one JSON value per
// user.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/abhisek/sentrypath/internal/progress"
	"github.com/abhisek/sentrypath/internal/store"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "sentrypath"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Repo implements store.ProgressRepo on Redis.
type Repo struct {
	rdb    *goredis.Client
	prefix string
}

var _ store.ProgressRepo = (*Repo)(nil)

// Open connects to Redis and checks the connection.
func Open(ctx context.Context, opts Options) (*Repo, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, opts.Prefix), nil
}

// New wraps an existing client.
func New(rdb *goredis.Client, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repo{rdb: rdb, prefix: prefix}
}

// Key returns the Redis key holding userID's record.
func (r *Repo) Key(userID string) string {
	return r.prefix + ":progress:" + userID
}

func (r *Repo) Get(ctx context.Context, userID string) (*progress.UserProgress, error) {
	raw, err := r.rdb.Get(ctx, r.Key(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get progress: %w", err)
	}

	var p progress.UserProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}
	p = p.Normalize()
	return &p, nil
}

func (r *Repo) Put(ctx context.Context, userID string, p progress.UserProgress) error {
	raw, err := json.Marshal(p.Normalize())
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := r.rdb.Set(ctx, r.Key(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set progress: %w", err)
	}
	return nil
}

// Delete removes userID's record.
func (r *Repo) Delete(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, r.Key(userID)).Err()
}

// Close closes the client.
func (r *Repo) Close() error {
	return r.rdb.Close()
}
