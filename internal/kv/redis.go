// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// redisChangeChannel carries the writer id of every Set so other processes
// sharing the same redis can refresh their dashboards.
const redisChangeChannel = "truthscore:ledger:changes"

// Redis stores keys as plain redis strings.
type Redis struct {
	rdb      *redis.Client
	writerID string
}

// NewRedis parses a redis:// URL and pings the server. A failed ping is
// logged; the client reconnects on later commands.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis backend: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("redis backend unreachable, serving cached ledger until it returns: %v", err)
	}
	return NewRedisWithClient(rdb), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, writerID: uuid.New().String()}
}

// Get implements Backend.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: redis get %s: %v", ErrUnavailable, key, err)
	}
	return v, true, nil
}

// Set implements Backend.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %v", ErrUnavailable, key, err)
	}
	if err := r.rdb.Publish(ctx, redisChangeChannel, r.writerID).Err(); err != nil {
		log.Debugf("redis backend: publish change: %v", err)
	}
	return nil
}

// Close implements Backend.
func (r *Redis) Close() error { return r.rdb.Close() }

// Watch subscribes to change announcements from other writers.
func (r *Redis) Watch(ctx context.Context, onChange func()) error {
	sub := r.rdb.Subscribe(ctx, redisChangeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if msg.Payload == r.writerID {
				continue
			}
			onChange()
		}
	}
}
