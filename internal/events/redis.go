package events

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-ledger/internal/core"

	"github.com/redis/go-redis/v9"
)

// recentLimit caps the replay list kept beside the pub/sub channel.
const recentLimit = 500

// NewRedisClient creates and validates a go-redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// RedisPublisher publishes events as JSON on a pub/sub channel and keeps the
// most recent ones in a capped list so late subscribers can catch up.
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

var _ core.EventPublisher = (*RedisPublisher)(nil)

func NewRedisPublisher(rdb redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) recentKey() string { return p.channel + ":recent" }

func (p *RedisPublisher) Publish(ctx context.Context, e core.Event) error {
	data, err := encode(e)
	if err != nil {
		return err
	}

	_, err = p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, p.channel, data)
		pipe.LPush(ctx, p.recentKey(), data)
		pipe.LTrim(ctx, p.recentKey(), 0, recentLimit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (p *RedisPublisher) Recent(ctx context.Context, n int) ([]core.Event, error) {
	if n <= 0 || n > recentLimit {
		n = recentLimit
	}
	raw, err := p.rdb.LRange(ctx, p.recentKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent events: %w", err)
	}

	out := make([]core.Event, 0, len(raw))
	for _, r := range raw {
		e, err := decode([]byte(r))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func encode(e core.Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return data, nil
}

func decode(data []byte) (core.Event, error) {
	var e core.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return core.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}
