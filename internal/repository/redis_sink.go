package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDiagnosticsKey = "schemascope:diagnostics"
	defaultDiagnosticsMax = 10000
	redisWriteTimeout     = 2 * time.Second
)

// RedisSink keeps the newest diagnostic records in a capped redis list so
// other processes can tail them.
type RedisSink struct {
	client  redis.Cmdable
	listKey string
	listMax int
	ttl     time.Duration
}

func NewRedisSink(client redis.Cmdable, listKey string, listMax int, ttl time.Duration) *RedisSink {
	if listKey == "" {
		listKey = defaultDiagnosticsKey
	}
	if listMax <= 0 {
		listMax = defaultDiagnosticsMax
	}
	return &RedisSink{
		client:  client,
		listKey: listKey,
		listMax: listMax,
		ttl:     ttl,
	}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisWriteTimeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.listKey, text)
	pipe.LTrim(ctx, s.listKey, 0, int64(s.listMax-1))
	if s.ttl > 0 {
		pipe.Expire(ctx, s.listKey, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Recent returns up to limit raw records, newest first.
func (s *RedisSink) Recent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > s.listMax {
		limit = 100
	}
	items, err := s.client.LRange(ctx, s.listKey, 0, int64(limit-1)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	return items, err
}
