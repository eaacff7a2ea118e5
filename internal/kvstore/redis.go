package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

var _ Backend = (*RedisStore)(nil)

type RedisStore struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStore(redisClient *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "kvstore.redis.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	cmd := s.redisClient.Get(ctx, s.keyPrefix+key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return cmd.Val(), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "kvstore.redis.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	cmdSet := s.redisClient.Set(ctx, s.keyPrefix+key, value, 0)
	if err := cmdSet.Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.redisClient.Close()
}
