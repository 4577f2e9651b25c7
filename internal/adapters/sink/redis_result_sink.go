package sink

import (
	"context"
	"errors"
	"fmt"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/obs"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream = "route-optimizer:results"
	// Approximate cap on stream length.
	DefaultStreamMaxLen = 10000
)

// Publishes results to a Redis stream for downstream consumers.
type RedisResultSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisClient connects and pings a Redis server.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}

func NewRedisResultSink(client *redis.Client, stream string) *RedisResultSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisResultSink{client: client, stream: stream, maxLen: DefaultStreamMaxLen}
}

func (s *RedisResultSink) SaveResult(ctx context.Context, result *domain.OptimizationResult) (err error) {
	defer obs.Time(ctx, "sink.redis.SaveResult")(&err)

	if s.client == nil {
		return errors.New("redis result sink: client is nil")
	}

	payload, err := marshalResult(result)
	if err != nil {
		return fmt.Errorf("publish result: %w", err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"result_id": result.ID,
			"driver_id": result.DriverID,
			"strategy":  result.Strategy,
			"degraded":  strconv.FormatBool(result.Degraded),
			"payload":   string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish result: xadd %s: %w", s.stream, err)
	}

	return nil
}
