// Package events publishes answered exchanges to a Redis Stream so
// external observers can follow gateway traffic. Publishing is best
// effort and never fails the request that produced the exchange.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStream = "gateway:exchanges"

// Stream wraps a go-redis client for exchange publishing
type Stream struct {
	rdb    *redis.Client
	stream string
	logger *slog.Logger
}

// New connects to Redis and validates the connection with a short ping
func New(addr, password string, db int, stream string, logger *slog.Logger) (*Stream, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	if stream == "" {
		stream = defaultStream
	}
	return &Stream{rdb: rdb, stream: stream, logger: logger}, nil
}

// PublishExchange appends one answered exchange to the stream
func (s *Stream) PublishExchange(ctx context.Context, sessionID, question, answer, provider string) {
	err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"session_id": sessionID,
			"question":   question,
			"answer":     answer,
			"provider":   provider,
			"ts":         time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		s.logger.Warn("Exchange publish failed", "error", err)
	}
}

// Close closes the Redis connection
func (s *Stream) Close() error {
	return s.rdb.Close()
}
