package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects to Redis from a URL. Returns an error instead of a
// client when the URL is empty or the server is unreachable; callers treat
// a nil client as "single instance, no relay".
func NewRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis URL is not set")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// BoardChannel is the pubsub channel carrying one board's broadcasts
// across service instances.
func BoardChannel(boardID string) string {
	return fmt.Sprintf("board:%s", boardID)
}

// PublishBoardEvent publishes a serialized event to a board's channel.
func PublishBoardEvent(ctx context.Context, client *redis.Client, boardID string, payload []byte) error {
	if client == nil {
		return nil
	}
	return client.Publish(ctx, BoardChannel(boardID), payload).Err()
}

// SubscribeBoardEvents subscribes to a board's channel.
func SubscribeBoardEvents(ctx context.Context, client *redis.Client, boardID string) *redis.PubSub {
	if client == nil {
		return nil
	}
	return client.Subscribe(ctx, BoardChannel(boardID))
}
