package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/evcraddock/rent-finder/internal/live"
)

// DefaultChannel is the Redis channel change topics travel on.
const DefaultChannel = "rent-finder:changes"

// Redis shares change topics between processes that use the same SQLite
// database. Publish sends topics to Redis; Run forwards every received
// message, including this process's own, into the hub.
type Redis struct {
	client  *redis.Client
	channel string
	hub     *live.Hub
}

// NewRedis creates a Redis publisher bound to hub.
func NewRedis(client *redis.Client, channel string, hub *live.Hub) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{client: client, channel: channel, hub: hub}
}

// Connect opens a Redis client and checks it is reachable.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			slog.Warn("closing redis client", "error", cerr)
		}
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Publish implements Publisher.
func (r *Redis) Publish(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	if err := r.client.Publish(ctx, r.channel, encodeTopics(topics)).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", r.channel, err)
	}
	return nil
}

// Run forwards messages into the hub until ctx is done.
func (r *Redis) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer func() {
		if err := sub.Close(); err != nil {
			slog.Warn("closing redis subscription", "error", err)
		}
	}()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}
	slog.Info("listening for changes", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.hub.Publish(decodeTopics(msg.Payload)...)
		}
	}
}
