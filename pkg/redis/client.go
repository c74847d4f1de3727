// Package redis wraps go-redis with a small, general-purpose surface: hash
// writes, pub/sub, and a blocking list queue (the last being what pkg/bridge
// uses). Adapted
// from the teacher's pkg/redis/client.go; the vehicle/battery-specific
// convenience methods (GetStateInt's state-string table) are dropped since
// this repo has no battery/vehicle domain (see DESIGN.md).
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client represents a Redis connection with publish/subscribe and list
// queue capabilities.
type Client struct {
	client *redis.Client
	ctx    context.Context
}

// New creates a new Redis client and verifies connectivity with a Ping.
func New(addr, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client, ctx: ctx}, nil
}

// WriteString writes a string value to a hash field.
func (c *Client) WriteString(key, field, value string) error {
	return c.client.HSet(c.ctx, key, field, value).Err()
}

// WriteInt writes an integer value to a hash field.
func (c *Client) WriteInt(key, field string, value int) error {
	return c.client.HSet(c.ctx, key, field, value).Err()
}

// GetString reads a hash field as a string.
func (c *Client) GetString(key, field string) (string, error) {
	val, err := c.client.HGet(c.ctx, key, field).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("key %s field %s not found", key, field)
	}
	return val, err
}

// Subscribe subscribes to a channel, returning a message channel and a
// close func.
func (c *Client) Subscribe(channel string) (<-chan *redis.Message, func()) {
	pubsub := c.client.Subscribe(c.ctx, channel)
	return pubsub.Channel(), func() { pubsub.Close() }
}

// Publish publishes a message to a channel.
func (c *Client) Publish(channel, message string) error {
	return c.client.Publish(c.ctx, channel, message).Err()
}

// LPush pushes value onto the head of a list.
func (c *Client) LPush(key, value string) error {
	return c.client.LPush(c.ctx, key, value).Err()
}

// BRPop blocks (up to timeout, or indefinitely if timeout is 0) popping the
// tail of a list. A timeout with no data returns (nil, nil), not an error.
func (c *Client) BRPop(timeout time.Duration, key string) ([]string, error) {
	result, err := c.client.BRPop(c.ctx, timeout, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("BRPOP %s: %w", key, err)
	}
	return result, nil
}

// HDel deletes a hash field.
func (c *Client) HDel(key, field string) (int64, error) {
	return c.client.HDel(c.ctx, key, field).Result()
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
