// Package redis implements the record-store ports on top of Redis. Entities
// are stored as JSON strings with secondary index sets per status, stats
// counters live in hashes advanced with HINCRBY, and receipt uniqueness is
// enforced with SETNX on the fulfillment hash.
package redis

import (
	"context"
	"strconv"

	redis "github.com/redis/go-redis/v9"
)

// parseCounter decodes a hash counter field, treating absent or malformed
// values as zero.
func parseCounter(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

type client struct {
	conn *redis.Client
}

func (c *client) Close() error {
	return c.conn.Close()
}

func NewClient(ctx context.Context, addr, username, password string, db int) (*client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &client{
		conn: conn,
	}, nil
}
