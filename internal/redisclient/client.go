// Package redisclient connects the optional shared redis that backs token
// revocations and auth rate limits across API instances.
package redisclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "todohub"

type Config struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces every key the service writes so instances of
	// different environments can share one redis.
	KeyPrefix string
}

type Client struct {
	rdb    *redis.Client
	prefix string
}

func New(cfg Config) *Client {
	prefix := strings.Trim(cfg.KeyPrefix, ":")
	if prefix == "" {
		prefix = defaultPrefix
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{rdb: rdb, prefix: prefix}
}

// Connect returns a client only once redis has answered a ping within
// timeout. A client that does not answer is closed.
func Connect(ctx context.Context, cfg Config, timeout time.Duration) (*Client, error) {
	c := New(cfg)

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Ping(pctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}

	return c, nil
}

// Namespace is the key prefix for one kind of record, ending in ':'.
func (c *Client) Namespace(kind string) string {
	return c.prefix + ":" + kind + ":"
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Raw exposes the underlying client to the revocation list and the rate
// limiter.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}
