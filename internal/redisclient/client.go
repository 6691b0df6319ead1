// Package redisclient owns the Redis connection behind the shared list cache.
package redisclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 2 * time.Second

var ErrNoAddr = errors.New("redis address is empty")

type Config struct {
	Addr     string
	Password string
	DB       int
	// dial, read and write deadline; defaults to 2s
	Timeout time.Duration
}

type Client struct {
	rdb  *redis.Client
	addr string
}

// Open builds the client and checks the server once. An unreachable server
// is logged and not returned: the list cache reads through to the store
// until Redis answers again.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.Addr == "" {
		return nil, ErrNoAddr
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}),
		addr: cfg.Addr,
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Ready(checkCtx); err != nil {
		log.WarnContext(ctx, "redis unreachable at startup, cache will fall through", "addr", cfg.Addr, "err", err)
	}
	return c, nil
}

// Ready backs the "redis" readiness check.
func (c *Client) Ready(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", c.addr, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Conn is the go-redis client the cache store issues commands on.
func (c *Client) Conn() *redis.Client {
	return c.rdb
}
