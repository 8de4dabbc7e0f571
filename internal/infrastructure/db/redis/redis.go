package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout = 5 * time.Second
	clientName     = "dataflow-console"
)

// Config holds the token store connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dialing, every command and the startup ping.
	Timeout time.Duration
}

// Connect opens a client for the session token store and pings it once. The
// store issues one small command per request, so a single retry and short
// command timeouts keep a dead Redis from stalling sign-in.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   clientName,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   1,
		PoolSize:     4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: ping: %w", cfg.Addr, err)
	}
	return client, nil
}

// Checker reports Redis reachability for readiness probes.
type Checker struct {
	client *redis.Client
}

func NewChecker(client *redis.Client) *Checker {
	return &Checker{client: client}
}

func (c *Checker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
