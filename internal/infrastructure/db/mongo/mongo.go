package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "dataflow-console"
)

// Config holds the scrape journal connection settings.
type Config struct {
	URI      string
	Database string
	// Timeout bounds server selection and the startup ping.
	Timeout time.Duration
}

// Connect opens the journal database. The journal is written once per
// finished scrape, so a small pool is enough; server selection is bounded so
// an unreachable cluster fails startup instead of hanging it.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout).
		SetMaxPoolSize(4).
		SetRetryWrites(true)

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// Checker reports MongoDB reachability for readiness probes.
type Checker struct {
	client *mongo.Client
}

func NewChecker(client *mongo.Client) *Checker {
	return &Checker{client: client}
}

func (c *Checker) Check(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}
