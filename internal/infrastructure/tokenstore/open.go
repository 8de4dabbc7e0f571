package tokenstore

import (
	"context"
	"fmt"

	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/infrastructure/config"
	redisdb "github.com/dataflow/console/internal/infrastructure/db/redis"
)

// Opened is a token store plus the cleanup for whatever it connected to.
type Opened struct {
	Store ports.TokenStore
	Close func() error
	// Checker is set when the store depends on a remote service.
	Checker interface {
		Check(ctx context.Context) error
	}
}

// Open selects the token store named by cfg.Token.Store.
func Open(ctx context.Context, cfg *config.Config) (*Opened, error) {
	noop := func() error { return nil }

	switch cfg.Token.Store {
	case config.StoreMemory:
		return &Opened{Store: NewMemory(), Close: noop}, nil
	case config.StoreFile, "":
		return &Opened{Store: NewFile(cfg.Token.File), Close: noop}, nil
	case config.StoreRedis:
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis token store: %w", err)
		}
		return &Opened{
			Store:   redisdb.NewTokenStore(client, ""),
			Close:   client.Close,
			Checker: redisdb.NewChecker(client),
		}, nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.Token.Store)
	}
}
