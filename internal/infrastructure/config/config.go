package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "DATAFLOW_"

type Config struct {
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	LogPretty  bool   `env:"LOG_PRETTY,  default=false"`
	ListenAddr string `env:"LISTEN_ADDR, default=127.0.0.1:8080"`

	API    APIConfig
	Token  TokenConfig
	Scrape ScrapeConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

type APIConfig struct {
	BaseURL          string        `env:"API_BASE_URL,       default=http://localhost:8000"`
	Prefix           string        `env:"API_PREFIX,         default=/api/v1"`
	Timeout          time.Duration `env:"API_TIMEOUT,        default=30s"`
	RateLimit        float64       `env:"API_RATE_LIMIT,     default=5"`
	RateBurst        int           `env:"API_RATE_BURST,     default=5"`
	DatasetCacheSize int           `env:"DATASET_CACHE_SIZE, default=64"`
	DatasetCacheTTL  time.Duration `env:"DATASET_CACHE_TTL,  default=5m"`
}

// Store kinds accepted by TOKEN_STORE.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type TokenConfig struct {
	Store         string        `env:"TOKEN_STORE,          default=file"`
	File          string        `env:"TOKEN_FILE"`
	RefreshLeeway time.Duration `env:"TOKEN_REFRESH_LEEWAY, default=5m"`
}

type ScrapeConfig struct {
	SubmitTimeout   time.Duration `env:"SCRAPE_SUBMIT_TIMEOUT,    default=30s"`
	InitialDelay    time.Duration `env:"SCRAPE_INITIAL_DELAY,     default=1s"`
	PollInterval    time.Duration `env:"SCRAPE_POLL_INTERVAL,     default=1500ms"`
	RetryDelay      time.Duration `env:"SCRAPE_RETRY_DELAY,       default=3s"`
	MaxPollFailures int           `env:"SCRAPE_MAX_POLL_FAILURES, default=10"`
	PollTimeout     time.Duration `env:"SCRAPE_POLL_TIMEOUT,      default=15s"`
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI"`
	Database string        `env:"MONGO_DB,      default=dataflow_console"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	Timeout  time.Duration `env:"REDIS_TIMEOUT,  default=5s"`
}

// Load reads DATAFLOW_ prefixed variables from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, l),
	}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.Token.File == "" {
		cfg.Token.File = DefaultTokenFile()
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Prefix != "" && !strings.HasPrefix(cfg.API.Prefix, "/") {
		cfg.API.Prefix = "/" + cfg.API.Prefix
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration is internally coherent.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL %q is not an absolute URL", c.API.BaseURL))
	}

	positive := map[string]time.Duration{
		"API_TIMEOUT":           c.API.Timeout,
		"SCRAPE_SUBMIT_TIMEOUT": c.Scrape.SubmitTimeout,
		"SCRAPE_INITIAL_DELAY":  c.Scrape.InitialDelay,
		"SCRAPE_POLL_INTERVAL":  c.Scrape.PollInterval,
		"SCRAPE_RETRY_DELAY":    c.Scrape.RetryDelay,
		"SCRAPE_POLL_TIMEOUT":   c.Scrape.PollTimeout,
	}
	for _, name := range []string{
		"API_TIMEOUT", "SCRAPE_SUBMIT_TIMEOUT", "SCRAPE_INITIAL_DELAY",
		"SCRAPE_POLL_INTERVAL", "SCRAPE_RETRY_DELAY", "SCRAPE_POLL_TIMEOUT",
	} {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if c.Scrape.MaxPollFailures < 1 {
		errs = append(errs, errors.New("SCRAPE_MAX_POLL_FAILURES must be at least 1"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT must not be negative"))
	}
	if c.API.DatasetCacheSize < 0 {
		errs = append(errs, errors.New("DATASET_CACHE_SIZE must not be negative"))
	}

	switch c.Token.Store {
	case StoreFile:
		if c.Token.File == "" {
			errs = append(errs, errors.New("TOKEN_FILE is required for the file token store"))
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis token store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("TOKEN_STORE %q must be one of file, redis, memory", c.Token.Store))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// JournalEnabled reports whether a scrape journal database is configured.
func (c *Config) JournalEnabled() bool {
	return c.Mongo.URI != ""
}

// DefaultTokenFile is the session file under the user config directory.
func DefaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dataflow", "session.json")
}
