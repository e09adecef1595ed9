package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/taskboard/pkg/account"
)

// Backend names a storage implementation.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRedis  Backend = "redis"
	BackendTables Backend = "tables"
)

// Config selects and configures a backend.
type Config struct {
	Backend  Backend
	Path     string
	LogLevel string

	Account account.Config
	Redis   RedisConfig
	Tables  TablesConfig
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// TablesConfig configures the Azure Table Storage backend.
type TablesConfig struct {
	ConnectionString string
	Table            string
	PollInterval     time.Duration
}

// BasePath is the directory the local backend writes to.
func (c *Config) BasePath() string {
	return c.Path
}

// LoadConfig reads .taskboard.yaml from the working directory (or
// $TASKBOARD_CONFIG_PATH) and TASKBOARD_* environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("backend", string(BackendLocal))
	v.SetDefault("path", "~/.taskboard")
	v.SetDefault("log.level", "info")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.prefix", "taskboard")
	v.SetDefault("tables.table", "tasks")
	v.SetDefault("tables.poll-interval", "5s")

	v.SetConfigName(".taskboard") // .yaml is implicit
	v.SetEnvPrefix("TASKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("TASKBOARD_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}

	cfg := &Config{
		Backend:  Backend(strings.ToLower(strings.TrimSpace(v.GetString("backend")))),
		Path:     path,
		LogLevel: v.GetString("log.level"),
		Account: account.Config{
			ID:       v.GetString("account.id"),
			Token:    v.GetString("account.token"),
			Secret:   v.GetString("account.secret"),
			JWKSURL:  v.GetString("account.jwks-url"),
			Audience: v.GetString("account.audience"),
			Issuer:   v.GetString("account.issuer"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
		},
		Tables: TablesConfig{
			ConnectionString: v.GetString("tables.connection-string"),
			Table:            v.GetString("tables.table"),
			PollInterval:     v.GetDuration("tables.poll-interval"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings required by the selected backend.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Path == "" {
			return fmt.Errorf("store: path required for the %s backend", c.Backend)
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("store: redis.addr required for the %s backend", c.Backend)
		}
	case BackendTables:
		if c.Tables.ConnectionString == "" || c.Tables.Table == "" {
			return fmt.Errorf("store: tables.connection-string and tables.table required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("store: unknown backend %q (expected local, redis or tables)", c.Backend)
	}
	return nil
}

// Synced reports whether the backend is a per-account hosted store.
func (c *Config) Synced() bool {
	return c.Backend == BackendRedis || c.Backend == BackendTables
}
