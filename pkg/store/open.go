package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Open returns the backend selected by cfg. Synced backends are scoped to
// account; the local backend ignores it.
func Open(ctx context.Context, cfg *Config, account string) (Store, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocal(cfg.BasePath())

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("store: connect redis %s: %w", cfg.Redis.Addr, err)
		}
		s, err := NewRedis(client, cfg.Redis.Prefix, account)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return s, nil

	case BackendTables:
		client, err := NewTablesClient(cfg.Tables.ConnectionString, cfg.Tables.Table)
		if err != nil {
			return nil, err
		}
		s, err := NewTables(client, account, cfg.Tables.PollInterval)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureTable(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
}
