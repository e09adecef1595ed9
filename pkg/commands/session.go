package commands

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"tableflip.dev/taskboard/pkg/account"
	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/store"
)

// session is an opened store plus the settings it came from.
type session struct {
	Config  *store.Config
	Account string
	Service *app.Service
}

func (s *session) Close() {
	if s != nil && s.Service != nil && s.Service.Store != nil {
		_ = s.Service.Store.Close()
	}
}

func loadConfig() (*store.Config, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, keeping default")
	}
	return cfg, nil
}

// openSession opens the store and applies the daily reset when one is due, so
// every command sees today's board. A failed reset is logged and retried on
// the next run.
func openSession(ctx context.Context) (*session, error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.Service.ResetIfDue(ctx); err != nil {
		log.WithError(err).Warn("daily reset did not complete, will retry")
	}
	return s, nil
}

// openStore loads configuration, resolves the account for synced backends and
// opens the store.
func openStore(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var acct string
	if cfg.Synced() {
		acct, err = account.Resolve(ctx, cfg.Account)
		if err != nil {
			return nil, fmt.Errorf("the %s backend needs an account: %w", cfg.Backend, err)
		}
	}

	st, err := store.Open(ctx, cfg, acct)
	if err != nil {
		return nil, err
	}
	svc := &app.Service{
		Store: st,
		Log:   log.WithField("backend", cfg.Backend),
	}
	return &session{Config: cfg, Account: acct, Service: svc}, nil
}
