package info

import (
	"context"
	"fmt"
	"io"
	"os"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/store"
)

type Info struct {
	Config  *store.Config
	Account string
	Out     io.Writer

	Service *app.Service
}

func (n *Info) Do(ctx context.Context) error {
	w := n.Out
	if override := os.Getenv("TASKBOARD_CONFIG_PATH"); override != "" {
		_, _ = fmt.Fprintln(w, "TASKBOARD_CONFIG_PATH found on env, using", override)
	} else {
		_, _ = fmt.Fprintln(w, "TASKBOARD_CONFIG_PATH env var not set")
	}

	if n.Config == nil {
		var err error
		n.Config, err = store.LoadConfig()
		if err != nil {
			return err
		}
	}
	_, _ = fmt.Fprintln(w, "Config.backend:", n.Config.Backend)
	switch n.Config.Backend {
	case store.BackendLocal:
		_, _ = fmt.Fprintln(w, "Config.path:", n.Config.BasePath())
	case store.BackendRedis:
		_, _ = fmt.Fprintln(w, "Config.redis.addr:", n.Config.Redis.Addr)
	case store.BackendTables:
		_, _ = fmt.Fprintln(w, "Config.tables.table:", n.Config.Tables.Table)
	}
	if n.Account != "" {
		_, _ = fmt.Fprintln(w, "Account:", n.Account)
	}

	if n.Service == nil || n.Service.Store == nil {
		return fmt.Errorf("failed to open the store")
	}
	_, _ = fmt.Fprintln(w, "Ordering:", n.Service.Store.Policy())

	last, err := n.Service.Store.LastReset(ctx)
	if err != nil {
		return err
	}
	if last == "" {
		last = "never"
	}
	_, _ = fmt.Fprintln(w, "Last reset:", last)

	board, err := n.Service.Board(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "Tasks: %d (%d done)\n", board.Total, board.Completed)
	for _, blk := range board.Blocks {
		_, _ = fmt.Fprintf(w, "  %-16s %d\n", blk.Name, len(blk.Tasks))
	}
	return nil
}
