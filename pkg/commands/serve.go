package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/account"
	"tableflip.dev/taskboard/pkg/runner/web"
	"tableflip.dev/taskboard/pkg/store"
)

func addServe(topLevel *cobra.Command) {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Long: `Serve the board as a JSON API with a server-sent event stream at
/api/stream.

When account.secret or account.jwks-url is configured every request must
carry a bearer token, and each token subject gets its own tasks. Synced
backends require this.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			if port < 0 || port > 65535 {
				return fmt.Errorf("invalid port %d", port)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			srv := &web.Server{
				Addr: net.JoinHostPort(host, strconv.Itoa(port)),
				Log:  log.StandardLogger(),
				OnListening: func(a net.Addr) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "taskboard API listening on http://%s\n", a)
				},
			}

			if cfg.Account.Verifies() {
				v, err := account.NewVerifier(cfg.Account)
				if err != nil {
					return err
				}
				defer v.Close()
				srv.Auth = v
			} else if cfg.Synced() {
				return errors.New("serve needs account.secret or account.jwks-url for synced backends")
			}
			srv.Open = storeOpener(cfg, srv.Auth != nil)

			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Interface to listen on.")
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (use 0 for random).")
	topLevel.AddCommand(cmd)
}

// storeOpener opens per-account stores. With accounts the local backend keeps
// each account in its own directory.
func storeOpener(cfg *store.Config, perAccount bool) web.Opener {
	return func(ctx context.Context, acct string) (store.Store, error) {
		c := *cfg
		if perAccount && c.Backend == store.BackendLocal {
			dir := url.PathEscape(acct)
			if dir == "" || dir == "." || dir == ".." {
				return nil, fmt.Errorf("invalid account %q", acct)
			}
			c.Path = filepath.Join(cfg.Path, "accounts", dir)
		}
		return store.Open(ctx, &c, acct)
	}
}
