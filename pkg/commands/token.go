package commands

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/account"
	"tableflip.dev/taskboard/pkg/timeutil"
)

func addToken(topLevel *cobra.Command) {
	ttl := "30d"

	cmd := &cobra.Command{
		Use:   "token <account>",
		Short: "Sign a bearer token for an account",
		Long: `Sign an HS256 bearer token whose subject is the given account, using
account.secret. Set the result as account.token on a client, or send it as
"Authorization: Bearer <token>" to taskboard serve.`,
		Example: `
taskboard token alice --ttl 30d
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Account.Secret == "" {
				return errors.New("account.secret is not configured")
			}
			lifetime, err := timeutil.ParseTTL(ttl)
			if err != nil {
				return err
			}
			tok, err := account.Issue(cfg.Account.Secret, args[0], lifetime, time.Now())
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"account": args[0], "expires": timeutil.FormatTTL(lifetime)}).Debug("signed token")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&ttl, "ttl", ttl, "Token lifetime such as 12h, 30d or 1w2d; 'never' for no expiry.")
	topLevel.AddCommand(cmd)
}
