package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/runner/reset"
)

func addReset(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Uncheck ONGOING tasks if today's reset has not run yet",
		Long: `Uncheck ONGOING tasks if today's reset has not run yet.

Every command does this on start; reset reports what happened. Days are
counted in Australia/Sydney time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			s, err := openStore(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			defer s.Close()

			r := reset.Reset{
				JSON:    output.JSON,
				Out:     color.Output,
				Service: s.Service,
			}
			return output.HandleError(r.Do(cmd.Context()))
		},
	}

	addOutputArg(cmd)
	topLevel.AddCommand(cmd)
}
