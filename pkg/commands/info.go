package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/runner/info"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about configuration and where tasks are stored.",
		Example: `
taskboard info
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			s, err := openStore(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			defer s.Close()

			r := info.Info{
				Config:  s.Config,
				Account: s.Account,
				Out:     color.Output,
				Service: s.Service,
			}
			return output.HandleError(r.Do(cmd.Context()))
		},
	}

	topLevel.AddCommand(cmd)
}
