package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/runner/watch"
)

func addWatch(topLevel *cobra.Command) {
	io := &options.IDOptions{}
	redraw := true

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Redraw the board whenever tasks change",
		Long: `Redraw the board whenever tasks change, including changes made by other
terminals or devices sharing the same store. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			defer s.Close()

			r := watch.Watch{
				ShowID:  io.ShowID,
				JSON:    output.JSON,
				Clear:   redraw && !output.JSON,
				Out:     color.Output,
				Service: s.Service,
			}
			return output.HandleError(r.Do(cmd.Context()))
		},
	}

	options.AddShowIDArgs(cmd, io)
	cmd.Flags().BoolVar(&redraw, "clear", true, "Clear the screen before each redraw.")
	addOutputArg(cmd)
	topLevel.AddCommand(cmd)
}
