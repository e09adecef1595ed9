package commands

import (
	"errors"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/runner/complete"
	"tableflip.dev/taskboard/pkg/runner/remove"
)

func addComplete(topLevel *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "done <task id>",
		Aliases: []string{"toggle", "complete"},
		Short:   "Check or uncheck a task",
		Example: `
taskboard done 3
taskboard toggle 0190c1d2
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a task id")
			}
			io.ID = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			defer s.Close()

			r := complete.Complete{
				ID:      io.ID,
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

func addRemove(topLevel *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "rm <task id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a task",
		Example: `
taskboard rm 3
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a task id")
			}
			io.ID = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			defer s.Close()

			r := remove.Remove{
				ID:      io.ID,
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
