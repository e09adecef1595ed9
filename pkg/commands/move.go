package commands

import (
	"errors"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/runner/move"
)

func addMove(topLevel *cobra.Command) {
	addMoveDirection(topLevel, order.Up, "Swap a task with the one above it")
	addMoveDirection(topLevel, order.Down, "Swap a task with the one below it")
}

func addMoveDirection(topLevel *cobra.Command, dir order.Direction, short string) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   string(dir) + " <task id>",
		Short: short,
		Long: short + `.

Moving the first task up or the last task down does nothing.`,
		Example: `
taskboard ` + string(dir) + ` 3
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires one task id")
			}
			io.ID = args[0]
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			defer s.Close()

			r := move.Move{
				ID:        io.ID,
				Direction: dir,
				JSON:      output.JSON,
				Out:       color.Output,
				Service:   s.Service,
			}
			return output.HandleError(r.Do(cmd.Context()))
		},
	}

	addOutputArg(cmd)
	topLevel.AddCommand(cmd)
}

func addCategory(topLevel *cobra.Command) {
	io := &options.IDOptions{}
	var target string

	cmd := &cobra.Command{
		Use:     "mv <task id> <category>",
		Aliases: []string{"category"},
		Short:   "Move a task to the end of another category",
		Example: `
taskboard mv 3 high
taskboard mv 0190c1d2 "client work"
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.New("requires a task id and a category")
			}
			io.ID = args[0]
			target = strings.Join(args[1:], " ")
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return options.CategoryCompletions(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			defer s.Close()

			cat, err := s.Service.CategorySet().Parse(target)
			if err != nil {
				return output.HandleError(err)
			}
			r := move.Move{
				ID:       io.ID,
				Category: cat,
				JSON:     output.JSON,
				Out:      color.Output,
				Service:  s.Service,
			}
			return output.HandleError(r.Do(cmd.Context()))
		},
	}

	addOutputArg(cmd)
	topLevel.AddCommand(cmd)
}
