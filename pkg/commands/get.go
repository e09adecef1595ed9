package commands

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/runner/get"
)

type listFlags struct {
	ids      options.IDOptions
	category string
}

func addList(topLevel *cobra.Command) {
	f := listFlags{}

	cmd := &cobra.Command{
		Use:     "list [category]",
		Aliases: []string{"ls", "get"},
		Short:   "Show the board",
		Long: `Show every category with its tasks, in order, and overall progress.

ONGOING tasks are unchecked once per day, at midnight Sydney time.`,
		Example: `
taskboard list
taskboard ls ongoing --show-id
taskboard list --table
`,
		ValidArgsFunction: options.CategoryCompletions,
		Args:              cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if len(args) == 1 {
				f.category = strings.TrimSpace(args[0])
			}
			return runList(cmd, f)
		},
	}

	options.AddShowIDArgs(cmd, &f.ids)
	addOutputArg(cmd)
	topLevel.AddCommand(cmd)
}

func runList(cmd *cobra.Command, f listFlags) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return output.HandleError(err)
	}
	defer s.Close()

	var cat category.Name
	if f.category != "" {
		if cat, err = s.Service.CategorySet().Parse(f.category); err != nil {
			return output.HandleError(err)
		}
	}
	r := get.Get{
		ShowID:   f.ids.ShowID,
		Table:    f.ids.Table,
		JSON:     output.JSON,
		Category: cat,
		Out:      color.Output,
		Service:  s.Service,
	}
	return output.HandleError(r.Do(cmd.Context()))
}
