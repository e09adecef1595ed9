package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

var (
	output = &base.OutputOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "taskboard",
		Short: base.Wrap80("Categorized daily task tracking on the command line."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, listFlags{})
		},
	}

	AddCommands(cmd)
	return cmd
}

func addOutputArg(cmd *cobra.Command) {
	base.AddOutputArg(cmd, output)
}

func AddCommands(topLevel *cobra.Command) {
	addList(topLevel)
	addKey(topLevel)
	addAdd(topLevel)
	addComplete(topLevel)
	addRemove(topLevel)
	addMove(topLevel)
	addCategory(topLevel)
	addExport(topLevel)
	addImport(topLevel)
	addReset(topLevel)
	addWatch(topLevel)
	addServe(topLevel)
	addMCP(topLevel)
	addToken(topLevel)
	addInfo(topLevel)
	addVersion(topLevel)
	addUpgrade(topLevel)
	addCompletions(topLevel)
}
