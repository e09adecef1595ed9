package commands

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/interchange"
	"tableflip.dev/taskboard/pkg/runner/transfer"
)

func addExport(topLevel *cobra.Command) {
	to := &options.TransferOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task to a portable document",
		Example: `
taskboard export > tasks.json
taskboard export -f yaml -o tasks.yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			format, err := interchange.ParseFormat(to.Format)
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			r := transfer.Export{
				Format:  format,
				File:    to.File,
				Out:     cmd.OutOrStdout(),
				Service: s.Service,
			}
			return r.Do(cmd.Context())
		},
	}

	options.AddExportArgs(cmd, to)
	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command) {
	to := &options.TransferOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace every task with the contents of an exported document",
		Long: `Replace every task with the contents of an exported document.

The current tasks are discarded. A malformed document is rejected before
anything is changed. ONGOING tasks are unchecked on import.`,
		Example: `
taskboard import -f tasks.json
taskboard export | ssh laptop taskboard import
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			var in io.Reader = cmd.InOrStdin()
			if to.File != "" && to.File != "-" {
				f, err := os.Open(to.File)
				if err != nil {
					return output.HandleError(err)
				}
				defer f.Close()
				in = f
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			defer s.Close()

			r := transfer.Import{
				In:      in,
				JSON:    output.JSON,
				Out:     color.Output,
				Service: s.Service,
			}
			return output.HandleError(r.Do(cmd.Context()))
		},
	}

	options.AddImportArgs(cmd, to)
	addOutputArg(cmd)
	topLevel.AddCommand(cmd)
}
