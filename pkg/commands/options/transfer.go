package options

import (
	"github.com/spf13/cobra"
)

// TransferOptions
type TransferOptions struct {
	Format string
	File   string
}

func AddExportArgs(cmd *cobra.Command, o *TransferOptions) {
	cmd.Flags().StringVarP(&o.Format, "format", "f", "json",
		"Export format. One of 'json' or 'yaml'.")
	cmd.Flags().StringVarP(&o.File, "output", "o", "",
		"Write to a file instead of stdout.")
}

func AddImportArgs(cmd *cobra.Command, o *TransferOptions) {
	cmd.Flags().StringVarP(&o.File, "file", "f", "-",
		"File to import, or '-' for stdin.")
}
