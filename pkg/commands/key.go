package commands

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/key"
)

func addKey(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"categories"},
		Short:   "Show the categories and their short names",
		Example: `
taskboard key
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k := key.Key{
				Categories: category.Default(),
				Out:        color.Output,
			}
			return k.Do(context.Background())
		},
	}

	topLevel.AddCommand(cmd)
}
