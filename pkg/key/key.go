// Package key prints the category legend.
package key

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/taskboard/pkg/category"
)

type Key struct {
	Categories category.Set
	Out        io.Writer
}

func (k *Key) Do(_ context.Context) error {
	bold := color.New(color.Bold).SprintFunc()

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold("Category"), bold("Short"), bold("Daily reset"))
	for _, c := range k.Categories.All() {
		resets := ""
		if c.ResetsDaily {
			resets = "yes"
		}
		name := color.New(c.Color...).Sprint(string(c.Name))
		tbl.AddRow(name, c.Short, resets)
	}

	_, _ = fmt.Fprintln(k.Out, color.New(color.Bold, color.Underline).Sprint("\nCategories"))
	_, _ = fmt.Fprintln(k.Out, tbl)
	_, _ = fmt.Fprintln(k.Out, "Categories are shown in this order. New tasks go to URGENT unless -c is given.")
	return nil
}
