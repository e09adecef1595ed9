package options

import (
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/category"
)

// CategoryOptions
type CategoryOptions struct {
	Category string
}

func AddCategoryArgs(cmd *cobra.Command, o *CategoryOptions, def category.Name) {
	cmd.Flags().StringVarP(&o.Category, "category", "c", string(def),
		"Category: "+strings.Join(shortNames(), ", ")+".")
}

// Parse resolves the flag against cats. Short labels are accepted.
func (o *CategoryOptions) Parse(cats category.Set) (category.Name, error) {
	return cats.Parse(o.Category)
}

func shortNames() []string {
	cats := category.Default().All()
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Short)
	}
	return out
}

// CategoryCompletions completes category flags and arguments.
func CategoryCompletions(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, s := range shortNames() {
		if strings.HasPrefix(strings.ToLower(s), strings.ToLower(toComplete)) {
			out = append(out, s)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
