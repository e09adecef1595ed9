package commands

import (
	"errors"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/prompt"
	"tableflip.dev/taskboard/pkg/runner/add"
)

func addAdd(topLevel *cobra.Command) {
	co := &options.CategoryOptions{}
	var (
		text        string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "add <task>",
		Short: "Add a task to the end of a category",
		Example: `
taskboard add send the invoice
taskboard add -c ongoing stand up
taskboard add -i
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 && !interactive {
				return errors.New("requires a task")
			}
			text = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return output.HandleError(err)
			}
			defer s.Close()

			cat, err := co.Parse(s.Service.CategorySet())
			if err != nil {
				return output.HandleError(err)
			}
			if interactive {
				p := prompt.Prompter{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
				if text == "" {
					if text, err = p.Text("Task"); err != nil {
						return err
					}
				}
				if cat, err = p.Category(s.Service.CategorySet(), cat); err != nil {
					return err
				}
			}
			r := add.Add{
				Text:     text,
				Category: cat,
				JSON:     output.JSON,
				Out:      color.Output,
				Service:  s.Service,
			}
			return output.HandleError(r.Do(cmd.Context()))
		},
	}

	options.AddCategoryArgs(cmd, co, category.Urgent)
	_ = cmd.RegisterFlagCompletionFunc("category", options.CategoryCompletions)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for the task and its category.")
	addOutputArg(cmd)
	topLevel.AddCommand(cmd)
}
