// Package prompt asks for task details interactively.
package prompt

import (
	"errors"
	"io"
	"strings"

	"github.com/manifoldco/promptui"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/task"
)

// Prompter reads answers from In and draws on Out.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// Text asks for task text. Blank answers are rejected at the prompt.
func (p Prompter) Text(label string) (string, error) {
	templates := &promptui.PromptTemplates{
		Prompt:  "{{ . }}: ",
		Valid:   "{{ . | green }}: ",
		Invalid: "{{ . | red }}: ",
		Success: "{{ . | bold }}: ",
	}

	pr := promptui.Prompt{
		Label:     label,
		Templates: templates,
		Validate: func(input string) error {
			if task.Blank(input) {
				return errors.New("empty")
			}
			return nil
		},
		Stdin:  io.NopCloser(p.In),
		Stdout: nopCloser{p.Out},
	}
	result, err := pr.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}

// Category asks the user to pick one of cats, starting on def.
func (p Prompter) Category(cats category.Set, def category.Name) (category.Name, error) {
	all := cats.All()
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "➜  {{ .Name | bold }} {{ .Short | green }}",
		Inactive: "   {{ .Name }} {{ .Short | cyan }}",
		Selected: "{{ .Name | bold }}",
	}

	sel := promptui.Select{
		HideHelp:  true,
		Label:     "Category",
		Items:     all,
		Templates: templates,
		Size:      len(all),
		CursorPos: max(cats.Index(def), 0),
		Searcher:  searcher(all),
		Stdin:     io.NopCloser(p.In),
		Stdout:    nopCloser{p.Out},
	}
	i, _, err := sel.Run()
	if err != nil {
		return "", err
	}
	return all[i].Name, nil
}

// searcher matches input against a category's name and short label, ignoring
// case and spaces.
func searcher(all []category.Category) func(string, int) bool {
	squash := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(s), " ", "")
	}
	return func(input string, index int) bool {
		c := all[index]
		in := squash(input)
		return strings.Contains(squash(string(c.Name)), in) || strings.Contains(squash(c.Short), in)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
