package printers

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/task"
)

type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
}

const (
	barWidth = 20
	idWidth  = 10
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out != nil {
		return pp.Out
	}
	return color.Output
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

// Board prints the progress bar followed by every category block.
func (pp *PrettyPrint) Board(b order.Board) {
	pp.Progress(b)
	pp.NewLine()
	for _, blk := range b.Blocks {
		pp.Block(blk)
	}
}

// Progress prints "[#####---------------] 2/8 done".
func (pp *PrettyPrint) Progress(b order.Board) {
	c := color.New(color.Bold)
	_, _ = c.Fprintf(pp.out(), "%s %d/%d done\n", ProgressBar(b.Completed, b.Total, barWidth), b.Completed, b.Total)
}

func (pp *PrettyPrint) Block(blk order.Block) {
	w := pp.out()
	attrs := append([]color.Attribute{color.Bold, color.Underline}, blk.Category.Color...)
	t := color.New(attrs...)
	f := color.New(color.Faint)

	if pp.ShowID {
		_, _ = fmt.Fprint(w, strings.Repeat(" ", idWidth+1))
	}
	_, _ = t.Fprint(w, string(blk.Name))
	_, _ = f.Fprintf(w, " - %d", len(blk.Tasks))
	if blk.Category.ResetsDaily {
		_, _ = f.Fprint(w, " (resets daily)")
	}
	_, _ = fmt.Fprintln(w, "")

	if len(blk.Tasks) == 0 {
		i := color.New(color.Faint, color.Italic)
		if pp.ShowID {
			_, _ = fmt.Fprint(w, strings.Repeat(" ", idWidth+1))
		}
		_, _ = i.Fprint(w, " none\n\n")
		return
	}
	for _, tk := range blk.Tasks {
		pp.Task(tk)
	}
	pp.NewLine()
}

// Task prints a single line for tk.
func (pp *PrettyPrint) Task(tk task.Task) {
	w := pp.out()
	if pp.ShowID {
		y := color.New(color.FgHiYellow, color.Italic, color.Faint)
		_, _ = y.Fprint(w, padID(tk.ID))
		_, _ = fmt.Fprint(w, " ")
	}
	if tk.Completed {
		d := color.New(color.Faint, color.CrossedOut)
		_, _ = fmt.Fprint(w, "[x] ")
		_, _ = d.Fprintln(w, tk.Text)
		return
	}
	_, _ = fmt.Fprintf(w, "[ ] %s\n", tk.Text)
}

// Table prints every task with its full id, for scripting and for picking ids
// to pass to other commands.
func (pp *PrettyPrint) Table(b order.Board) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow("ID", "CATEGORY", "DONE", "ORDER", "TEXT")
	for _, blk := range b.Blocks {
		for _, tk := range blk.Tasks {
			done := ""
			if tk.Completed {
				done = "x"
			}
			ord := ""
			if tk.Order > 0 {
				ord = strconv.Itoa(tk.Order)
			}
			tbl.AddRow(string(tk.ID), blk.Category.Short, done, ord, tk.Text)
		}
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// ProgressBar renders done/total as a fixed width bar.
func ProgressBar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// padID shortens long document ids to their first characters; any unique
// prefix is accepted wherever an id is expected.
func padID(id task.ID) string {
	s := string(id)
	if len(s) > idWidth {
		s = s[:idWidth]
	}
	return s + strings.Repeat(" ", idWidth-len(s))
}
