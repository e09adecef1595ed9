// Package complete provides the runner logic for toggling tasks done.
package complete

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/printers"
)

// Complete flips the completed flag of a task.
type Complete struct {
	ID   string
	JSON bool
	Out  io.Writer

	Service *app.Service
}

// Do executes the toggle for the configured task id or id prefix.
func (n *Complete) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not complete, no store")
	}
	id, err := n.Service.Resolve(ctx, n.ID)
	if err != nil {
		return err
	}
	t, err := n.Service.Toggle(ctx, id)
	if err != nil {
		return err
	}
	if n.JSON {
		return printers.JSON(n.Out, t)
	}

	board, err := n.Service.Board(ctx)
	if err != nil {
		return err
	}
	pp := printers.PrettyPrint{ShowID: true, Out: n.Out}
	pp.NewLine()
	pp.Progress(board)
	if blk, ok := board.Block(t.Category); ok {
		pp.NewLine()
		pp.Block(blk)
	}
	return nil
}
