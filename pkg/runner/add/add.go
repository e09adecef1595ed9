package add

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/printers"
)

type Add struct {
	Text     string
	Category category.Name
	JSON     bool
	Out      io.Writer

	Service  *app.Service
}

func (n *Add) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not add, no store")
	}
	t, err := n.Service.Add(ctx, n.Text, n.Category)
	if err != nil {
		return err
	}
	if t == nil {
		// Blank text is ignored.
		return nil
	}
	if n.JSON {
		return printers.JSON(n.Out, t)
	}

	board, err := n.Service.Board(ctx)
	if err != nil {
		return err
	}
	pp := printers.PrettyPrint{Out: n.Out}
	if blk, ok := board.Block(t.Category); ok {
		pp.NewLine()
		pp.Block(blk)
	}
	return nil
}
