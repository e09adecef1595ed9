package get

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/printers"
)

type Get struct {
	ShowID bool
	Table  bool
	JSON   bool
	// Category limits output to one block when set.
	Category category.Name
	Out      io.Writer

	Service  *app.Service
}

func (n *Get) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not get, no store")
	}
	board, err := n.Service.Board(ctx)
	if err != nil {
		return err
	}
	if n.Category != "" {
		blk, ok := board.Block(n.Category)
		if !ok {
			return errors.New("unknown category " + string(n.Category))
		}
		board = order.Board{Blocks: []order.Block{blk}, Total: len(blk.Tasks)}
		for _, t := range blk.Tasks {
			if t.Completed {
				board.Completed++
			}
		}
	}

	if n.JSON {
		return printers.JSON(n.Out, board)
	}
	pp := printers.PrettyPrint{ShowID: n.ShowID, Out: n.Out}
	if n.Table {
		pp.Table(board)
		return nil
	}
	pp.NewLine()
	pp.Board(board)
	return nil
}
