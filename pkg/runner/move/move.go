// Package move provides the runners for reordering tasks and changing their
// category.
package move

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/printers"
	"tableflip.dev/taskboard/pkg/task"
)

// Move swaps a task with its neighbour in Direction, or moves it to the tail
// of Category when Category is set.
type Move struct {
	ID        string
	Direction order.Direction
	Category  category.Name
	JSON      bool
	Out       io.Writer

	Service   *app.Service
}

func (n *Move) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not move, no store")
	}
	id, err := n.Service.Resolve(ctx, n.ID)
	if err != nil {
		return err
	}

	var cat category.Name
	switch {
	case n.Category != "":
		moved, err := n.Service.SetCategory(ctx, id, n.Category)
		if err != nil {
			return err
		}
		cat = moved.Category
	case n.Direction != "":
		if err := n.Service.Move(ctx, id, n.Direction); err != nil {
			return err
		}
	default:
		return errors.New("nothing to do: need a direction or a category")
	}

	board, err := n.Service.Board(ctx)
	if err != nil {
		return err
	}
	if cat == "" {
		cat = categoryOf(board, id)
	}
	blk, _ := board.Block(cat)
	if n.JSON {
		return printers.JSON(n.Out, blk)
	}
	pp := printers.PrettyPrint{ShowID: true, Out: n.Out}
	pp.NewLine()
	pp.Block(blk)
	return nil
}

func categoryOf(b order.Board, id task.ID) category.Name {
	for _, blk := range b.Blocks {
		for _, t := range blk.Tasks {
			if t.ID == id {
				return blk.Name
			}
		}
	}
	return ""
}
