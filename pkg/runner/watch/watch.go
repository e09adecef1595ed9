// Package watch re-prints the board whenever the store changes.
package watch

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/printers"
)

const clearScreen = "\033[H\033[2J"

type Watch struct {
	ShowID bool
	JSON   bool
	// Clear redraws in place instead of appending.
	Clear   bool
	Out     io.Writer

	Service *app.Service
}

// Do blocks until ctx is done or the store closes the feed.
func (n *Watch) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not watch, no store")
	}
	boards, err := n.Service.Watch(ctx)
	if err != nil {
		return err
	}
	pp := printers.PrettyPrint{ShowID: n.ShowID, Out: n.Out}
	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-boards:
			if !ok {
				return nil
			}
			if n.JSON {
				if err := printers.JSON(n.Out, b); err != nil {
					return err
				}
				continue
			}
			if n.Clear {
				_, _ = io.WriteString(n.Out, clearScreen)
			}
			pp.NewLine()
			pp.Board(b)
		}
	}
}
