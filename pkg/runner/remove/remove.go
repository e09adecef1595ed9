package remove

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/printers"
)

type Remove struct {
	ID   string
	JSON bool
	Out  io.Writer

	Service *app.Service
}

func (n *Remove) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not remove, no store")
	}
	id, err := n.Service.Resolve(ctx, n.ID)
	if err != nil {
		return err
	}
	if err := n.Service.Delete(ctx, id); err != nil {
		return err
	}
	if n.JSON {
		return printers.JSON(n.Out, map[string]string{"deleted": string(id)})
	}
	_, _ = fmt.Fprintf(n.Out, "deleted %s\n", id)
	return nil
}
