package reset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/printers"
)

// Reset runs the daily reset check on demand.
type Reset struct {
	JSON bool
	Out  io.Writer

	Service *app.Service
}

func (n *Reset) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not reset, no store")
	}
	res, err := n.Service.ResetIfDue(ctx)
	if err != nil {
		return err
	}
	if n.JSON {
		return printers.JSON(n.Out, map[string]interface{}{
			"date":    res.DateKey,
			"changed": res.Changed,
			"cleared": len(res.Cleared),
		})
	}
	if !res.Changed {
		_, _ = fmt.Fprintf(n.Out, "already reset for %s\n", res.DateKey)
		return nil
	}
	_, _ = fmt.Fprintf(n.Out, "reset %d task(s) for %s\n", len(res.Cleared), res.DateKey)
	return nil
}
