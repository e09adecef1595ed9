// Package transfer provides the export and import runners.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/interchange"
	"tableflip.dev/taskboard/pkg/printers"
)

// Export writes the collection to File, or Out when File is empty.
type Export struct {
	Format  interchange.Format
	File    string
	Out     io.Writer

	Service *app.Service
}

func (n *Export) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not export, no store")
	}
	data, err := n.Service.Export(ctx, n.Format)
	if err != nil {
		return err
	}
	if n.File == "" || n.File == "-" {
		_, err = n.Out.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(n.File, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", n.File, err)
	}
	return nil
}

// Import replaces the collection with the document read from In.
type Import struct {
	In      io.Reader
	JSON    bool
	Out     io.Writer

	Service *app.Service
}

func (n *Import) Do(ctx context.Context) error {
	if n.Service == nil {
		return errors.New("can not import, no store")
	}
	data, err := io.ReadAll(n.In)
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}
	res, err := n.Service.Import(ctx, data)
	if err != nil {
		return err
	}
	if n.JSON {
		return printers.JSON(n.Out, res)
	}
	_, _ = fmt.Fprintln(n.Out, res.String())
	return nil
}
