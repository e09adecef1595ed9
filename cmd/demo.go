package main

import (
	"context"
	"fmt"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/printers"
	"tableflip.dev/taskboard/pkg/store"
)

var demo = []struct {
	text string
	cat  category.Name
}{
	{"stand up", category.Ongoing},
	{"inbox zero", category.Ongoing},
	{"send the March invoice", category.ClientWork},
	{"renew the domain", category.Urgent},
	{"book flights", category.High},
	{"sort the garage", category.Medium},
}

func main() {
	ctx := context.Background()
	cfg, err := store.LoadConfig()
	if err != nil {
		panic(err)
	}
	if cfg.Backend != store.BackendLocal {
		panic(fmt.Sprintf("demo only seeds the local backend, got %s", cfg.Backend))
	}
	s, err := store.Open(ctx, cfg, "")
	if err != nil {
		panic(err)
	}
	defer s.Close()

	svc := &app.Service{Store: s}
	for _, d := range demo {
		if _, err := svc.Add(ctx, d.text, d.cat); err != nil {
			panic(err)
		}
	}

	board, err := svc.Board(ctx)
	if err != nil {
		panic(err)
	}
	pp := printers.PrettyPrint{ShowID: true}
	pp.Board(board)
}
