package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/store"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 14, 22, 0, 0, 0, time.UTC)
}

func newLocalService(t *testing.T) *Service {
	t.Helper()
	s, err := store.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return NewService(&app.Service{Store: s, Now: fixedNow})
}

func newRedisService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s, err := store.NewRedis(client, "taskboard", "user-1")
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return NewService(&app.Service{Store: s, Now: fixedNow})
}

func TestServiceAddTaskDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newLocalService(t)

	dto, err := svc.AddTask(ctx, "  file expenses ", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if dto == nil {
		t.Fatalf("expected a task")
	}
	if dto.Category != string(category.Urgent) {
		t.Fatalf("expected URGENT, got %s", dto.Category)
	}
	if dto.Text != "file expenses" {
		t.Fatalf("expected trimmed text, got %q", dto.Text)
	}
	if dto.ID != "1" {
		t.Fatalf("expected first local id 1, got %s", dto.ID)
	}
	if dto.CreatedISO == "" {
		t.Fatalf("expected created timestamp")
	}
}

func TestServiceAddBlankIsIgnored(t *testing.T) {
	svc := newLocalService(t)
	dto, err := svc.AddTask(context.Background(), "   ", "ONGOING")
	if err != nil || dto != nil {
		t.Fatalf("expected nil, nil; got %v, %v", dto, err)
	}
	board, err := svc.Board(context.Background())
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if board.Total != 0 {
		t.Fatalf("expected empty board, got %d", board.Total)
	}
}

func TestServiceAcceptsShortCategory(t *testing.T) {
	svc := newLocalService(t)
	short := category.Default().All()[0].Short
	dto, err := svc.AddTask(context.Background(), "standup", short)
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if dto.Category != string(category.Default().All()[0].Name) {
		t.Fatalf("short label %q resolved to %s", short, dto.Category)
	}
	if _, err := svc.AddTask(context.Background(), "x", "nope"); err == nil {
		t.Fatalf("expected unknown category error")
	}
}

func TestServiceMoveAndToggle(t *testing.T) {
	for name, mk := range map[string]func(*testing.T) *Service{
		"local": newLocalService,
		"redis": newRedisService,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := mk(t)
			a, _ := svc.AddTask(ctx, "a", "URGENT")
			b, _ := svc.AddTask(ctx, "b", "URGENT")

			blk, err := svc.MoveTask(ctx, b.ID, "UP")
			if err != nil {
				t.Fatalf("MoveTask: %v", err)
			}
			if blk.Count != 2 || blk.Tasks[0].ID != b.ID || blk.Tasks[1].ID != a.ID {
				t.Fatalf("unexpected order after move: %+v", blk.Tasks)
			}

			done, err := svc.ToggleTask(ctx, a.ID)
			if err != nil {
				t.Fatalf("ToggleTask: %v", err)
			}
			if !done.Completed {
				t.Fatalf("expected completed")
			}
			board, _ := svc.Board(ctx)
			if board.Completed != 1 || board.Total != 2 {
				t.Fatalf("expected 1/2, got %d/%d", board.Completed, board.Total)
			}
		})
	}
}

func TestServiceChangeCategoryAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newRedisService(t)
	a, _ := svc.AddTask(ctx, "a", "URGENT")

	moved, err := svc.ChangeCategory(ctx, a.ID[:8], "MEDIUM PRIORITY")
	if err != nil {
		t.Fatalf("ChangeCategory: %v", err)
	}
	if moved.Category != string(category.Medium) {
		t.Fatalf("expected MEDIUM PRIORITY, got %s", moved.Category)
	}

	deleted, err := svc.DeleteTask(ctx, a.ID)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if deleted != a.ID {
		t.Fatalf("expected %s, got %s", a.ID, deleted)
	}
	if _, err := svc.ToggleTask(ctx, a.ID); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

func TestServiceExportImport(t *testing.T) {
	ctx := context.Background()
	src := newLocalService(t)
	_, _ = src.AddTask(ctx, "standup", "ONGOING")
	_, _ = src.AddTask(ctx, "invoice", "CLIENT WORK")

	doc, err := src.Export(ctx, "json")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(doc, "standup") {
		t.Fatalf("expected task in export:\n%s", doc)
	}

	dst := newRedisService(t)
	res, err := dst.Import(ctx, doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("expected 2 imported, got %d", res.Count)
	}
	blk, err := dst.Block(ctx, "CLIENT WORK")
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if blk.Count != 1 || blk.Tasks[0].Text != "invoice" {
		t.Fatalf("unexpected block: %+v", blk)
	}

	if _, err := dst.Export(ctx, "xml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestServiceBoardRunsDailyReset(t *testing.T) {
	ctx := context.Background()
	svc := newLocalService(t)
	dto, err := svc.AddTask(ctx, "standup", "ONGOING")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if _, err := svc.ToggleTask(ctx, dto.ID); err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if err := svc.App.Store.SetLastReset(ctx, "2026-10-14"); err != nil {
		t.Fatalf("SetLastReset: %v", err)
	}

	blk, err := svc.Block(ctx, "ongoing")
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if blk.Count != 1 || blk.Tasks[0].Completed {
		t.Fatalf("expected standup unchecked for the new day, got %+v", blk.Tasks)
	}
	if key, _ := svc.App.Store.LastReset(ctx); key != "2026-10-15" {
		t.Fatalf("expected marker advanced, got %q", key)
	}

	if _, err := svc.ToggleTask(ctx, dto.ID); err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	board, err := svc.Board(ctx)
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if board.Completed != 1 {
		t.Fatalf("expected same-day read to keep the check, got %d", board.Completed)
	}
}

func TestServiceWithoutStore(t *testing.T) {
	svc := NewService(nil)
	if _, err := svc.Board(context.Background()); err == nil {
		t.Fatalf("expected error without store")
	}
}
