// Package store persists task collections. Every backend satisfies Store;
// callers never need to know which one is active beyond the ordering policy
// it reports.
package store

import (
	"context"
	"errors"
	"sort"

	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/task"
)

// ErrNotFound is returned when a single-document operation names a task that
// is not stored.
var ErrNotFound = errors.New("store: task not found")

// Store defines the persistence contract for a task collection.
type Store interface {
	// Policy reports how the backend represents intra-category order.
	Policy() order.Policy

	// Load returns the full collection. Sequence stores return it in stored
	// order; keyed stores return it sorted by order key.
	Load(ctx context.Context) ([]task.Task, error)
	// SaveAll replaces the whole collection.
	SaveAll(ctx context.Context, tasks []task.Task) error
	CreateOne(ctx context.Context, t task.Task) error
	UpdateOne(ctx context.Context, t task.Task) error
	DeleteOne(ctx context.Context, id task.ID) error

	// Subscribe delivers the full collection once immediately and again after
	// every change, until ctx is cancelled. The channel is closed on exit.
	Subscribe(ctx context.Context) (<-chan []task.Task, error)

	// LastReset returns the date key of the last daily reset, or "".
	LastReset(ctx context.Context) (string, error)
	SetLastReset(ctx context.Context, key string) error

	Close() error
}

// sortByKey orders documents the way a live query ordered by the order field
// would. Equal keys fall back to creation time and then id; document ids are
// time ordered so this approximates arrival order.
func sortByKey(tasks []task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		switch {
		case a.CreatedAt != nil && b.CreatedAt != nil && !a.CreatedAt.Equal(b.CreatedAt.Time):
			return a.CreatedAt.Before(b.CreatedAt.Time)
		case a.CreatedAt != nil && b.CreatedAt == nil:
			return true
		case a.CreatedAt == nil && b.CreatedAt != nil:
			return false
		}
		return a.ID < b.ID
	})
}
