package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/interchange"
	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/reset"
	"tableflip.dev/taskboard/pkg/store"
	"tableflip.dev/taskboard/pkg/task"
)

// Service provides the task operations shared by the CLI, the MCP server and
// the HTTP API. It composes the ordering engine, the daily reset policy and
// the interchange codec over whichever store is configured.
type Service struct {
	Store      store.Store
	Categories category.Set
	// Now defaults to time.Now.
	Now func() time.Time
	// Log defaults to the standard logrus logger.
	Log logrus.FieldLogger
}

var (
	ErrNotFound = errors.New("app: task not found")
	errNoStore  = errors.New("app: no store configured")
)

const (
	// importLimit bounds concurrent document writes during an import.
	importLimit  = 8
	defaultAddTo = category.Urgent
)

// WriteFailure reports individual document writes that did not land. Writes
// are not retried; the store may diverge from the intended state until a later
// write touches the same task.
type WriteFailure struct {
	Op     string
	Failed []task.ID
	Err    error
}

func (w *WriteFailure) Error() string {
	return fmt.Sprintf("app: %s: %d write(s) failed: %v", w.Op, len(w.Failed), w.Err)
}

func (w *WriteFailure) Unwrap() error {
	return w.Err
}

// ImportResult summarises a completed import.
type ImportResult struct {
	Count  int    `json:"count"`
	Source string `json:"source"`
}

func (r ImportResult) String() string {
	return fmt.Sprintf("Successfully imported %d tasks from %s", r.Count, r.Source)
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil {
		return errNoStore
	}
	return nil
}

func (s *Service) categories() category.Set {
	if s.Categories.Len() == 0 {
		return category.Default()
	}
	return s.Categories
}

// CategorySet returns the categories in use, the defaults if none were set.
func (s *Service) CategorySet() category.Set {
	return s.categories()
}

func (s *Service) engine() order.Engine {
	return order.New(s.categories(), s.Store.Policy())
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() logrus.FieldLogger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

// Board returns the collection grouped by category.
func (s *Service) Board(ctx context.Context) (order.Board, error) {
	if err := s.ready(); err != nil {
		return order.Board{}, err
	}
	tasks, err := s.Store.Load(ctx)
	if err != nil {
		return order.Board{}, err
	}
	return s.engine().Group(tasks), nil
}

// Resolve finds the task a user means by ref: an exact id, or an unambiguous
// id prefix.
func (s *Service) Resolve(ctx context.Context, ref string) (task.ID, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNotFound
	}
	tasks, err := s.Store.Load(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := task.Find(tasks, task.ID(ref)); ok {
		return task.ID(ref), nil
	}
	var match task.ID
	for _, t := range tasks {
		if !strings.HasPrefix(string(t.ID), ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("app: %q matches more than one task", ref)
		}
		match = t.ID
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return match, nil
}

// Add creates a task at the tail of cat. Blank text is ignored and returns a
// nil task with no error. An empty cat means URGENT.
func (s *Service) Add(ctx context.Context, text string, cat category.Name) (*task.Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if task.Blank(text) {
		return nil, nil
	}
	if cat == "" {
		cat = defaultAddTo
	}
	if !s.categories().Contains(cat) {
		return nil, fmt.Errorf("app: unknown category %q", cat)
	}
	tasks, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}

	var id task.ID
	if s.Store.Policy() == order.Keyed {
		if id, err = task.NewDocumentID(); err != nil {
			return nil, err
		}
	} else {
		id = task.NextLocalID(tasks)
	}

	change, _ := s.engine().Insert(tasks, task.New(id, strings.TrimSpace(text), cat, s.now()))
	if err := s.commit(ctx, "add", change, id); err != nil {
		return nil, err
	}
	added, _ := task.Find(change.Tasks, id)
	s.log().WithFields(logrus.Fields{"task": id, "category": cat}).Debug("added task")
	return &added, nil
}

// Toggle flips the completed flag of id.
func (s *Service) Toggle(ctx context.Context, id task.ID) (*task.Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	tasks, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := task.IndexOf(tasks, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := task.Clone(tasks)
	out[i].Completed = !out[i].Completed
	if err := s.commit(ctx, "toggle", order.Change{Tasks: out, Touched: []task.Task{out[i]}}); err != nil {
		return nil, err
	}
	toggled := out[i]
	return &toggled, nil
}

// Delete removes id. Siblings are never renumbered.
func (s *Service) Delete(ctx context.Context, id task.ID) error {
	if err := s.ready(); err != nil {
		return err
	}
	tasks, err := s.Store.Load(ctx)
	if err != nil {
		return err
	}
	i := task.IndexOf(tasks, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.Store.Policy() == order.Keyed {
		if err := s.Store.DeleteOne(ctx, id); err != nil {
			return &WriteFailure{Op: "delete", Failed: []task.ID{id}, Err: err}
		}
		return nil
	}
	out := task.Clone(tasks)
	out = append(out[:i], out[i+1:]...)
	return s.saveSequence(ctx, out)
}

// Move swaps id with its neighbour in dir. Moving past either end of the
// category is a no-op.
func (s *Service) Move(ctx context.Context, id task.ID, dir order.Direction) error {
	if err := s.ready(); err != nil {
		return err
	}
	tasks, err := s.Store.Load(ctx)
	if err != nil {
		return err
	}
	if task.IndexOf(tasks, id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	change, err := s.engine().Reorder(tasks, id, dir)
	if err != nil {
		return err
	}
	return s.commit(ctx, "move", change)
}

// SetCategory moves id to the tail of target.
func (s *Service) SetCategory(ctx context.Context, id task.ID, target category.Name) (*task.Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !s.categories().Contains(target) {
		return nil, fmt.Errorf("app: unknown category %q", target)
	}
	tasks, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if task.IndexOf(tasks, id) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	change, err := s.engine().ChangeCategory(tasks, id, target)
	if err != nil {
		return nil, err
	}
	if err := s.commit(ctx, "change category", change); err != nil {
		return nil, err
	}
	moved, _ := task.Find(change.Tasks, id)
	s.log().WithFields(logrus.Fields{"task": id, "category": target}).Debug("changed category")
	return &moved, nil
}

// ResetIfDue applies the daily reset when the stored marker is not today. The
// marker only advances once every cleared task has been written, so a failed
// reset is retried on the next call.
func (s *Service) ResetIfDue(ctx context.Context) (reset.Result, error) {
	if err := s.ready(); err != nil {
		return reset.Result{}, err
	}
	today := reset.DateKey(s.now())
	last, err := s.Store.LastReset(ctx)
	if err != nil {
		return reset.Result{}, err
	}
	if last == today {
		return reset.Result{DateKey: today}, nil
	}
	tasks, err := s.Store.Load(ctx)
	if err != nil {
		return reset.Result{}, err
	}
	res := reset.Apply(s.categories(), tasks, last, today)

	if len(res.Cleared) > 0 {
		change := order.Change{Tasks: res.Tasks, Touched: res.Cleared}
		if err := s.commit(ctx, "daily reset", change); err != nil {
			return res, err
		}
	}
	if err := s.Store.SetLastReset(ctx, res.DateKey); err != nil {
		return res, err
	}
	s.log().WithFields(logrus.Fields{"date": res.DateKey, "cleared": len(res.Cleared)}).Info("daily reset")
	return res, nil
}

// Export renders the collection in format.
func (s *Service) Export(ctx context.Context, format interchange.Format) ([]byte, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	tasks, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.Store.Policy() != order.Keyed {
		// Position is the order; keys saved before they were cleared on
		// write must not leak into the document.
		tasks = order.ClearKeys(tasks)
	}
	return interchange.Export(tasks, s.now(), format)
}

// Import replaces the whole collection with the document in data. Malformed
// input returns an *interchange.FormatError and leaves the store untouched.
// Imported ONGOING tasks are reset for today regardless of the marker.
func (s *Service) Import(ctx context.Context, data []byte) (ImportResult, error) {
	if err := s.ready(); err != nil {
		return ImportResult{}, err
	}
	doc, err := interchange.Decode(data, s.categories())
	if err != nil {
		return ImportResult{}, err
	}
	today := reset.DateKey(s.now())
	incoming := reset.Apply(s.categories(), doc.Tasks, "", today).Tasks
	if incoming == nil {
		incoming = []task.Task{}
	}
	result := ImportResult{Count: len(incoming), Source: doc.Source()}

	if s.Store.Policy() == order.Keyed {
		if err := s.replaceDocuments(ctx, incoming); err != nil {
			return result, err
		}
	} else {
		for i := range incoming {
			if incoming[i].ID == "" {
				incoming[i].ID = task.NextLocalID(incoming)
			}
		}
		// Regroup so category blocks are contiguous; relative order within a
		// category is preserved.
		grouped := s.engine().Group(incoming).Flatten()
		if err := s.saveSequence(ctx, grouped); err != nil {
			return result, err
		}
	}
	if err := s.Store.SetLastReset(ctx, today); err != nil {
		return result, err
	}
	s.log().WithFields(logrus.Fields{"count": result.Count, "source": result.Source}).Info("imported tasks")
	return result, nil
}

// replaceDocuments deletes every stored document and then creates the
// incoming ones, each phase issued concurrently. Failures are collected, not
// rolled back.
func (s *Service) replaceDocuments(ctx context.Context, incoming []task.Task) error {
	existing, err := s.Store.Load(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	for i := range incoming {
		if incoming[i].ID == "" {
			if incoming[i].ID, err = task.NewDocumentID(); err != nil {
				return err
			}
		}
		if incoming[i].CreatedAt == nil {
			incoming[i].CreatedAt = &task.Timestamp{Time: now}
		}
	}
	incoming = order.AssignMissingKeys(incoming)

	var (
		mu     sync.Mutex
		failed []task.ID
		errs   []error
	)
	record := func(id task.ID, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, id)
		errs = append(errs, fmt.Errorf("%s: %w", id, err))
	}

	var g errgroup.Group
	g.SetLimit(importLimit)
	for _, t := range existing {
		id := t.ID
		g.Go(func() error {
			if err := s.Store.DeleteOne(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
				record(id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, t := range incoming {
		t := t
		g.Go(func() error {
			if err := s.Store.CreateOne(ctx, t); err != nil {
				record(t.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return &WriteFailure{Op: "import", Failed: failed, Err: errors.Join(errs...)}
	}
	return nil
}

// Watch streams the board on every store change until ctx is done.
func (s *Service) Watch(ctx context.Context) (<-chan order.Board, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	snapshots, err := s.Store.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	engine := s.engine()
	out := make(chan order.Board)
	go func() {
		defer close(out)
		for tasks := range snapshots {
			select {
			case out <- engine.Group(tasks):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// saveSequence writes the whole collection to a sequence store without order
// keys.
func (s *Service) saveSequence(ctx context.Context, tasks []task.Task) error {
	return s.Store.SaveAll(ctx, order.ClearKeys(tasks))
}

// commit persists change the way the store expects. Sequence stores get the
// whole collection. Keyed stores get one write per touched task, issued in
// order and all attempted even if an earlier one fails; ids listed in created
// are new documents.
func (s *Service) commit(ctx context.Context, op string, change order.Change, created ...task.ID) error {
	if change.Noop() {
		return nil
	}
	if s.Store.Policy() != order.Keyed {
		return s.saveSequence(ctx, change.Tasks)
	}

	isNew := make(map[task.ID]bool, len(created))
	for _, id := range created {
		isNew[id] = true
	}
	var (
		failed []task.ID
		errs   []error
	)
	for _, t := range change.Touched {
		var err error
		if isNew[t.ID] {
			err = s.Store.CreateOne(ctx, t)
		} else {
			err = s.Store.UpdateOne(ctx, t)
		}
		if err != nil {
			failed = append(failed, t.ID)
			errs = append(errs, fmt.Errorf("%s: %w", t.ID, err))
			s.log().WithError(err).WithField("task", t.ID).Warn(op + " write failed")
		}
	}
	if len(errs) > 0 {
		return &WriteFailure{Op: op, Failed: failed, Err: errors.Join(errs...)}
	}
	return nil
}
