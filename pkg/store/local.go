package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/peterbourgon/diskv/v3"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/task"
)

const (
	tasksKey = "todoTasks"
	resetKey = "lastVisitDate"
)

// Local keeps the whole collection as a single JSON blob on disk. Position in
// the blob is the order, so it uses the sequence policy.
type Local struct {
	mu       sync.Mutex
	d        *diskv.Diskv
	basePath string
}

var _ Store = (*Local)(nil)

// NewLocal creates a Local store rooted at basePath.
func NewLocal(basePath string) (*Local, error) {
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &Local{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			TempDir:           filepath.Join(basePath, ".tmp"),
			AdvancedTransform: flatTransform,
			InverseTransform:  flatInverseTransform,
			// Other processes may write the blob; always read from disk.
			CacheSizeMax: 0,
		}),
		basePath: basePath,
	}, nil
}

func (l *Local) Policy() order.Policy {
	return order.Sequence
}

func (l *Local) Load(_ context.Context) ([]task.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *Local) load() ([]task.Task, error) {
	if !l.d.Has(tasksKey) {
		return []task.Task{}, nil
	}
	val, err := l.d.Read(tasksKey)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", tasksKey, err)
	}
	if len(val) == 0 {
		return []task.Task{}, nil
	}
	var tasks []task.Task
	if err := json.Unmarshal(val, &tasks); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", tasksKey, err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

func (l *Local) SaveAll(_ context.Context, tasks []task.Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(tasks)
}

func (l *Local) save(tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	if err := l.d.Write(tasksKey, data); err != nil {
		return fmt.Errorf("store: write %s: %w", tasksKey, err)
	}
	log.WithFields(log.Fields{"backend": BackendLocal, "count": len(tasks)}).Debug("saved collection")
	return nil
}

// CreateOne appends t. Callers that care about block placement compute the
// full sequence and use SaveAll instead.
func (l *Local) CreateOne(_ context.Context, t task.Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tasks, err := l.load()
	if err != nil {
		return err
	}
	if task.IndexOf(tasks, t.ID) >= 0 {
		return fmt.Errorf("store: task %q already exists", t.ID)
	}
	return l.save(append(tasks, t))
}

func (l *Local) UpdateOne(_ context.Context, t task.Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tasks, err := l.load()
	if err != nil {
		return err
	}
	i := task.IndexOf(tasks, t.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, t.ID)
	}
	tasks[i] = t
	return l.save(tasks)
}

func (l *Local) DeleteOne(_ context.Context, id task.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	tasks, err := l.load()
	if err != nil {
		return err
	}
	i := task.IndexOf(tasks, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l.save(append(tasks[:i], tasks[i+1:]...))
}

func (l *Local) LastReset(_ context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.d.Has(resetKey) {
		return "", nil
	}
	val, err := l.d.Read(resetKey)
	if err != nil {
		return "", fmt.Errorf("store: read %s: %w", resetKey, err)
	}
	return string(val), nil
}

func (l *Local) SetLastReset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.d.Write(resetKey, []byte(key)); err != nil {
		return fmt.Errorf("store: write %s: %w", resetKey, err)
	}
	return nil
}

func (l *Local) Close() error {
	return nil
}

func flatTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{Path: []string{}, FileName: key}
}

func flatInverseTransform(pathKey *diskv.PathKey) string {
	return pathKey.FileName
}
