package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/taskboard/pkg/task"
)

// Subscribe streams the collection every time the blob changes on disk, from
// this process or any other. Bursts of writes are coalesced.
func (l *Local) Subscribe(ctx context.Context) (<-chan []task.Task, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	if err := watcher.Add(l.basePath); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("store: watch %s: %w", l.basePath, err)
	}

	initial, err := l.Load(ctx)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	out := make(chan []task.Task, 16)
	target := filepath.Join(l.basePath, tasksKey)
	logger := log.WithField("backend", BackendLocal)

	go func() {
		defer close(out)
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.WithError(err).Warn("watcher close")
			}
		}()

		var mu sync.Mutex
		send := func(tasks []task.Task) {
			mu.Lock()
			defer mu.Unlock()
			select {
			case out <- tasks:
			case <-ctx.Done():
			}
		}
		send(initial)

		reload := func() {
			tasks, err := l.Load(ctx)
			if err != nil {
				// A half-written file; the next event carries the final state.
				logger.WithError(err).Debug("reload after change")
				return
			}
			send(tasks)
		}

		throttle := newThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Warn("watcher error")
				throttle.Trigger(reload)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				throttle.Trigger(reload)
			}
		}
	}()

	return out, nil
}

// throttle coalesces rapid change notifications so subscribers reload once
// per burst of filesystem activity instead of on every single write.
type throttle struct {
	mu      sync.Mutex
	timer   *time.Timer
	delay   time.Duration
	stopped bool
}

func newThrottle(delay time.Duration) *throttle {
	return &throttle{delay: delay}
}

// Trigger schedules fn after the delay unless a call is already pending.
func (t *throttle) Trigger(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.timer = nil
		stopped := t.stopped
		t.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

// Stop cancels any pending call.
func (t *throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
