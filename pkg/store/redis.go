package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/task"
)

// Redis stores one hash per account, one field per task, and publishes on a
// per-account channel after every write so other devices can refresh.
type Redis struct {
	client  *redis.Client
	account string

	tasksKey   string
	resetKey   string
	changesKey string
}

var _ Store = (*Redis)(nil)

// NewRedis scopes a redis client to a single account. The store owns the
// client and closes it on Close.
func NewRedis(client *redis.Client, prefix, account string) (*Redis, error) {
	if client == nil {
		return nil, errors.New("store: redis client required")
	}
	if account == "" {
		return nil, errors.New("store: account required for the redis backend")
	}
	if prefix == "" {
		prefix = "taskboard"
	}
	base := prefix + ":" + account
	return &Redis{
		client:     client,
		account:    account,
		tasksKey:   base + ":tasks",
		resetKey:   base + ":last-reset",
		changesKey: base + ":changes",
	}, nil
}

func (r *Redis) Policy() order.Policy {
	return order.Keyed
}

func (r *Redis) logger() *log.Entry {
	return log.WithFields(log.Fields{"backend": BackendRedis, "account": r.account})
}

func (r *Redis) Load(ctx context.Context) ([]task.Task, error) {
	fields, err := r.client.HGetAll(ctx, r.tasksKey).Result()
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", r.tasksKey, err)
	}
	tasks := make([]task.Task, 0, len(fields))
	for id, raw := range fields {
		var t task.Task
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			r.logger().WithError(err).WithField("id", id).Warn("skipping unreadable task")
			continue
		}
		t.ID = task.ID(id)
		tasks = append(tasks, t)
	}
	sortByKey(tasks)
	return tasks, nil
}

func (r *Redis) SaveAll(ctx context.Context, tasks []task.Task) error {
	values := make([]interface{}, 0, len(tasks)*2)
	for _, t := range tasks {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		values = append(values, string(t.ID), data)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.tasksKey)
		if len(values) > 0 {
			pipe.HSet(ctx, r.tasksKey, values...)
		}
		pipe.Publish(ctx, r.changesKey, "all")
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: save %s: %w", r.tasksKey, err)
	}
	r.logger().WithField("count", len(tasks)).Debug("saved collection")
	return nil
}

func (r *Redis) CreateOne(ctx context.Context, t task.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	ok, err := r.client.HSetNX(ctx, r.tasksKey, string(t.ID), data).Result()
	if err != nil {
		return fmt.Errorf("store: create %s: %w", t.ID, err)
	}
	if !ok {
		return fmt.Errorf("store: task %q already exists", t.ID)
	}
	r.publish(ctx, t.ID)
	return nil
}

func (r *Redis) UpdateOne(ctx context.Context, t task.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	exists, err := r.client.HExists(ctx, r.tasksKey, string(t.ID)).Result()
	if err != nil {
		return fmt.Errorf("store: update %s: %w", t.ID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, t.ID)
	}
	if err := r.client.HSet(ctx, r.tasksKey, string(t.ID), data).Err(); err != nil {
		return fmt.Errorf("store: update %s: %w", t.ID, err)
	}
	r.publish(ctx, t.ID)
	return nil
}

func (r *Redis) DeleteOne(ctx context.Context, id task.ID) error {
	n, err := r.client.HDel(ctx, r.tasksKey, string(id)).Result()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.publish(ctx, id)
	return nil
}

// publish is best effort. The write already landed; a missed notification only
// delays other subscribers until the next one.
func (r *Redis) publish(ctx context.Context, id task.ID) {
	if err := r.client.Publish(ctx, r.changesKey, string(id)).Err(); err != nil {
		r.logger().WithError(err).Warn("publish change")
	}
}

func (r *Redis) Subscribe(ctx context.Context) (<-chan []task.Task, error) {
	sub := r.client.Subscribe(ctx, r.changesKey)
	// Wait for the subscription to be confirmed so no write after this
	// returns can be missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("store: subscribe %s: %w", r.changesKey, err)
	}
	initial, err := r.Load(ctx)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan []task.Task, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		send := func(tasks []task.Task) bool {
			select {
			case out <- tasks:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if !send(initial) {
			return
		}

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				tasks, err := r.Load(ctx)
				if err != nil {
					r.logger().WithError(err).Warn("reload after change")
					continue
				}
				if !send(tasks) {
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) LastReset(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, r.resetKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: read %s: %w", r.resetKey, err)
	}
	return val, nil
}

func (r *Redis) SetLastReset(ctx context.Context, key string) error {
	if err := r.client.Set(ctx, r.resetKey, key, 0).Err(); err != nil {
		return fmt.Errorf("store: write %s: %w", r.resetKey, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
