package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	log "github.com/sirupsen/logrus"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/task"
)

const (
	metaPartitionSuffix = "~meta"
	lastResetRow        = "last-reset"
	transactionLimit    = 100
)

// Tables stores tasks as entities in Azure Table Storage, partitioned by
// account. Change notification is by polling the partition.
type Tables struct {
	client  *aztables.Client
	account string
	poll    time.Duration
}

var _ Store = (*Tables)(nil)

// NewTablesClient opens a table client with the retry policy used for all
// table traffic.
func NewTablesClient(connStr, table string) (*aztables.Client, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, fmt.Errorf("store: tables client: %w", err)
	}
	return svc.NewClient(table), nil
}

// NewTables scopes a table client to a single account.
func NewTables(client *aztables.Client, account string, poll time.Duration) (*Tables, error) {
	if client == nil {
		return nil, errors.New("store: tables client required")
	}
	if account == "" {
		return nil, errors.New("store: account required for the tables backend")
	}
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &Tables{client: client, account: account, poll: poll}, nil
}

// EnsureTable creates the table if it does not exist yet.
func (s *Tables) EnsureTable(ctx context.Context) error {
	if _, err := s.client.CreateTable(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return fmt.Errorf("store: create table: %w", err)
	}
	return nil
}

func (s *Tables) Policy() order.Policy {
	return order.Keyed
}

func (s *Tables) logger() *log.Entry {
	return log.WithFields(log.Fields{"backend": BackendTables, "account": s.account})
}

type taskEntity struct {
	aztables.Entity
	Text      string `json:"Text"`
	Category  string `json:"Category"`
	Completed bool   `json:"Completed"`
	Order     int    `json:"Order"`
	CreatedAt string `json:"CreatedAt"`
}

func encodeEntity(account string, t task.Task) ([]byte, error) {
	ent := map[string]interface{}{
		"PartitionKey": account,
		"RowKey":       string(t.ID),
		"Text":         t.Text,
		"Category":     string(t.Category),
		"Completed":    t.Completed,
		"Order":        t.Order,
	}
	if t.CreatedAt != nil {
		ent["CreatedAt"] = t.CreatedAt.String()
	}
	return json.Marshal(ent)
}

func decodeEntity(data []byte) (task.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return task.Task{}, err
	}
	t := task.Task{
		ID:        task.ID(ent.RowKey),
		Text:      ent.Text,
		Category:  category.Name(ent.Category),
		Completed: ent.Completed,
		Order:     ent.Order,
	}
	if ent.CreatedAt != "" {
		created, err := task.ParseTime(ent.CreatedAt)
		if err != nil {
			return task.Task{}, fmt.Errorf("entity %s: %w", ent.RowKey, err)
		}
		t.CreatedAt = &task.Timestamp{Time: created}
	}
	return t, nil
}

// partitionFilter matches every entity in a partition. Single quotes are
// doubled per the OData literal rules.
func partitionFilter(partition string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(partition, "'", "''") + "'"
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

func (s *Tables) Load(ctx context.Context) ([]task.Task, error) {
	filter := partitionFilter(s.account)
	pager := s.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []task.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: list tasks: %w", err)
		}
		for _, e := range resp.Entities {
			t, err := decodeEntity(e)
			if err != nil {
				s.logger().WithError(err).Warn("skipping unreadable entity")
				continue
			}
			tasks = append(tasks, t)
		}
	}
	sortByKey(tasks)
	return tasks, nil
}

// SaveAll replaces the partition in batches. Batches are atomic on their own
// but the replacement as a whole is not.
func (s *Tables) SaveAll(ctx context.Context, tasks []task.Task) error {
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	keep := make(map[task.ID]bool, len(tasks))
	actions := make([]aztables.TransactionAction, 0, len(tasks)+len(existing))
	for _, t := range tasks {
		data, err := encodeEntity(s.account, t)
		if err != nil {
			return err
		}
		keep[t.ID] = true
		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeInsertReplace,
			Entity:     data,
		})
	}
	for _, t := range existing {
		if keep[t.ID] {
			continue
		}
		data, err := encodeEntity(s.account, t)
		if err != nil {
			return err
		}
		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeDelete,
			Entity:     data,
		})
	}
	for start := 0; start < len(actions); start += transactionLimit {
		end := start + transactionLimit
		if end > len(actions) {
			end = len(actions)
		}
		if _, err := s.client.SubmitTransaction(ctx, actions[start:end], nil); err != nil {
			return fmt.Errorf("store: save tasks: %w", err)
		}
	}
	s.logger().WithField("count", len(tasks)).Debug("saved collection")
	return nil
}

func (s *Tables) CreateOne(ctx context.Context, t task.Task) error {
	data, err := encodeEntity(s.account, t)
	if err != nil {
		return err
	}
	if _, err := s.client.AddEntity(ctx, data, nil); err != nil {
		if hasStatus(err, http.StatusConflict) {
			return fmt.Errorf("store: task %q already exists", t.ID)
		}
		return fmt.Errorf("store: create %s: %w", t.ID, err)
	}
	return nil
}

func (s *Tables) UpdateOne(ctx context.Context, t task.Task) error {
	data, err := encodeEntity(s.account, t)
	if err != nil {
		return err
	}
	_, err = s.client.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, t.ID)
		}
		return fmt.Errorf("store: update %s: %w", t.ID, err)
	}
	return nil
}

func (s *Tables) DeleteOne(ctx context.Context, id task.ID) error {
	if _, err := s.client.DeleteEntity(ctx, s.account, string(id), nil); err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}

// Subscribe polls the partition and emits a snapshot whenever its contents
// differ from the last one sent.
func (s *Tables) Subscribe(ctx context.Context) (<-chan []task.Task, error) {
	initial, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan []task.Task, 16)
	go func() {
		defer close(out)
		last := fingerprint(initial)
		select {
		case out <- initial:
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tasks, err := s.Load(ctx)
				if err != nil {
					if ctx.Err() == nil {
						s.logger().WithError(err).Warn("poll tasks")
					}
					continue
				}
				fp := fingerprint(tasks)
				if bytes.Equal(fp, last) {
					continue
				}
				last = fp
				select {
				case out <- tasks:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func fingerprint(tasks []task.Task) []byte {
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil
	}
	return data
}

func (s *Tables) LastReset(ctx context.Context) (string, error) {
	resp, err := s.client.GetEntity(ctx, s.account+metaPartitionSuffix, lastResetRow, nil)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("store: read reset marker: %w", err)
	}
	var ent struct {
		DateKey string `json:"DateKey"`
	}
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return "", fmt.Errorf("store: decode reset marker: %w", err)
	}
	return ent.DateKey, nil
}

func (s *Tables) SetLastReset(ctx context.Context, key string) error {
	data, err := json.Marshal(map[string]string{
		"PartitionKey": s.account + metaPartitionSuffix,
		"RowKey":       lastResetRow,
		"DateKey":      key,
	})
	if err != nil {
		return err
	}
	if _, err := s.client.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace}); err != nil {
		return fmt.Errorf("store: write reset marker: %w", err)
	}
	return nil
}

func (s *Tables) Close() error {
	return nil
}
