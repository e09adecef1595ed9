package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/interchange"
	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/store"
	"tableflip.dev/taskboard/pkg/task"
)

type memoryStore struct {
	mu     sync.Mutex
	policy order.Policy
	tasks  []task.Task
	marker string
	// fail makes single-document writes for these ids fail.
	fail   map[task.ID]bool
	writes []string
}

func newMemoryStore(policy order.Policy, tasks ...task.Task) *memoryStore {
	return &memoryStore{policy: policy, tasks: task.Clone(tasks), fail: map[task.ID]bool{}}
}

func (m *memoryStore) Policy() order.Policy { return m.policy }

func (m *memoryStore) Load(context.Context) ([]task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := task.Clone(m.tasks)
	if out == nil {
		out = []task.Task{}
	}
	return out, nil
}

func (m *memoryStore) SaveAll(_ context.Context, tasks []task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, "save")
	m.tasks = task.Clone(tasks)
	return nil
}

func (m *memoryStore) CreateOne(_ context.Context, t task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, "create "+string(t.ID))
	if m.fail[t.ID] {
		return errors.New("offline")
	}
	if task.IndexOf(m.tasks, t.ID) >= 0 {
		return fmt.Errorf("duplicate %s", t.ID)
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *memoryStore) UpdateOne(_ context.Context, t task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, "update "+string(t.ID))
	if m.fail[t.ID] {
		return errors.New("offline")
	}
	i := task.IndexOf(m.tasks, t.ID)
	if i < 0 {
		return store.ErrNotFound
	}
	m.tasks[i] = t
	return nil
}

func (m *memoryStore) DeleteOne(_ context.Context, id task.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, "delete "+string(id))
	if m.fail[id] {
		return errors.New("offline")
	}
	i := task.IndexOf(m.tasks, id)
	if i < 0 {
		return store.ErrNotFound
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

func (m *memoryStore) Subscribe(ctx context.Context) (<-chan []task.Task, error) {
	tasks, _ := m.Load(ctx)
	ch := make(chan []task.Task, 1)
	ch <- tasks
	close(ch)
	return ch, nil
}

func (m *memoryStore) LastReset(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marker, nil
}

func (m *memoryStore) SetLastReset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marker = key
	return nil
}

func (m *memoryStore) Close() error { return nil }

// 09:00 on 15 October 2026 in Sydney.
var fixedNow = time.Date(2026, 10, 14, 22, 0, 0, 0, time.UTC)

func newService(m *memoryStore) *Service {
	return &Service{
		Store:      m,
		Categories: category.Default(),
		Now:        func() time.Time { return fixedNow },
	}
}

func blockIDs(t *testing.T, svc *Service, cat category.Name) []string {
	t.Helper()
	board, err := svc.Board(context.Background())
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	blk, _ := board.Block(cat)
	out := make([]string, 0, len(blk.Tasks))
	for _, tk := range blk.Tasks {
		out = append(out, tk.Text)
	}
	return out
}

func policies() []order.Policy {
	return []order.Policy{order.Sequence, order.Keyed}
}

func TestAddToEmptyCollection(t *testing.T) {
	for _, policy := range policies() {
		m := newMemoryStore(policy)
		svc := newService(m)
		added, err := svc.Add(context.Background(), "x", category.Urgent)
		if err != nil {
			t.Fatalf("%s: add: %v", policy, err)
		}
		if len(m.tasks) != 1 {
			t.Fatalf("%s: expected one task, got %d", policy, len(m.tasks))
		}
		got := m.tasks[0]
		if got.Category != category.Urgent || got.Completed || got.ID != added.ID {
			t.Fatalf("%s: unexpected task %#v", policy, got)
		}
		if policy == order.Keyed && got.Order != 1 {
			t.Fatalf("%s: expected order 1, got %d", policy, got.Order)
		}
		if policy == order.Sequence && got.ID != "1" {
			t.Fatalf("%s: expected id 1, got %s", policy, got.ID)
		}
	}
}

func TestAddIgnoresBlankText(t *testing.T) {
	m := newMemoryStore(order.Sequence)
	svc := newService(m)
	added, err := svc.Add(context.Background(), "   ", category.Urgent)
	if err != nil || added != nil {
		t.Fatalf("expected silent ignore, got %#v (%v)", added, err)
	}
	if len(m.writes) != 0 {
		t.Fatalf("expected no writes, got %v", m.writes)
	}
}

func TestAddDefaultsToUrgent(t *testing.T) {
	svc := newService(newMemoryStore(order.Sequence))
	added, err := svc.Add(context.Background(), "call back", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.Category != category.Urgent {
		t.Fatalf("expected URGENT, got %s", added.Category)
	}
}

func TestAddUnknownCategory(t *testing.T) {
	svc := newService(newMemoryStore(order.Sequence))
	if _, err := svc.Add(context.Background(), "x", "SOMEDAY"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestScenarioReorderThenRecategorise(t *testing.T) {
	ctx := context.Background()
	for _, policy := range policies() {
		svc := newService(newMemoryStore(policy))
		ids := map[string]task.ID{}
		for _, text := range []string{"A", "B", "C"} {
			added, err := svc.Add(ctx, text, category.Urgent)
			if err != nil {
				t.Fatalf("%s: add %s: %v", policy, text, err)
			}
			ids[text] = added.ID
		}
		if _, err := svc.Add(ctx, "M", category.Medium); err != nil {
			t.Fatalf("%s: add M: %v", policy, err)
		}

		if err := svc.Move(ctx, ids["B"], order.Up); err != nil {
			t.Fatalf("%s: move: %v", policy, err)
		}
		if got := strings.Join(blockIDs(t, svc, category.Urgent), ","); got != "B,A,C" {
			t.Fatalf("%s: expected B,A,C, got %s", policy, got)
		}

		if _, err := svc.SetCategory(ctx, ids["A"], category.Medium); err != nil {
			t.Fatalf("%s: set category: %v", policy, err)
		}
		if got := strings.Join(blockIDs(t, svc, category.Urgent), ","); got != "B,C" {
			t.Fatalf("%s: expected B,C, got %s", policy, got)
		}
		if got := strings.Join(blockIDs(t, svc, category.Medium), ","); got != "M,A" {
			t.Fatalf("%s: expected M,A, got %s", policy, got)
		}
	}
}

func TestKeyedWritesOnlyTouchedDocuments(t *testing.T) {
	ctx := context.Background()
	m := newMemoryStore(order.Keyed,
		task.Task{ID: "a", Text: "A", Category: category.Urgent, Order: 1},
		task.Task{ID: "b", Text: "B", Category: category.Urgent, Order: 2},
		task.Task{ID: "c", Text: "C", Category: category.High, Order: 1},
	)
	svc := newService(m)
	if err := svc.Move(ctx, "b", order.Up); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := strings.Join(m.writes, ";"); got != "update b;update a" {
		t.Fatalf("unexpected writes %q", got)
	}
}

func TestMoveAtBoundaryWritesNothing(t *testing.T) {
	ctx := context.Background()
	for _, policy := range policies() {
		m := newMemoryStore(policy,
			task.Task{ID: "1", Text: "A", Category: category.Urgent, Order: 1},
			task.Task{ID: "2", Text: "B", Category: category.Urgent, Order: 2},
		)
		svc := newService(m)
		if err := svc.Move(ctx, "1", order.Up); err != nil {
			t.Fatalf("%s: move: %v", policy, err)
		}
		if err := svc.Move(ctx, "2", order.Down); err != nil {
			t.Fatalf("%s: move: %v", policy, err)
		}
		if len(m.writes) != 0 {
			t.Fatalf("%s: expected no writes, got %v", policy, m.writes)
		}
	}
}

func TestSwapPartialFailureIsReported(t *testing.T) {
	ctx := context.Background()
	m := newMemoryStore(order.Keyed,
		task.Task{ID: "a", Text: "A", Category: category.Urgent, Order: 1},
		task.Task{ID: "b", Text: "B", Category: category.Urgent, Order: 2},
	)
	m.fail["a"] = true
	svc := newService(m)

	err := svc.Move(ctx, "b", order.Up)
	var wf *WriteFailure
	if !errors.As(err, &wf) {
		t.Fatalf("expected WriteFailure, got %v", err)
	}
	if len(wf.Failed) != 1 || wf.Failed[0] != "a" {
		t.Fatalf("unexpected failures %v", wf.Failed)
	}
	// Both writes were attempted.
	if got := strings.Join(m.writes, ";"); got != "update b;update a" {
		t.Fatalf("unexpected writes %q", got)
	}
}

func TestToggleAndDelete(t *testing.T) {
	ctx := context.Background()
	for _, policy := range policies() {
		m := newMemoryStore(policy, task.Task{ID: "1", Text: "A", Category: category.Urgent, Order: 1})
		svc := newService(m)
		toggled, err := svc.Toggle(ctx, "1")
		if err != nil || !toggled.Completed {
			t.Fatalf("%s: toggle: %#v (%v)", policy, toggled, err)
		}
		if !m.tasks[0].Completed {
			t.Fatalf("%s: toggle not persisted", policy)
		}
		if _, err := svc.Toggle(ctx, "9"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", policy, err)
		}
		if err := svc.Delete(ctx, "1"); err != nil {
			t.Fatalf("%s: delete: %v", policy, err)
		}
		if len(m.tasks) != 0 {
			t.Fatalf("%s: delete not persisted", policy)
		}
		if err := svc.Delete(ctx, "1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", policy, err)
		}
	}
}

func TestDeleteNeverRenumbers(t *testing.T) {
	m := newMemoryStore(order.Keyed,
		task.Task{ID: "a", Text: "A", Category: category.Urgent, Order: 1},
		task.Task{ID: "b", Text: "B", Category: category.Urgent, Order: 2},
		task.Task{ID: "c", Text: "C", Category: category.Urgent, Order: 3},
	)
	svc := newService(m)
	if err := svc.Delete(context.Background(), "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m.tasks[1].ID != "c" || m.tasks[1].Order != 3 {
		t.Fatalf("expected c to keep order 3, got %#v", m.tasks[1])
	}
}

func TestResetIfDue(t *testing.T) {
	ctx := context.Background()
	for _, policy := range policies() {
		m := newMemoryStore(policy,
			task.Task{ID: "1", Text: "standup", Category: category.Ongoing, Completed: true, Order: 1},
			task.Task{ID: "2", Text: "invoice", Category: category.Urgent, Completed: true, Order: 1},
		)
		m.marker = "2026-10-14"
		svc := newService(m)

		res, err := svc.ResetIfDue(ctx)
		if err != nil {
			t.Fatalf("%s: reset: %v", policy, err)
		}
		if !res.Changed || len(res.Cleared) != 1 {
			t.Fatalf("%s: unexpected result %#v", policy, res)
		}
		if m.tasks[0].Completed || !m.tasks[1].Completed {
			t.Fatalf("%s: expected only ONGOING cleared, got %#v", policy, m.tasks)
		}
		if m.marker != "2026-10-15" {
			t.Fatalf("%s: expected marker advanced, got %q", policy, m.marker)
		}

		writes := len(m.writes)
		res, err = svc.ResetIfDue(ctx)
		if err != nil || res.Changed {
			t.Fatalf("%s: expected same-day no-op, got %#v (%v)", policy, res, err)
		}
		if len(m.writes) != writes {
			t.Fatalf("%s: same-day reset wrote %v", policy, m.writes[writes:])
		}
	}
}

func TestResetKeepsMarkerWhenWriteFails(t *testing.T) {
	m := newMemoryStore(order.Keyed,
		task.Task{ID: "1", Text: "a", Category: category.Ongoing, Completed: true, Order: 1},
		task.Task{ID: "2", Text: "b", Category: category.Ongoing, Completed: true, Order: 2},
	)
	m.marker = "2026-10-14"
	m.fail["1"] = true
	svc := newService(m)

	_, err := svc.ResetIfDue(context.Background())
	var wf *WriteFailure
	if !errors.As(err, &wf) {
		t.Fatalf("expected WriteFailure, got %v", err)
	}
	if m.marker != "2026-10-14" {
		t.Fatalf("marker advanced despite failure: %q", m.marker)
	}
	if m.tasks[1].Completed {
		t.Fatalf("expected the healthy write to land")
	}

	// Retried on the next call once the store recovers.
	delete(m.fail, "1")
	if _, err := svc.ResetIfDue(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if m.tasks[0].Completed || m.marker != "2026-10-15" {
		t.Fatalf("retry did not complete: %#v %q", m.tasks, m.marker)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, policy := range policies() {
		src := newService(newMemoryStore(policy,
			task.Task{ID: "1", Text: "sleeve", Category: category.ClientWork, Order: 1},
			task.Task{ID: "2", Text: "station", Category: category.Urgent, Order: 1, Completed: true},
			task.Task{ID: "3", Text: "ink", Category: category.Urgent, Order: 2},
		))
		data, err := src.Export(ctx, interchange.JSON)
		if err != nil {
			t.Fatalf("%s: export: %v", policy, err)
		}

		dst := newMemoryStore(policy, task.Task{ID: "old", Text: "stale", Category: category.High, Order: 1})
		svc := newService(dst)
		res, err := svc.Import(ctx, data)
		if err != nil {
			t.Fatalf("%s: import: %v", policy, err)
		}
		if res.Count != 3 || res.Source != "Thursday, 15 October 2026" {
			t.Fatalf("%s: unexpected result %#v", policy, res)
		}
		if got := strings.Join(blockIDs(t, svc, category.Urgent), ","); got != "station,ink" {
			t.Fatalf("%s: expected station,ink, got %s", policy, got)
		}
		if got := blockIDs(t, svc, category.High); len(got) != 0 {
			t.Fatalf("%s: expected old tasks replaced, got %v", policy, got)
		}
		if dst.marker != "2026-10-15" {
			t.Fatalf("%s: expected marker set, got %q", policy, dst.marker)
		}
	}
}

func TestLocalMoveSurvivesKeyedRoundTrip(t *testing.T) {
	ctx := context.Background()
	synced := newService(newMemoryStore(order.Keyed,
		task.Task{ID: "a", Text: "A", Category: category.Urgent, Order: 1},
		task.Task{ID: "b", Text: "B", Category: category.Urgent, Order: 2},
		task.Task{ID: "c", Text: "C", Category: category.Urgent, Order: 3},
	))
	data, err := synced.Export(ctx, interchange.JSON)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	local := newMemoryStore(order.Sequence)
	lsvc := newService(local)
	if _, err := lsvc.Import(ctx, data); err != nil {
		t.Fatalf("local import: %v", err)
	}
	if err := lsvc.Move(ctx, "c", order.Up); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := strings.Join(blockIDs(t, lsvc, category.Urgent), ","); got != "A,C,B" {
		t.Fatalf("expected A,C,B locally, got %s", got)
	}
	for _, tk := range local.tasks {
		if tk.Order != 0 {
			t.Fatalf("expected local blob without keys, got %#v", tk)
		}
	}

	if data, err = lsvc.Export(ctx, interchange.JSON); err != nil {
		t.Fatalf("local export: %v", err)
	}
	back := newService(newMemoryStore(order.Keyed))
	if _, err := back.Import(ctx, data); err != nil {
		t.Fatalf("synced import: %v", err)
	}
	if got := strings.Join(blockIDs(t, back, category.Urgent), ","); got != "A,C,B" {
		t.Fatalf("expected A,C,B after round trip, got %s", got)
	}
}

func TestExportIgnoresStaleLocalKeys(t *testing.T) {
	svc := newService(newMemoryStore(order.Sequence,
		task.Task{ID: "2", Text: "B", Category: category.Urgent, Order: 2},
		task.Task{ID: "1", Text: "A", Category: category.Urgent, Order: 1},
	))
	data, err := svc.Export(context.Background(), interchange.JSON)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(string(data), `"order"`) {
		t.Fatalf("expected no order keys in %s", data)
	}
}

func TestImportResetsOngoing(t *testing.T) {
	m := newMemoryStore(order.Sequence)
	m.marker = "2026-10-15"
	svc := newService(m)
	data := `{"tasks":[{"id":1,"text":"standup","category":"ONGOING","completed":true}]}`
	res, err := svc.Import(context.Background(), []byte(data))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.String() != "Successfully imported 1 tasks from another device" {
		t.Fatalf("unexpected summary %q", res)
	}
	if m.tasks[0].Completed {
		t.Fatalf("expected imported ONGOING task to be reset")
	}
}

func TestImportFormatErrorLeavesStoreUntouched(t *testing.T) {
	m := newMemoryStore(order.Keyed, task.Task{ID: "a", Text: "A", Category: category.Urgent, Order: 1})
	svc := newService(m)
	_, err := svc.Import(context.Background(), []byte(`{"tasks": [`))
	var fe *interchange.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if len(m.writes) != 0 || len(m.tasks) != 1 {
		t.Fatalf("store mutated: %v %#v", m.writes, m.tasks)
	}
}

func TestImportAssignsMissingKeysAndIDs(t *testing.T) {
	m := newMemoryStore(order.Keyed)
	svc := newService(m)
	data := `{"tasks":[
		{"text":"a","category":"URGENT"},
		{"text":"b","category":"URGENT"},
		{"id":"x","text":"c","category":"HIGH PRIORITY","order":5}
	]}`
	if _, err := svc.Import(context.Background(), []byte(data)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := strings.Join(blockIDs(t, svc, category.Urgent), ","); got != "a,b" {
		t.Fatalf("expected a,b, got %s", got)
	}
	for _, tk := range m.tasks {
		if tk.ID == "" || tk.Order == 0 || tk.CreatedAt == nil {
			t.Fatalf("expected id, key and timestamp, got %#v", tk)
		}
	}
	x, _ := task.Find(m.tasks, "x")
	if x.Order != 5 {
		t.Fatalf("expected existing key kept, got %d", x.Order)
	}
}

func TestImportCollectsEveryFailure(t *testing.T) {
	m := newMemoryStore(order.Keyed,
		task.Task{ID: "old1", Text: "o1", Category: category.Urgent, Order: 1},
		task.Task{ID: "old2", Text: "o2", Category: category.Urgent, Order: 2},
	)
	m.fail["old1"] = true
	m.fail["n2"] = true
	svc := newService(m)
	data := `{"tasks":[{"id":"n1","text":"a","category":"URGENT"},{"id":"n2","text":"b","category":"URGENT"}]}`
	_, err := svc.Import(context.Background(), []byte(data))
	var wf *WriteFailure
	if !errors.As(err, &wf) {
		t.Fatalf("expected WriteFailure, got %v", err)
	}
	if len(wf.Failed) != 2 {
		t.Fatalf("expected two failures, got %v", wf.Failed)
	}
	if m.marker != "" {
		t.Fatalf("marker advanced despite failure: %q", m.marker)
	}
}

func TestResolvePrefix(t *testing.T) {
	m := newMemoryStore(order.Keyed,
		task.Task{ID: "0190aa", Text: "a", Category: category.Urgent, Order: 1},
		task.Task{ID: "0190ab", Text: "b", Category: category.Urgent, Order: 2},
	)
	svc := newService(m)
	ctx := context.Background()
	if id, err := svc.Resolve(ctx, "0190ab"); err != nil || id != "0190ab" {
		t.Fatalf("exact: %q (%v)", id, err)
	}
	if id, err := svc.Resolve(ctx, "0190aa"); err != nil || id != "0190aa" {
		t.Fatalf("exact: %q (%v)", id, err)
	}
	if _, err := svc.Resolve(ctx, "0190a"); err == nil {
		t.Fatalf("expected ambiguity error")
	}
	if _, err := svc.Resolve(ctx, "zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWatchGroupsSnapshots(t *testing.T) {
	m := newMemoryStore(order.Sequence, task.Task{ID: "1", Text: "A", Category: category.Urgent, Completed: true})
	svc := newService(m)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := svc.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	board, ok := <-ch
	if !ok {
		t.Fatalf("expected a board")
	}
	if board.Total != 1 || board.Completed != 1 {
		t.Fatalf("unexpected board %#v", board)
	}
	data, err := json.Marshal(board)
	if err != nil || !strings.Contains(string(data), `"category":"URGENT"`) {
		t.Fatalf("unexpected board JSON %s (%v)", data, err)
	}
}

func TestNoStore(t *testing.T) {
	svc := &Service{}
	if _, err := svc.Board(context.Background()); err == nil {
		t.Fatalf("expected error without a store")
	}
}
