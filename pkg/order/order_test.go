package order

import (
	"testing"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/task"
)

var cats = category.Default()

func mk(id string, cat category.Name, ord int) task.Task {
	return task.Task{ID: task.ID(id), Text: "task " + id, Category: cat, Order: ord}
}

func ids(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = string(t.ID)
	}
	return out
}

func blockIDs(t *testing.T, e Engine, tasks []task.Task, cat category.Name) []string {
	t.Helper()
	blk, ok := e.Group(tasks).Block(cat)
	if !ok {
		t.Fatalf("missing block %q", cat)
	}
	return ids(blk.Tasks)
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sample(policy Policy) []task.Task {
	tasks := []task.Task{
		mk("o1", category.Ongoing, 1),
		mk("c1", category.ClientWork, 1),
		mk("u1", category.Urgent, 1),
		mk("u2", category.Urgent, 2),
		mk("m1", category.Medium, 1),
	}
	if policy == Sequence {
		for i := range tasks {
			tasks[i].Order = 0
		}
	}
	return tasks
}

func TestInsertSequenceLandsAtBlockTail(t *testing.T) {
	e := New(cats, Sequence)
	before := sample(Sequence)
	change, key := e.Insert(before, mk("new", category.Urgent, 0))
	if key != 0 {
		t.Fatalf("sequence policy should not assign keys, got %d", key)
	}
	want := []string{"o1", "c1", "u1", "u2", "new", "m1"}
	if got := ids(change.Tasks); !sameIDs(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(before) != 5 {
		t.Fatalf("insert mutated its input")
	}
}

func TestInsertSequenceSkipsEmptyLaterCategories(t *testing.T) {
	e := New(cats, Sequence)
	tasks := []task.Task{mk("o1", category.Ongoing, 0), mk("m1", category.Medium, 0)}
	change, _ := e.Insert(tasks, mk("c1", category.ClientWork, 0))
	want := []string{"o1", "c1", "m1"}
	if got := ids(change.Tasks); !sameIDs(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	change, _ = e.Insert(change.Tasks, mk("m2", category.Medium, 0))
	want = []string{"o1", "c1", "m1", "m2"}
	if got := ids(change.Tasks); !sameIDs(got, want) {
		t.Fatalf("expected append at end, got %v", got)
	}
}

func TestInsertKeyedAssignsNextKey(t *testing.T) {
	e := New(cats, Keyed)
	change, key := e.Insert(sample(Keyed), mk("new", category.Urgent, 0))
	if key != 3 {
		t.Fatalf("expected key 3, got %d", key)
	}
	if len(change.Touched) != 1 || change.Touched[0].Order != 3 {
		t.Fatalf("expected the new task to be the only touched record: %#v", change.Touched)
	}

	_, key = e.Insert(sample(Keyed), mk("h", category.High, 0))
	if key != 1 {
		t.Fatalf("expected key 1 for empty category, got %d", key)
	}
}

func TestInsertIntoEmptyCollection(t *testing.T) {
	for _, policy := range []Policy{Sequence, Keyed} {
		e := New(cats, policy)
		change, _ := e.Insert(nil, mk("x", category.Urgent, 0))
		if len(change.Tasks) != 1 {
			t.Fatalf("%s: expected one task, got %d", policy, len(change.Tasks))
		}
		got := change.Tasks[0]
		if got.Category != category.Urgent || got.Completed {
			t.Fatalf("%s: unexpected task %#v", policy, got)
		}
	}
}

func TestInsertLeavesOtherBlocksUnchanged(t *testing.T) {
	for _, policy := range []Policy{Sequence, Keyed} {
		e := New(cats, policy)
		before := sample(policy)
		change, _ := e.Insert(before, mk("new", category.ClientWork, 0))
		for _, c := range cats.Names() {
			was := blockIDs(t, e, before, c)
			now := blockIDs(t, e, change.Tasks, c)
			if c == category.ClientWork {
				if now[len(now)-1] != "new" {
					t.Fatalf("%s: new task is not last in its block: %v", policy, now)
				}
				if !sameIDs(was, now[:len(now)-1]) {
					t.Fatalf("%s: existing members of the block moved: %v -> %v", policy, was, now)
				}
				continue
			}
			if !sameIDs(was, now) {
				t.Fatalf("%s: block %q changed: %v -> %v", policy, c, was, now)
			}
		}
	}
}

func TestReorderBoundariesAreNoops(t *testing.T) {
	for _, policy := range []Policy{Sequence, Keyed} {
		e := New(cats, policy)
		before := sample(policy)

		change, err := e.Reorder(before, "u1", Up)
		if err != nil {
			t.Fatalf("%s: reorder: %v", policy, err)
		}
		if !change.Noop() || !task.EqualAll(before, change.Tasks) {
			t.Fatalf("%s: moving the first sibling up should be a no-op", policy)
		}

		change, err = e.Reorder(before, "u2", Down)
		if err != nil {
			t.Fatalf("%s: reorder: %v", policy, err)
		}
		if !change.Noop() || !task.EqualAll(before, change.Tasks) {
			t.Fatalf("%s: moving the last sibling down should be a no-op", policy)
		}

		change, err = e.Reorder(before, "c1", Down)
		if err != nil {
			t.Fatalf("%s: reorder: %v", policy, err)
		}
		if !change.Noop() {
			t.Fatalf("%s: reordering a sole member should be a no-op", policy)
		}
	}
}

func TestReorderUpThenDownRestores(t *testing.T) {
	for _, policy := range []Policy{Sequence, Keyed} {
		e := New(cats, policy)
		before := []task.Task{
			mk("a", category.High, 1),
			mk("b", category.High, 2),
			mk("c", category.High, 3),
		}
		if policy == Sequence {
			for i := range before {
				before[i].Order = 0
			}
		}
		up, err := e.Reorder(before, "b", Up)
		if err != nil {
			t.Fatalf("%s: up: %v", policy, err)
		}
		if got := blockIDs(t, e, up.Tasks, category.High); !sameIDs(got, []string{"b", "a", "c"}) {
			t.Fatalf("%s: unexpected order after up: %v", policy, got)
		}
		down, err := e.Reorder(up.Tasks, "b", Down)
		if err != nil {
			t.Fatalf("%s: down: %v", policy, err)
		}
		if got := blockIDs(t, e, down.Tasks, category.High); !sameIDs(got, []string{"a", "b", "c"}) {
			t.Fatalf("%s: up then down did not restore: %v", policy, got)
		}
	}
}

func TestReorderKeyedSwapsKeys(t *testing.T) {
	e := New(cats, Keyed)
	before := []task.Task{mk("a", category.Urgent, 1), mk("b", category.Urgent, 5)}
	change, err := e.Reorder(before, "b", Up)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(change.Touched) != 2 {
		t.Fatalf("expected both participants to be touched, got %d", len(change.Touched))
	}
	a, _ := task.Find(change.Tasks, "a")
	b, _ := task.Find(change.Tasks, "b")
	if a.Order != 5 || b.Order != 1 {
		t.Fatalf("expected swapped keys, got a=%d b=%d", a.Order, b.Order)
	}
	if ids(change.Tasks)[0] != "a" {
		t.Fatalf("keyed reorder should not reposition documents")
	}
}

func TestReorderKeyedSeparatesDuplicateKeys(t *testing.T) {
	e := New(cats, Keyed)
	before := []task.Task{mk("a", category.Urgent, 2), mk("b", category.Urgent, 2)}
	change, err := e.Reorder(before, "b", Up)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := blockIDs(t, e, change.Tasks, category.Urgent); !sameIDs(got, []string{"b", "a"}) {
		t.Fatalf("expected b before a, got %v", got)
	}
}

func TestReorderKeyedTieSwapsWithNeighbour(t *testing.T) {
	e := New(cats, Keyed)
	before := []task.Task{
		mk("a", category.Urgent, 1),
		mk("b", category.Urgent, 1),
		mk("c", category.Urgent, 1),
	}
	change, err := e.Reorder(before, "a", Down)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := blockIDs(t, e, change.Tasks, category.Urgent); !sameIDs(got, []string{"b", "a", "c"}) {
		t.Fatalf("expected b,a,c, got %v", got)
	}
	if len(change.Touched) != 3 {
		t.Fatalf("expected every renumbered sibling to be touched, got %v", ids(change.Touched))
	}

	up, err := e.Reorder(change.Tasks, "a", Up)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if got := blockIDs(t, e, up.Tasks, category.Urgent); !sameIDs(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected a,b,c, got %v", got)
	}
	if len(up.Touched) != 2 {
		t.Fatalf("expected a plain swap once keys are distinct, got %v", ids(up.Touched))
	}
}

func TestClearKeys(t *testing.T) {
	before := []task.Task{mk("a", category.Urgent, 4), mk("b", category.High, 9)}
	got := ClearKeys(before)
	for _, tk := range got {
		if tk.Order != 0 {
			t.Fatalf("expected cleared key, got %#v", tk)
		}
	}
	if before[0].Order != 4 {
		t.Fatalf("input was mutated")
	}
}

func TestReorderUnknownTask(t *testing.T) {
	e := New(cats, Sequence)
	if _, err := e.Reorder(sample(Sequence), "missing", Up); err == nil {
		t.Fatalf("expected error for unknown task")
	}
	if _, err := e.Reorder(sample(Sequence), "u1", Direction("sideways")); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}

func TestChangeCategorySameIsNoop(t *testing.T) {
	for _, policy := range []Policy{Sequence, Keyed} {
		e := New(cats, policy)
		before := sample(policy)
		change, err := e.ChangeCategory(before, "u1", category.Urgent)
		if err != nil {
			t.Fatalf("%s: change category: %v", policy, err)
		}
		if !change.Noop() || !task.EqualAll(before, change.Tasks) {
			t.Fatalf("%s: expected unchanged collection", policy)
		}
	}
}

func TestChangeCategoryUnknown(t *testing.T) {
	e := New(cats, Sequence)
	if _, err := e.ChangeCategory(sample(Sequence), "u1", "LATER"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
	if _, err := e.ChangeCategory(sample(Sequence), "nope", category.High); err == nil {
		t.Fatalf("expected error for unknown task")
	}
}

func TestScenarioReorderThenRecategorise(t *testing.T) {
	for _, policy := range []Policy{Sequence, Keyed} {
		e := New(cats, policy)
		tasks := []task.Task{
			mk("M", category.Medium, 1),
			mk("A", category.Urgent, 1),
			mk("B", category.Urgent, 2),
			mk("C", category.Urgent, 3),
		}
		if policy == Sequence {
			tasks = []task.Task{
				mk("A", category.Urgent, 0),
				mk("B", category.Urgent, 0),
				mk("C", category.Urgent, 0),
				mk("M", category.Medium, 0),
			}
		}

		change, err := e.Reorder(tasks, "B", Up)
		if err != nil {
			t.Fatalf("%s: reorder: %v", policy, err)
		}
		if got := blockIDs(t, e, change.Tasks, category.Urgent); !sameIDs(got, []string{"B", "A", "C"}) {
			t.Fatalf("%s: expected B,A,C got %v", policy, got)
		}

		change, err = e.ChangeCategory(change.Tasks, "A", category.Medium)
		if err != nil {
			t.Fatalf("%s: change category: %v", policy, err)
		}
		if got := blockIDs(t, e, change.Tasks, category.Urgent); !sameIDs(got, []string{"B", "C"}) {
			t.Fatalf("%s: expected URGENT B,C got %v", policy, got)
		}
		if got := blockIDs(t, e, change.Tasks, category.Medium); !sameIDs(got, []string{"M", "A"}) {
			t.Fatalf("%s: expected MEDIUM M,A got %v", policy, got)
		}
	}
}

func TestChangeCategorySequenceKeepsBlocksContiguous(t *testing.T) {
	e := New(cats, Sequence)
	change, err := e.ChangeCategory(sample(Sequence), "m1", category.Ongoing)
	if err != nil {
		t.Fatalf("change category: %v", err)
	}
	want := []string{"o1", "m1", "c1", "u1", "u2"}
	if got := ids(change.Tasks); !sameIDs(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAssignMissingKeys(t *testing.T) {
	in := []task.Task{
		mk("a", category.Urgent, 0),
		mk("b", category.High, 4),
		mk("c", category.Urgent, 0),
		mk("d", category.High, 0),
	}
	out := AssignMissingKeys(in)
	want := map[string]int{"a": 1, "b": 4, "c": 2, "d": 5}
	for _, tk := range out {
		if tk.Order != want[string(tk.ID)] {
			t.Fatalf("%s: expected key %d, got %d", tk.ID, want[string(tk.ID)], tk.Order)
		}
	}
	if in[0].Order != 0 {
		t.Fatalf("AssignMissingKeys mutated its input")
	}
}

func TestGroupProgressAndTies(t *testing.T) {
	e := New(cats, Keyed)
	tasks := []task.Task{
		mk("x", category.Urgent, 2),
		mk("y", category.Urgent, 1),
		mk("z", category.Urgent, 2),
		{ID: "stray", Category: "UNKNOWN"},
	}
	tasks[1].Completed = true
	board := e.Group(tasks)
	if got := blockIDs(t, e, tasks, category.Urgent); !sameIDs(got, []string{"y", "x", "z"}) {
		t.Fatalf("expected ties broken by collection order, got %v", got)
	}
	if board.Total != 3 || board.Completed != 1 {
		t.Fatalf("unexpected progress %d/%d", board.Completed, board.Total)
	}
	if len(board.Blocks) != cats.Len() {
		t.Fatalf("expected a block per category")
	}
	if p := board.Progress(); p < 0.33 || p > 0.34 {
		t.Fatalf("unexpected progress fraction %v", p)
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("up"); err != nil || d != Up {
		t.Fatalf("expected up, got %q %v", d, err)
	}
	if _, err := ParseDirection("left"); err == nil {
		t.Fatalf("expected error")
	}
}
