// Package order places tasks inside their category blocks. It decides where a
// new or re-categorised task lands and which sibling a task swaps with when it
// is moved up or down.
//
// Two policies are supported. Sequence stores persist the collection as one
// ordered list, so position is the order. Keyed stores persist one document
// per task and sort by an explicit order key at read time.
package order

import (
	"fmt"
	"sort"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/task"
)

// Policy selects how intra-category order is represented.
type Policy int

const (
	// Sequence uses the position in the collection as the order.
	Sequence Policy = iota
	// Keyed uses task.Order, sorted ascending at read time.
	Keyed
)

func (p Policy) String() string {
	switch p {
	case Sequence:
		return "sequence"
	case Keyed:
		return "keyed"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Direction is a manual reorder step.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection validates a direction string.
func ParseDirection(raw string) (Direction, error) {
	switch Direction(raw) {
	case Up, Down:
		return Direction(raw), nil
	default:
		return "", fmt.Errorf("order: unknown direction %q (expected up or down)", raw)
	}
}

// Change is the result of an engine operation.
type Change struct {
	// Tasks is the full collection after the change.
	Tasks []task.Task
	// Touched lists the records whose persisted fields changed, in the order
	// the writes should be issued.
	Touched []task.Task
}

// Noop reports whether the change left the collection untouched.
func (c Change) Noop() bool {
	return len(c.Touched) == 0
}

// Engine applies a policy against an injected category set.
type Engine struct {
	Categories category.Set
	Policy     Policy
}

// New returns an engine for the given categories and policy.
func New(cats category.Set, policy Policy) Engine {
	return Engine{Categories: cats, Policy: policy}
}

// Insert places t at the tail of its category block and returns the new
// collection together with the order key that was assigned. Sequence stores
// do not use keys and get 0.
func (e Engine) Insert(tasks []task.Task, t task.Task) (Change, int) {
	out := task.Clone(tasks)
	switch e.Policy {
	case Keyed:
		t.Order = NextKey(out, t.Category)
		out = append(out, t)
		return Change{Tasks: out, Touched: []task.Task{t}}, t.Order
	default:
		at := e.blockEnd(out, t.Category)
		out = append(out, task.Task{})
		copy(out[at+1:], out[at:])
		out[at] = t
		return Change{Tasks: out, Touched: []task.Task{t}}, 0
	}
}

// Reorder swaps id with its previous (up) or next (down) sibling. Moving the
// first sibling up or the last sibling down is a no-op.
func (e Engine) Reorder(tasks []task.Task, id task.ID, dir Direction) (Change, error) {
	out := task.Clone(tasks)
	idx := task.IndexOf(out, id)
	if idx < 0 {
		return Change{}, fmt.Errorf("order: task %q not found", id)
	}
	siblings := e.siblings(out, out[idx].Category)
	pos := -1
	for i, s := range siblings {
		if s == idx {
			pos = i
			break
		}
	}
	var other int
	switch dir {
	case Up:
		if pos <= 0 {
			return Change{Tasks: out}, nil
		}
		other = siblings[pos-1]
	case Down:
		if pos < 0 || pos >= len(siblings)-1 {
			return Change{Tasks: out}, nil
		}
		other = siblings[pos+1]
	default:
		return Change{}, fmt.Errorf("order: unknown direction %q", dir)
	}

	if e.Policy == Keyed {
		var renumbered []int
		if out[idx].Order == out[other].Order {
			// Duplicate keys from a concurrent writer.
			renumbered = spreadKeys(out, siblings)
		}
		a, b := &out[idx], &out[other]
		a.Order, b.Order = b.Order, a.Order
		touched := []task.Task{*a, *b}
		for _, i := range renumbered {
			if i != idx && i != other {
				touched = append(touched, out[i])
			}
		}
		return Change{Tasks: out, Touched: touched}, nil
	}

	out[idx], out[other] = out[other], out[idx]
	return Change{Tasks: out, Touched: []task.Task{out[idx], out[other]}}, nil
}

// ChangeCategory moves id to the tail of the target category block. It is a
// no-op when the task already belongs to target.
func (e Engine) ChangeCategory(tasks []task.Task, id task.ID, target category.Name) (Change, error) {
	if !e.Categories.Contains(target) {
		return Change{}, fmt.Errorf("order: unknown category %q", target)
	}
	idx := task.IndexOf(tasks, id)
	if idx < 0 {
		return Change{}, fmt.Errorf("order: task %q not found", id)
	}
	if tasks[idx].Category == target {
		return Change{Tasks: task.Clone(tasks)}, nil
	}

	moved := tasks[idx]
	moved.Category = target
	if e.Policy == Keyed {
		out := task.Clone(tasks)
		moved.Order = NextKey(tasks, target)
		out[idx] = moved
		return Change{Tasks: out, Touched: []task.Task{moved}}, nil
	}

	rest := make([]task.Task, 0, len(tasks)-1)
	rest = append(rest, tasks[:idx]...)
	rest = append(rest, tasks[idx+1:]...)
	change, _ := e.Insert(rest, moved)
	return change, nil
}

// NextKey returns 1 + the highest key in cat, or 1 if cat is empty.
func NextKey(tasks []task.Task, cat category.Name) int {
	highest := 0
	for _, t := range tasks {
		if t.Category == cat && t.Order > highest {
			highest = t.Order
		}
	}
	return highest + 1
}

// AssignMissingKeys gives every task without a key one that follows the tasks
// before it in the same category, as if each had been inserted in turn.
func AssignMissingKeys(tasks []task.Task) []task.Task {
	out := task.Clone(tasks)
	for i := range out {
		if out[i].Order == 0 {
			out[i].Order = NextKey(out[:i], out[i].Category)
		}
	}
	return out
}

// spreadKeys makes the keys of siblings strictly increasing in display order,
// raising only those that collide with the one before. It returns the indices
// whose key changed.
func spreadKeys(tasks []task.Task, siblings []int) []int {
	var changed []int
	prev := 0
	for n, i := range siblings {
		if n > 0 && tasks[i].Order <= prev {
			tasks[i].Order = prev + 1
			changed = append(changed, i)
		}
		prev = tasks[i].Order
	}
	return changed
}

// ClearKeys drops every order key. Sequence collections carry position as
// their order, so a key left over from a keyed import would go stale after
// the first local move.
func ClearKeys(tasks []task.Task) []task.Task {
	out := task.Clone(tasks)
	for i := range out {
		out[i].Order = 0
	}
	return out
}

// blockEnd finds the index of the first task of the nearest non-empty category
// after cat. If no later category has tasks, the end of the collection.
func (e Engine) blockEnd(tasks []task.Task, cat category.Name) int {
	for _, next := range e.Categories.After(cat) {
		for i, t := range tasks {
			if t.Category == next {
				return i
			}
		}
	}
	return len(tasks)
}

// siblings returns the indices of tasks in cat, in display order.
func (e Engine) siblings(tasks []task.Task, cat category.Name) []int {
	idx := make([]int, 0)
	for i, t := range tasks {
		if t.Category == cat {
			idx = append(idx, i)
		}
	}
	if e.Policy == Keyed {
		sort.SliceStable(idx, func(a, b int) bool {
			return tasks[idx[a]].Order < tasks[idx[b]].Order
		})
	}
	return idx
}
