// Package task defines the task entity shared by every storage backend.
package task

import (
	"fmt"
	"strings"
	"time"

	"tableflip.dev/taskboard/pkg/category"
)

// Task is a single to-do item.
type Task struct {
	ID        ID            `json:"id" yaml:"id"`
	Text      string        `json:"text" yaml:"text"`
	Category  category.Name `json:"category" yaml:"category"`
	Completed bool          `json:"completed" yaml:"completed"`
	// Order is the intra-category sort key used by keyed stores. Zero means
	// unassigned; assigned keys start at 1.
	Order     int        `json:"order,omitempty" yaml:"order,omitempty"`
	CreatedAt *Timestamp `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// New returns an incomplete task stamped with now.
func New(id ID, text string, cat category.Name, now time.Time) Task {
	return Task{
		ID:        id,
		Text:      text,
		Category:  cat,
		CreatedAt: &Timestamp{Time: now},
	}
}

// Blank reports whether text would be ignored by an add action.
func Blank(text string) bool {
	return strings.TrimSpace(text) == ""
}

func (t Task) String() string {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s (%s)", mark, t.Text, t.Category)
}

// Clone copies the collection so callers can mutate the result freely.
func Clone(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		if t.CreatedAt != nil {
			ts := *t.CreatedAt
			t.CreatedAt = &ts
		}
		out[i] = t
	}
	return out
}

// IndexOf returns the position of id in tasks, or -1.
func IndexOf(tasks []Task, id ID) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the task with id.
func Find(tasks []Task, id ID) (Task, bool) {
	if i := IndexOf(tasks, id); i >= 0 {
		return tasks[i], true
	}
	return Task{}, false
}

// Equal compares the persisted fields of two tasks.
func Equal(a, b Task) bool {
	if a.ID != b.ID || a.Text != b.Text || a.Category != b.Category ||
		a.Completed != b.Completed || a.Order != b.Order {
		return false
	}
	switch {
	case a.CreatedAt == nil && b.CreatedAt == nil:
		return true
	case a.CreatedAt == nil || b.CreatedAt == nil:
		return false
	default:
		return a.CreatedAt.Equal(b.CreatedAt.Time)
	}
}

// EqualAll compares two collections element by element.
func EqualAll(a, b []Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
