package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ID identifies a task. Local stores hand out small integers, synced stores
// hand out time-ordered UUIDs; both are carried as text and integers are
// written back out as JSON numbers.
type ID string

// Int returns the integer value of a numeric id.
func (id ID) Int() (int, bool) {
	n, err := strconv.Atoi(string(id))
	if err != nil || n < 0 || strconv.Itoa(n) != string(id) {
		return 0, false
	}
	return n, true
}

func (id ID) String() string {
	return string(id)
}

// MarshalJSON writes numeric ids as numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, ok := id.Int(); ok {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("task: id must be a number or string: %w", err)
		}
		*id = ID(n.String())
		return nil
	}
}

// MarshalYAML mirrors MarshalJSON.
func (id ID) MarshalYAML() (interface{}, error) {
	if n, ok := id.Int(); ok {
		return n, nil
	}
	return string(id), nil
}

// UnmarshalYAML accepts any scalar.
func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("task: id must be a scalar, line %d", node.Line)
	}
	if node.Tag == "!!null" {
		*id = ""
		return nil
	}
	*id = ID(node.Value)
	return nil
}

// NextLocalID returns max(existing numeric ids)+1, starting at 1.
func NextLocalID(tasks []Task) ID {
	highest := 0
	for _, t := range tasks {
		if n, ok := t.ID.Int(); ok && n > highest {
			highest = n
		}
	}
	return ID(strconv.Itoa(highest + 1))
}

// NewDocumentID returns a collision-resistant, time-ordered id for synced stores.
func NewDocumentID() (ID, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("task: generate id: %w", err)
	}
	return ID(u.String()), nil
}
