// Package interchange converts a task collection to and from the textual
// export document used to move tasks between devices.
package interchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/reset"
	"tableflip.dev/taskboard/pkg/task"
)

// Format selects the document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat validates a format name. Empty means JSON.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", JSON:
		return JSON, nil
	case YAML, "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("interchange: unknown format %q (expected json or yaml)", raw)
	}
}

const (
	layoutDate = "Monday, 2 January 2006"
	layoutTime = "3:04:05 pm"
)

// Document is the export payload. ExportDate and ExportTime are informational
// only and never read back.
type Document struct {
	Tasks      []task.Task `json:"tasks" yaml:"tasks"`
	ExportDate string      `json:"exportDate,omitempty" yaml:"exportDate,omitempty"`
	ExportTime string      `json:"exportTime,omitempty" yaml:"exportTime,omitempty"`
}

// FormatError reports text that is not a valid export document.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("interchange: %s: %v", e.Reason, e.Err)
	}
	return "interchange: " + e.Reason
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Export renders tasks with a human readable export date and time.
func Export(tasks []task.Task, now time.Time, format Format) ([]byte, error) {
	local := now.In(reset.Location())
	if tasks == nil {
		tasks = []task.Task{}
	}
	doc := Document{
		Tasks:      tasks,
		ExportDate: local.Format(layoutDate),
		ExportTime: local.Format(layoutTime),
	}
	switch format {
	case YAML:
		return yaml.Marshal(doc)
	case JSON, "":
		return json.MarshalIndent(doc, "", "  ")
	default:
		return nil, fmt.Errorf("interchange: unknown format %q", format)
	}
}

// Decode parses an export document. JSON is detected by a leading '{';
// anything else is treated as YAML. Every task must name a known category,
// carry non-empty text and have an id unique within the document. Tasks with
// no id are returned with an empty ID for the caller to assign.
func Decode(data []byte, cats category.Set) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, &FormatError{Reason: "empty document"}
	}

	var raw struct {
		Tasks      *[]task.Task `json:"tasks" yaml:"tasks"`
		ExportDate string       `json:"exportDate" yaml:"exportDate"`
		ExportTime string       `json:"exportTime" yaml:"exportTime"`
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Document{}, &FormatError{Reason: "malformed JSON", Err: err}
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &raw); err != nil {
			return Document{}, &FormatError{Reason: "malformed YAML", Err: err}
		}
	}
	if raw.Tasks == nil {
		return Document{}, &FormatError{Reason: "missing task list"}
	}

	seen := make(map[task.ID]struct{}, len(*raw.Tasks))
	for i, t := range *raw.Tasks {
		if !cats.Contains(t.Category) {
			return Document{}, &FormatError{Reason: fmt.Sprintf("task %d: unknown category %q", i+1, t.Category)}
		}
		if task.Blank(t.Text) {
			return Document{}, &FormatError{Reason: fmt.Sprintf("task %d: empty text", i+1)}
		}
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			return Document{}, &FormatError{Reason: fmt.Sprintf("task %d: duplicate id %q", i+1, t.ID)}
		}
		seen[t.ID] = struct{}{}
	}

	return Document{
		Tasks:      *raw.Tasks,
		ExportDate: raw.ExportDate,
		ExportTime: raw.ExportTime,
	}, nil
}

// Source describes where a decoded document came from for user messages.
func (d Document) Source() string {
	if strings.TrimSpace(d.ExportDate) == "" {
		return "another device"
	}
	return d.ExportDate
}
