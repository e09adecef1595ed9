// Package reset clears the completed flag on recurring tasks once per
// calendar day. Days are measured in a single fixed time zone so the boundary
// does not depend on where the client runs.
package reset

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/task"
)

// Zone is the reference time zone for day boundaries.
const Zone = "Australia/Sydney"

const layoutISO = "2006-01-02"

var location = mustLoad(Zone)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("reset: load %s: %v", name, err))
	}
	return loc
}

// Location returns the reference time zone.
func Location() *time.Location {
	return location
}

// DateKey formats t as YYYY-MM-DD in the reference time zone.
func DateKey(t time.Time) string {
	return t.In(location).Format(layoutISO)
}

// ValidKey reports whether key is a well formed date key.
func ValidKey(key string) bool {
	_, err := time.ParseInLocation(layoutISO, key, location)
	return err == nil
}

// Result is the outcome of Apply.
type Result struct {
	Tasks   []task.Task
	DateKey string
	Changed bool
	// Cleared lists the tasks whose completed flag was actually flipped.
	Cleared []task.Task
}

// Apply clears completed on every task in a daily-reset category when today
// differs from lastKey. It is pure: callers persist the tasks in Cleared and
// then the new date key.
func Apply(cats category.Set, tasks []task.Task, lastKey, today string) Result {
	if today == lastKey {
		return Result{Tasks: task.Clone(tasks), DateKey: lastKey}
	}
	out := task.Clone(tasks)
	var cleared []task.Task
	for i := range out {
		if !cats.ResetsDaily(out[i].Category) || !out[i].Completed {
			continue
		}
		out[i].Completed = false
		cleared = append(cleared, out[i])
	}
	return Result{Tasks: out, DateKey: today, Changed: true, Cleared: cleared}
}
