// Package category defines the fixed, ordered set of task categories.
package category

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Name identifies a category. Names are the persisted form.
type Name string

const (
	// Ongoing tasks are recurring and reset once per calendar day.
	Ongoing Name = "ONGOING"
	// ClientWork holds paid or committed work for others.
	ClientWork Name = "CLIENT WORK"
	// Urgent tasks need doing now.
	Urgent Name = "URGENT"
	// High is high priority.
	High Name = "HIGH PRIORITY"
	// Medium is medium priority.
	Medium Name = "MEDIUM PRIORITY"
)

// Category describes one entry of a Set.
type Category struct {
	Name        Name
	Short       string
	Color       []color.Attribute
	ResetsDaily bool
}

// Set is an ordered, immutable list of categories. The order of the set is the
// order categories are displayed in and the order insertion blocks follow.
type Set struct {
	cats []Category
}

// NewSet builds a Set from the given categories in display order.
func NewSet(cats ...Category) Set {
	cp := make([]Category, len(cats))
	copy(cp, cats)
	return Set{cats: cp}
}

var defaults = NewSet(
	Category{Name: Ongoing, Short: "ONGOING", Color: []color.Attribute{color.FgBlue}, ResetsDaily: true},
	Category{Name: ClientWork, Short: "CLIENT", Color: []color.Attribute{color.FgGreen}},
	Category{Name: Urgent, Short: "URGENT", Color: []color.Attribute{color.FgRed}},
	Category{Name: High, Short: "HIGH", Color: []color.Attribute{color.FgHiRed}},
	Category{Name: Medium, Short: "MEDIUM", Color: []color.Attribute{color.FgYellow}},
)

// Default returns the process-wide category set.
func Default() Set {
	return defaults
}

// Len reports the number of categories.
func (s Set) Len() int {
	return len(s.cats)
}

// All returns a copy of the categories in display order.
func (s Set) All() []Category {
	cp := make([]Category, len(s.cats))
	copy(cp, s.cats)
	return cp
}

// Names returns the category names in display order.
func (s Set) Names() []Name {
	names := make([]Name, len(s.cats))
	for i, c := range s.cats {
		names[i] = c.Name
	}
	return names
}

// Index returns the display position of name, or -1 when it is not in the set.
func (s Set) Index(name Name) int {
	for i, c := range s.cats {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Contains reports whether name belongs to the set.
func (s Set) Contains(name Name) bool {
	return s.Index(name) >= 0
}

// Get looks up a category by name.
func (s Set) Get(name Name) (Category, bool) {
	if i := s.Index(name); i >= 0 {
		return s.cats[i], true
	}
	return Category{}, false
}

// ResetsDaily reports whether tasks in name are cleared by the daily reset.
func (s Set) ResetsDaily(name Name) bool {
	c, ok := s.Get(name)
	return ok && c.ResetsDaily
}

// After returns the categories displayed after name, nearest first.
func (s Set) After(name Name) []Name {
	i := s.Index(name)
	if i < 0 {
		return nil
	}
	out := make([]Name, 0, len(s.cats)-i-1)
	for _, c := range s.cats[i+1:] {
		out = append(out, c.Name)
	}
	return out
}

// Parse converts user input to a category name. Full names and short labels are
// accepted, case-insensitively.
func (s Set) Parse(raw string) (Name, error) {
	want := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	if want == "" {
		return "", fmt.Errorf("category: name required")
	}
	for _, c := range s.cats {
		if string(c.Name) == want || strings.ToUpper(c.Short) == want {
			return c.Name, nil
		}
	}
	return "", fmt.Errorf("category: unknown category %q", raw)
}

// MustParse parses the input and panics on error. Intended for tests/config.
func (s Set) MustParse(raw string) Name {
	n, err := s.Parse(raw)
	if err != nil {
		panic(err)
	}
	return n
}
