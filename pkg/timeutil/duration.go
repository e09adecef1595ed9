// Package timeutil parses the compact lifetimes accepted on the command line.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

var (
	segmentPattern = regexp.MustCompile(`^\s*(\d+)\s*([a-z]+)`)
	units          = map[string]time.Duration{
		"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
		"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
		"d": day, "day": day, "days": day,
		"w": week, "wk": week, "wks": week, "week": week, "weeks": week,
	}
)

// ParseTTL reads lifetimes such as "30d", "12h" or "1w2d". "0", "never" and
// "none" mean no expiry and return zero.
func ParseTTL(input string) (time.Duration, error) {
	remaining := strings.ToLower(strings.TrimSpace(input))
	switch remaining {
	case "":
		return 0, fmt.Errorf("lifetime required")
	case "0", "never", "none":
		return 0, nil
	}

	var total time.Duration
	for len(remaining) > 0 {
		m := segmentPattern.FindStringSubmatch(remaining)
		if len(m) != 3 {
			return 0, fmt.Errorf("invalid lifetime segment %q", strings.TrimSpace(remaining))
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid lifetime value %q: %w", m[1], err)
		}
		unit, ok := units[m[2]]
		if !ok {
			return 0, fmt.Errorf("unsupported lifetime unit %q", m[2])
		}
		total += time.Duration(n) * unit
		remaining = remaining[len(m[0]):]
	}
	if total <= 0 {
		return 0, fmt.Errorf("lifetime must be greater than zero")
	}
	return total, nil
}

// FormatTTL renders d with week, day, hour and minute tokens; zero is "never".
func FormatTTL(d time.Duration) string {
	if d <= 0 {
		return "never"
	}
	var b strings.Builder
	for _, u := range []struct {
		label string
		value time.Duration
	}{{"w", week}, {"d", day}, {"h", time.Hour}, {"m", time.Minute}} {
		if d < u.value {
			continue
		}
		fmt.Fprintf(&b, "%d%s", d/u.value, u.label)
		d %= u.value
	}
	if b.Len() == 0 {
		return "0m"
	}
	return b.String()
}
