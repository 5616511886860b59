package clock

import (
	"fmt"
	"time"
)

// Layout is the timestamp format on the wire: RFC 3339, UTC, second precision.
const Layout = "2006-01-02T15:04:05Z"

func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse reads a wire-format timestamp back into a time.Time.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a valid time: %s", s)
	}
	return t, nil
}
