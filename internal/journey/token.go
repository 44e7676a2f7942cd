package journey

import (
	"fmt"
	"time"
)

// FormatToken builds the human-facing visit token, e.g. CGH-20261016-0007.
func FormatToken(hospitalCode string, day time.Time, sequence int) string {
	return fmt.Sprintf("%s-%s-%04d", hospitalCode, day.Format("20060102"), sequence)
}

// startOfDay returns local midnight of t in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
