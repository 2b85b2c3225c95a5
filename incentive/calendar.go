package incentive

import (
	"strings"
	"time"
)

// =============================================================================
// DATE KEY - Day identity in the reference timezone
// =============================================================================

// DateKeyLayout is the format of every DateKey.
const DateKeyLayout = "2006-01-02"

// DateKey is a calendar day "yyyy-MM-dd" in the calendar's reference zone.
// Keys compare correctly as strings.
type DateKey string

func (k DateKey) String() string { return string(k) }

// Valid reports whether k is a well-formed key.
func (k DateKey) Valid() bool {
	_, err := time.Parse(DateKeyLayout, string(k))
	return err == nil
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar turns instants into day keys in a single reference timezone.
// All day bucketing in this package goes through a Calendar. The zero value
// uses UTC.
type Calendar struct {
	Location *time.Location
}

// NewCalendar returns a calendar for loc (UTC when nil).
func NewCalendar(loc *time.Location) Calendar {
	return Calendar{Location: loc}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Key returns the day key of t. The zero time is treated as unparseable and
// yields ok=false.
func (c Calendar) Key(t time.Time) (DateKey, bool) {
	if t.IsZero() {
		return "", false
	}
	return DateKey(t.In(c.loc()).Format(DateKeyLayout)), true
}

// parseLayouts are tried in order by ParseTime. Layouts without a zone are
// read in the calendar's location.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateKeyLayout,
}

// ParseTime parses a date or timestamp string. Date-only and zone-less input
// is interpreted in the calendar's location.
func (c Calendar) ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, c.loc()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseKey parses s and returns its day key.
func (c Calendar) ParseKey(s string) (DateKey, bool) {
	t, ok := c.ParseTime(s)
	if !ok {
		return "", false
	}
	return c.Key(t)
}

// StartOf returns midnight of k in the calendar's location.
func (c Calendar) StartOf(k DateKey) (time.Time, bool) {
	t, err := time.ParseInLocation(DateKeyLayout, string(k), c.loc())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Today returns the single-day period containing now.
func (c Calendar) Today(now time.Time) Period {
	k, _ := c.Key(now)
	return Period{Start: k, End: k}
}

// Bounds returns the half-open instant range [from, to) covered by p.
// Stores use it to pre-filter leads; the engine still filters by key.
func (c Calendar) Bounds(p Period) (from, to time.Time, ok bool) {
	from, ok1 := c.StartOf(p.Start)
	end, ok2 := c.StartOf(p.End)
	if !ok1 || !ok2 {
		return time.Time{}, time.Time{}, false
	}
	return from, end.AddDate(0, 0, 1), true
}
