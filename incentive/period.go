package incentive

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// PERIOD - The date range every aggregation runs over
// =============================================================================

// Period is an inclusive range of day keys [Start, End].
//
// Examples:
//   - Today:        2025-03-14 .. 2025-03-14
//   - March 2025:   2025-03-01 .. 2025-03-31
//   - Year 2025:    2025-01-01 .. 2025-12-31
type Period struct {
	Start DateKey
	End   DateKey
}

// NewPeriod validates an explicit range.
func NewPeriod(start, end DateKey) (Period, error) {
	if !start.Valid() || !end.Valid() {
		return Period{}, fmt.Errorf("%w: %q..%q", ErrInvalidDate, start, end)
	}
	if end < start {
		return Period{}, fmt.Errorf("%w: %s..%s", ErrInvalidPeriod, start, end)
	}
	return Period{Start: start, End: end}, nil
}

// Contains returns true if k is within [Start, End].
func (p Period) Contains(k DateKey) bool {
	return k != "" && p.Start <= k && k <= p.End
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MonthPeriod returns the calendar month.
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Period{
		Start: DateKey(start.Format(DateKeyLayout)),
		End:   DateKey(end.Format(DateKeyLayout)),
	}
}

// YearPeriod returns Jan 1 - Dec 31.
func YearPeriod(year int) Period {
	return Period{
		Start: DateKey(fmt.Sprintf("%04d-01-01", year)),
		End:   DateKey(fmt.Sprintf("%04d-12-31", year)),
	}
}

// =============================================================================
// RANGE SPEC - Named ranges as requested by callers
// =============================================================================

// RangeKind names how a Period is chosen.
type RangeKind string

const (
	RangeToday  RangeKind = "today"
	RangeMonth  RangeKind = "month"
	RangeYear   RangeKind = "year"
	RangeCustom RangeKind = "custom"
)

// RangeSpec is an unresolved range. Zero Year/Month mean "current".
type RangeSpec struct {
	Kind  RangeKind
	Year  int
	Month time.Month
	From  string
	To    string
}

// Resolve turns a RangeSpec into a Period relative to now.
func (c Calendar) Resolve(spec RangeSpec, now time.Time) (Period, error) {
	local := now.In(c.loc())
	year := spec.Year
	if year == 0 {
		year = local.Year()
	}

	switch RangeKind(strings.ToLower(string(spec.Kind))) {
	case RangeToday, "":
		return c.Today(now), nil

	case RangeMonth:
		month := spec.Month
		if month == 0 {
			month = local.Month()
		}
		if month < time.January || month > time.December {
			return Period{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
		}
		return MonthPeriod(year, month), nil

	case RangeYear:
		return YearPeriod(year), nil

	case RangeCustom:
		from, ok := c.ParseKey(spec.From)
		if !ok {
			return Period{}, fmt.Errorf("%w: from %q", ErrInvalidDate, spec.From)
		}
		to, ok := c.ParseKey(spec.To)
		if !ok {
			return Period{}, fmt.Errorf("%w: to %q", ErrInvalidDate, spec.To)
		}
		return NewPeriod(from, to)

	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownRange, spec.Kind)
	}
}
