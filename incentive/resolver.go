package incentive

import "time"

// =============================================================================
// TEMPORAL PLAN RESOLVER
// =============================================================================

// ResolvePlansForDate returns every plan whose [ValidFrom, ValidTo) interval
// covers the day of date. Several plans being valid at once is normal.
// IsActive is deliberately not consulted so that historical leads keep
// resolving against the plan that was valid when they were created.
func (e Engine) ResolvePlansForDate(plans []Plan, date time.Time) []Plan {
	k, ok := e.Calendar.Key(date)
	if !ok {
		return nil
	}
	return e.plansForKey(plans, k)
}

// FindPlanForDate returns the single covering plan with the latest ValidFrom.
// Aggregation uses ResolvePlansForDate; this exists for single-plan callers.
func (e Engine) FindPlanForDate(plans []Plan, date time.Time) (Plan, bool) {
	var best Plan
	found := false
	for _, p := range e.ResolvePlansForDate(plans, date) {
		if !found || p.ValidFrom.After(best.ValidFrom) {
			best, found = p, true
		}
	}
	return best, found
}

func (e Engine) plansForKey(plans []Plan, k DateKey) []Plan {
	var out []Plan
	for _, p := range plans {
		if e.covers(p, k) {
			out = append(out, p)
		}
	}
	return out
}

// covers: key(ValidFrom) <= k < key(ValidTo).
func (e Engine) covers(p Plan, k DateKey) bool {
	from, ok := e.Calendar.Key(p.ValidFrom)
	if !ok || k < from {
		return false
	}
	if p.ValidTo == nil {
		return true
	}
	to, ok := e.Calendar.Key(*p.ValidTo)
	if !ok {
		// A malformed end date is treated as open-ended.
		return true
	}
	return k < to
}

// overlaps reports whether any day of period is covered by p.
func (e Engine) overlaps(p Plan, period Period) bool {
	from, ok := e.Calendar.Key(p.ValidFrom)
	if !ok || from > period.End {
		return false
	}
	if p.ValidTo == nil {
		return true
	}
	to, ok := e.Calendar.Key(*p.ValidTo)
	if !ok {
		return true
	}
	return to > period.Start
}
