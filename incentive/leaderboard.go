package incentive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEADERBOARD
// =============================================================================

// SortKey orders leaderboard results.
type SortKey string

const (
	SortAmountDesc SortKey = "amount_desc"
	SortAmountAsc  SortKey = "amount_asc"
	SortLeadsDesc  SortKey = "leads_desc"
	SortNameAsc    SortKey = "name_asc"
)

// ParseSortKey accepts the API spelling of a sort key. Empty means
// SortAmountDesc.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortAmountDesc, nil
	case SortAmountDesc, SortAmountAsc, SortLeadsDesc, SortNameAsc:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
}

// LeaderboardQuery describes one leaderboard request.
type LeaderboardQuery struct {
	Period      Period
	Sort        SortKey
	LeadType    string // optional; restricts rules to one lead type
	Limit       int    // <= 0 means no limit
	EarnersOnly bool   // drop agents whose TotalAmount is zero
}

// Leaderboard is the ranked view. Columns are the distinct payout amounts
// (rule amounts plus the bonus), highest first.
type Leaderboard struct {
	Period  Period
	Columns []decimal.Decimal
	Results []AggregateResult
}

// BuildLeaderboard aggregates every active, non-admin agent over q.Period
// and ranks them.
func (e Engine) BuildLeaderboard(agents []Agent, leads []Lead, plans []Plan, q LeaderboardQuery) Leaderboard {
	results := make([]AggregateResult, 0, len(agents))
	for _, agent := range rankable(agents) {
		r := e.aggregate(agent, leads, plans, q.Period, q.LeadType)
		if q.EarnersOnly && !r.TotalAmount.IsPositive() {
			continue
		}
		results = append(results, r)
	}

	sortResults(results, q.Sort)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	return Leaderboard{
		Period:  q.Period,
		Columns: e.Columns(plans),
		Results: results,
	}
}

// Columns returns every distinct positive rule amount across plans plus the
// double-target bonus, sorted descending.
func (e Engine) Columns(plans []Plan) []decimal.Decimal {
	seen := make(map[string]bool)
	var cols []decimal.Decimal
	add := func(d decimal.Decimal) {
		if !d.IsPositive() || seen[d.String()] {
			return
		}
		seen[d.String()] = true
		cols = append(cols, d)
	}
	for _, p := range plans {
		for _, r := range p.Rules {
			add(r.Amount)
		}
	}
	add(e.DoubleTargetBonus)
	sort.Slice(cols, func(i, j int) bool { return cols[i].GreaterThan(cols[j]) })
	return cols
}

// rankable keeps active agents that are not administrators.
func rankable(agents []Agent) []Agent {
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		if a.IsActive && !a.IsAdmin {
			out = append(out, a)
		}
	}
	return out
}

func sortResults(results []AggregateResult, key SortKey) {
	byName := func(a, b AggregateResult) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.EmployeeID < b.EmployeeID
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		switch key {
		case SortAmountAsc:
			if !a.TotalAmount.Equal(b.TotalAmount) {
				return a.TotalAmount.LessThan(b.TotalAmount)
			}
		case SortLeadsDesc:
			if a.TotalLeads != b.TotalLeads {
				return a.TotalLeads > b.TotalLeads
			}
		case SortNameAsc:
			// falls through to name ordering
		default:
			if !a.TotalAmount.Equal(b.TotalAmount) {
				return a.TotalAmount.GreaterThan(b.TotalAmount)
			}
		}
		return byName(a, b)
	})
}
