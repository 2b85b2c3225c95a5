package incentive

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PER-AGENT AGGREGATOR
// =============================================================================

// dayResult is the allocation of every bucket on one day.
type dayResult struct {
	Day         DateKey
	Allocations []Allocation
}

// agentDays is the raw walk the aggregator and the summary share.
type agentDays struct {
	TotalLeads int
	Days       []dayResult
}

// AggregateAgent computes what agent earned over period.
//
// Qualified leads of the agent inside period are grouped by day. Each day
// is bucketed and allocated independently, and the payouts are summed.
// TotalLeads counts every qualifying lead, whether or not a plan paid for
// it. If the agent has a positive target and TotalLeads >= 2*Target, the
// double-target bonus is added once.
func (e Engine) AggregateAgent(agent Agent, leads []Lead, plans []Plan, period Period) AggregateResult {
	return e.aggregate(agent, leads, plans, period, "")
}

func (e Engine) aggregate(agent Agent, leads []Lead, plans []Plan, period Period, leadTypeFilter string) AggregateResult {
	result := AggregateResult{
		EmployeeID:     agent.ID,
		Name:           agent.Name,
		TotalAmount:    decimal.Zero,
		CountsByAmount: make(AmountCounts),
		BonusAmount:    decimal.Zero,
	}

	walk := e.walkAgent(agent, leads, plans, period, leadTypeFilter)
	result.TotalLeads = walk.TotalLeads
	for _, day := range walk.Days {
		for _, alloc := range day.Allocations {
			result.TotalAmount = result.TotalAmount.Add(alloc.AmountAwarded)
			result.CountsByAmount.Merge(alloc.CountsByAmount)
		}
	}

	if e.reachedDoubleTarget(agent, walk.TotalLeads) {
		result.BonusAwarded = true
		result.BonusAmount = e.DoubleTargetBonus
		result.TotalAmount = result.TotalAmount.Add(e.DoubleTargetBonus)
		result.CountsByAmount.Add(e.DoubleTargetBonus, 1)
	}
	return result
}

func (e Engine) reachedDoubleTarget(agent Agent, totalLeads int) bool {
	return agent.Target > 0 &&
		totalLeads >= 2*agent.Target &&
		e.DoubleTargetBonus.IsPositive()
}

func (e Engine) walkAgent(agent Agent, leads []Lead, plans []Plan, period Period, leadTypeFilter string) agentDays {
	byDay := e.groupByDay(agent.ID, leads, period)

	days := make([]DateKey, 0, len(byDay))
	total := 0
	for day, dayLeads := range byDay {
		days = append(days, day)
		total += len(dayLeads)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	walk := agentDays{TotalLeads: total, Days: make([]dayResult, 0, len(days))}
	for _, day := range days {
		buckets := e.BuildBuckets(plans, byDay[day], leadTypeFilter)
		dr := dayResult{Day: day}
		for _, b := range buckets {
			dr.Allocations = append(dr.Allocations, Allocate(b))
		}
		walk.Days = append(walk.Days, dr)
	}
	return walk
}

// groupByDay keeps the agent's qualified leads whose day falls in period.
// Leads with an unusable date are dropped.
func (e Engine) groupByDay(agentID string, leads []Lead, period Period) map[DateKey][]Lead {
	out := make(map[DateKey][]Lead)
	for _, lead := range leads {
		if !lead.Qualified || lead.AgentID != agentID {
			continue
		}
		day, ok := e.Calendar.Key(lead.Date)
		if !ok || !period.Contains(day) {
			continue
		}
		out[day] = append(out[day], lead)
	}
	return out
}
