/*
Package incentive provides the incentive resolution and aggregation engine.

PURPOSE:
  Sales agents earn money for qualified leads. What a lead is worth depends
  on the incentive plans that were valid on the day it counted, and on the
  reward rules inside those plans. This package answers, for any date range,
  how much each agent earned, which reward tiers they hit, and how often.

KEY CONCEPTS IN THIS FILE (types.go):
  - Plan: A time-bounded container of reward rules, [ValidFrom, ValidTo)
  - Rule: One reward tier (criteria + LeadsRequired threshold + Amount)
  - Lead: A dated, typed record belonging to one agent
  - Agent: An employee with a monthly Target
  - ResolvedRule: A rule flattened with the plan fields needed for tie-breaks
  - AmountCounts: How many times each reward amount was paid
  - AggregateResult: Per-agent output of the aggregator

PIPELINE:
  leads + plans
    -> resolver.go   plans valid on a day
    -> bucket.go     rules grouped by matching signature, deduplicated per tier
    -> allocator.go  greedy largest-tier-first payout per bucket
    -> aggregator.go per-agent totals over a period, double-target bonus
    -> leaderboard.go / summary.go presentation views

DESIGN PRINCIPLES:
  1. Pure: nothing here mutates its inputs, logs, or touches storage
  2. Deterministic: same snapshot in, same result out
  3. Precision: money is decimal.Decimal, never float64
  4. Tolerant: bad dates and degenerate rules are skipped, never fatal

SEE ALSO:
  - engine.go: The Engine facade that exposes the operations
  - normalize/: Free-text canonicalization used by the matcher
*/
package incentive

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PLANS AND RULES
// =============================================================================

// Plan is a versioned, time-bounded set of reward rules.
// IsActive is administrative visibility only; the resolver never reads it.
type Plan struct {
	ID          string
	Title       string
	Description string
	ValidFrom   time.Time  // inclusive
	ValidTo     *time.Time // exclusive, nil = open-ended
	IsActive    bool
	CreatedAt   time.Time
	Rules       []Rule
}

// Rule is a single reward tier definition.
type Rule struct {
	ID                string
	PlanID            string
	LeadType          string
	Country           string // comma-separated, empty = any country
	AttendeesMinCount *int   // only for attendees lead types
	IndustryDomain    string // only for industry lead types
	LeadsRequired     int
	Amount            decimal.Decimal
	IsActive          bool
}

// Eligible reports whether the rule can ever award anything.
func (r Rule) Eligible() bool {
	return r.LeadsRequired > 0 && r.Amount.IsPositive()
}

// ResolvedRule is a rule carrying a copy of its plan's identity and dates.
// Buckets hold these instead of pointers back into the plan graph.
type ResolvedRule struct {
	Rule
	PlanTitle     string
	PlanValidFrom time.Time
	PlanCreatedAt time.Time
}

func resolve(p Plan, r Rule) ResolvedRule {
	if r.PlanID == "" {
		r.PlanID = p.ID
	}
	return ResolvedRule{
		Rule:          r,
		PlanTitle:     p.Title,
		PlanValidFrom: p.ValidFrom,
		PlanCreatedAt: p.CreatedAt,
	}
}

// supersedes reports whether r should replace other at the same tier.
// The plan with the later ValidFrom wins; equal starts fall back to the
// more recently created plan.
func (r ResolvedRule) supersedes(other ResolvedRule) bool {
	if !r.PlanValidFrom.Equal(other.PlanValidFrom) {
		return r.PlanValidFrom.After(other.PlanValidFrom)
	}
	return r.PlanCreatedAt.After(other.PlanCreatedAt)
}

// =============================================================================
// LEADS AND AGENTS
// =============================================================================

// Lead is consumed from the lead-tracking system. Only qualified leads count.
type Lead struct {
	ID             string
	AgentID        string
	Date           time.Time
	LeadType       string
	Country        string
	AttendeesCount *int
	IndustryDomain string
	Qualified      bool
}

// Agent is a sales employee. Target is the monthly lead target.
type Agent struct {
	ID       string
	Name     string
	Target   int
	IsActive bool
	IsAdmin  bool
}

// =============================================================================
// AMOUNT COUNTS - payout amount -> times awarded
// =============================================================================

// AmountCounts maps a reward amount (canonical decimal string) to the number
// of times it was paid.
type AmountCounts map[string]int

// AmountCount is one entry of AmountCounts in display order.
type AmountCount struct {
	Amount decimal.Decimal
	Count  int
}

// Add records n payouts of amount.
func (c AmountCounts) Add(amount decimal.Decimal, n int) {
	if n == 0 {
		return
	}
	c[amount.String()] += n
}

// Merge sums other into c.
func (c AmountCounts) Merge(other AmountCounts) {
	for k, n := range other {
		c[k] += n
	}
}

// Count returns the number of payouts of amount.
func (c AmountCounts) Count(amount decimal.Decimal) int {
	return c[amount.String()]
}

// Entries returns the counts ordered by amount, highest first.
func (c AmountCounts) Entries() []AmountCount {
	out := make([]AmountCount, 0, len(c))
	for k, n := range c {
		d, err := decimal.NewFromString(k)
		if err != nil {
			continue
		}
		out = append(out, AmountCount{Amount: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Amount.GreaterThan(out[j].Amount) })
	return out
}

// =============================================================================
// AGGREGATE RESULT
// =============================================================================

// AggregateResult is what one agent earned over a period.
type AggregateResult struct {
	EmployeeID     string
	Name           string
	TotalLeads     int
	TotalAmount    decimal.Decimal
	CountsByAmount AmountCounts

	// Double-target bonus, included in TotalAmount when awarded.
	BonusAwarded bool
	BonusAmount  decimal.Decimal
}
