package incentive

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INCENTIVE SUMMARY - Who achieved which rule in a month
// =============================================================================

// Achievement is one agent hitting one rule on one day.
type Achievement struct {
	AgentID   string
	AgentName string
	Day       DateKey
	Times     int
	Amount    decimal.Decimal
}

// RuleAchieverGroup lists everyone who achieved a rule.
type RuleAchieverGroup struct {
	Rule        ResolvedRule
	Achievers   []Achievement
	TotalTimes  int
	TotalAmount decimal.Decimal
}

// AgentBonusEntry is an agent who crossed the double-target threshold.
type AgentBonusEntry struct {
	AgentID    string
	Name       string
	Target     int
	TotalLeads int
	Amount     decimal.Decimal
}

// Summary is the monthly achiever breakdown.
type Summary struct {
	Period              Period
	Rules               []RuleAchieverGroup
	MonthlyDoubleTarget []AgentBonusEntry
}

// BuildIncentiveSummary re-runs the daily bucket allocation for the month
// and records each individual achievement instead of only summing.
//
// Every active rule of every plan overlapping the month gets a group, even
// without achievers. Groups are ordered attendees, association, industry,
// then everything else, and by rule ID then plan ID within a category.
func (e Engine) BuildIncentiveSummary(agents []Agent, leads []Lead, plans []Plan, year int, month time.Month) Summary {
	period := MonthPeriod(year, month)
	summary := Summary{Period: period}

	// Rule IDs are only unique within a plan.
	groups := make(map[ruleRef]*RuleAchieverGroup)
	var order []ruleRef
	ensure := func(rr ResolvedRule) *RuleAchieverGroup {
		ref := ruleRef{PlanID: rr.PlanID, ID: rr.ID}
		if g, ok := groups[ref]; ok {
			return g
		}
		g := &RuleAchieverGroup{Rule: rr, TotalAmount: decimal.Zero}
		groups[ref] = g
		order = append(order, ref)
		return g
	}

	for _, p := range plans {
		if !e.overlaps(p, period) {
			continue
		}
		for _, r := range p.Rules {
			if r.IsActive {
				ensure(resolve(p, r))
			}
		}
	}

	for _, agent := range rankable(agents) {
		walk := e.walkAgent(agent, leads, plans, period, "")
		for _, day := range walk.Days {
			for _, alloc := range day.Allocations {
				for _, award := range alloc.Awards {
					g := ensure(award.Rule)
					g.Achievers = append(g.Achievers, Achievement{
						AgentID:   agent.ID,
						AgentName: agent.Name,
						Day:       day.Day,
						Times:     award.Times,
						Amount:    award.Amount,
					})
					g.TotalTimes += award.Times
					g.TotalAmount = g.TotalAmount.Add(award.Amount)
				}
			}
		}
		if e.reachedDoubleTarget(agent, walk.TotalLeads) {
			summary.MonthlyDoubleTarget = append(summary.MonthlyDoubleTarget, AgentBonusEntry{
				AgentID:    agent.ID,
				Name:       agent.Name,
				Target:     agent.Target,
				TotalLeads: walk.TotalLeads,
				Amount:     e.DoubleTargetBonus,
			})
		}
	}

	summary.Rules = make([]RuleAchieverGroup, 0, len(order))
	for _, ref := range order {
		g := groups[ref]
		sort.SliceStable(g.Achievers, func(i, j int) bool {
			a, b := g.Achievers[i], g.Achievers[j]
			if a.Day != b.Day {
				return a.Day < b.Day
			}
			if a.AgentName != b.AgentName {
				return a.AgentName < b.AgentName
			}
			return a.AgentID < b.AgentID
		})
		summary.Rules = append(summary.Rules, *g)
	}
	sort.SliceStable(summary.Rules, func(i, j int) bool {
		pi := e.leadTypePriority(summary.Rules[i].Rule.LeadType)
		pj := e.leadTypePriority(summary.Rules[j].Rule.LeadType)
		if pi != pj {
			return pi < pj
		}
		a, b := summary.Rules[i].Rule, summary.Rules[j].Rule
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.PlanID < b.PlanID
	})
	sort.SliceStable(summary.MonthlyDoubleTarget, func(i, j int) bool {
		a, b := summary.MonthlyDoubleTarget[i], summary.MonthlyDoubleTarget[j]
		if a.TotalLeads != b.TotalLeads {
			return a.TotalLeads > b.TotalLeads
		}
		return a.Name < b.Name
	})
	return summary
}

type ruleRef struct {
	PlanID string
	ID     string
}

// leadTypePriority is the display order of rule categories.
func (e Engine) leadTypePriority(leadType string) int {
	key := e.Normalizer.LeadType(leadType)
	switch {
	case isAttendees(key):
		return 0
	case strings.Contains(key, "association"):
		return 1
	case isIndustry(key):
		return 2
	default:
		return 3
	}
}
