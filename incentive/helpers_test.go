package incentive_test

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newEngine() incentive.Engine {
	return incentive.NewEngine()
}

// on returns 10:00 UTC of the given date ("2025-03-14").
func on(date string) time.Time {
	t, err := time.Parse(incentive.DateKeyLayout, date)
	if err != nil {
		panic(err)
	}
	return t.Add(10 * time.Hour)
}

func midnight(date string) time.Time {
	t, err := time.Parse(incentive.DateKeyLayout, date)
	if err != nil {
		panic(err)
	}
	return t
}

func amt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func intp(n int) *int { return &n }

func rule(id, leadType string, required int, amount int64) incentive.Rule {
	return incentive.Rule{
		ID:            id,
		LeadType:      leadType,
		LeadsRequired: required,
		Amount:        amt(amount),
		IsActive:      true,
	}
}

// plan builds an active plan valid from 'from' until 'to' ("" = open-ended).
func plan(id, from, to string, rules ...incentive.Rule) incentive.Plan {
	p := incentive.Plan{
		ID:        id,
		Title:     id,
		ValidFrom: midnight(from),
		IsActive:  true,
		CreatedAt: midnight(from),
	}
	if to != "" {
		end := midnight(to)
		p.ValidTo = &end
	}
	for _, r := range rules {
		r.PlanID = id
		p.Rules = append(p.Rules, r)
	}
	return p
}

// leads builds n qualified leads for agentID on date.
func leads(agentID, date, leadType, country string, n int) []incentive.Lead {
	out := make([]incentive.Lead, n)
	for i := range out {
		out[i] = incentive.Lead{
			ID:        fmt.Sprintf("%s-%s-%d", agentID, date, i),
			AgentID:   agentID,
			Date:      on(date).Add(time.Duration(i) * time.Minute),
			LeadType:  leadType,
			Country:   country,
			Qualified: true,
		}
	}
	return out
}

func concat(batches ...[]incentive.Lead) []incentive.Lead {
	var out []incentive.Lead
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

func agent(id, name string, target int) incentive.Agent {
	return incentive.Agent{ID: id, Name: name, Target: target, IsActive: true}
}

func march2025() incentive.Period {
	return incentive.MonthPeriod(2025, time.March)
}
