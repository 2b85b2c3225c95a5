package incentive_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/incentive-engine/incentive"
)

func standardPlans() []incentive.Plan {
	return []incentive.Plan{
		plan("standard", "2025-03-01", "2025-04-01", rule("std-10", "Attendees Lead", 10, 1000)),
	}
}

func TestAggregateAgent_DoubleTargetBonus(t *testing.T) {
	// GIVEN: Agent with target 20 and 41 qualified leads in March
	// WHEN: Aggregating March
	// THEN: 41 >= 40, so the bonus is added once on top of the tier payouts

	e := newEngine()
	a := agent("a1", "Sofia", 20)
	all := concat(
		leads("a1", "2025-03-03", "Attendees Lead", "", 20), // 2 x 1000
		leads("a1", "2025-03-10", "Attendees Lead", "", 21), // 2 x 1000, 1 left
	)

	got := e.AggregateAgent(a, all, standardPlans(), march2025())

	assert.Equal(t, "a1", got.EmployeeID)
	assert.Equal(t, "Sofia", got.Name)
	assert.Equal(t, 41, got.TotalLeads)
	assert.True(t, got.BonusAwarded)
	assert.True(t, got.BonusAmount.Equal(amt(5000)))
	assert.True(t, got.TotalAmount.Equal(amt(9000)), "got %s", got.TotalAmount)
	assert.Equal(t, 4, got.CountsByAmount.Count(amt(1000)))
	assert.Equal(t, 1, got.CountsByAmount.Count(amt(5000)))
}

func TestAggregateAgent_BonusThreshold(t *testing.T) {
	e := newEngine()
	plans := standardPlans()

	cases := []struct {
		name   string
		target int
		leads  int
		want   bool
	}{
		{"one short", 20, 39, false},
		{"exactly double", 20, 40, true},
		{"no target", 0, 100, false},
		{"negative target", -5, 100, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.AggregateAgent(agent("a1", "A", tc.target),
				leads("a1", "2025-03-03", "Attendees Lead", "", tc.leads), plans, march2025())
			assert.Equal(t, tc.want, got.BonusAwarded)
		})
	}
}

func TestAggregateAgent_ConfigurableBonus(t *testing.T) {
	a := agent("a1", "A", 1)
	all := leads("a1", "2025-03-03", "Association", "", 2)

	custom := incentive.NewEngine(incentive.WithDoubleTargetBonus(amt(250)))
	got := custom.AggregateAgent(a, all, nil, march2025())
	assert.True(t, got.TotalAmount.Equal(amt(250)))

	var zero incentive.Engine
	got = zero.AggregateAgent(a, all, nil, march2025())
	assert.False(t, got.BonusAwarded, "the zero engine has no bonus")
	assert.True(t, got.TotalAmount.IsZero())
}

func TestAggregateAgent_LeadsOutsideEveryPlan(t *testing.T) {
	// GIVEN: Leads in March but the only plan starts in April
	// WHEN: Aggregating March
	// THEN: Leads count toward TotalLeads but pay nothing

	e := newEngine()
	plans := []incentive.Plan{plan("april", "2025-04-01", "", rule("r", "Attendees Lead", 1, 100))}

	got := e.AggregateAgent(agent("a1", "A", 0),
		leads("a1", "2025-03-15", "Attendees Lead", "", 7), plans, march2025())

	assert.Equal(t, 7, got.TotalLeads)
	assert.True(t, got.TotalAmount.IsZero())
	assert.Empty(t, got.CountsByAmount)
}

func TestAggregateAgent_DaysAreIndependent(t *testing.T) {
	// GIVEN: A 5-lead tier and 3 leads on each of two days
	// WHEN: Aggregating
	// THEN: Nothing is paid; leads do not pool across days

	e := newEngine()
	plans := []incentive.Plan{plan("p", "2025-03-01", "", rule("r", "Attendees Lead", 5, 100))}
	all := concat(
		leads("a1", "2025-03-03", "Attendees Lead", "", 3),
		leads("a1", "2025-03-04", "Attendees Lead", "", 3),
	)

	got := e.AggregateAgent(agent("a1", "A", 0), all, plans, march2025())
	assert.Equal(t, 6, got.TotalLeads)
	assert.True(t, got.TotalAmount.IsZero())
}

func TestAggregateAgent_FiltersLeads(t *testing.T) {
	e := newEngine()
	plans := []incentive.Plan{plan("p", "2025-01-01", "", rule("r", "Attendees Lead", 1, 100))}

	unqualified := leads("a1", "2025-03-03", "Attendees Lead", "", 2)
	for i := range unqualified {
		unqualified[i].Qualified = false
	}
	undated := leads("a1", "2025-03-03", "Attendees Lead", "", 1)
	undated[0].Date = time.Time{}

	all := concat(
		leads("a1", "2025-03-03", "Attendees Lead", "", 3),
		leads("someone-else", "2025-03-03", "Attendees Lead", "", 4),
		leads("a1", "2025-04-01", "Attendees Lead", "", 5),
		leads("a1", "2025-02-28", "Attendees Lead", "", 6),
		unqualified,
		undated,
	)

	got := e.AggregateAgent(agent("a1", "A", 0), all, plans, march2025())
	assert.Equal(t, 3, got.TotalLeads)
	assert.True(t, got.TotalAmount.Equal(amt(300)))
}

func TestAggregateAgent_SumsAcrossBuckets(t *testing.T) {
	e := newEngine()
	usOnly := rule("us-2", "Attendees Lead", 2, 300)
	usOnly.Country = "USA"
	plans := []incentive.Plan{
		plan("p", "2025-03-01", "",
			rule("any-2", "Attendees Lead", 2, 100),
			usOnly,
			rule("assoc-1", "Association Lead", 1, 50),
		),
	}
	all := concat(
		leads("a1", "2025-03-03", "Attendees Lead", "us", 4),
		leads("a1", "2025-03-03", "Association Lead", "", 3),
	)

	got := e.AggregateAgent(agent("a1", "A", 0), all, plans, march2025())

	// any-2: 4 leads -> 2x100; us-2: 4 leads -> 2x300; assoc-1: 3x50
	assert.True(t, got.TotalAmount.Equal(amt(950)), "got %s", got.TotalAmount)
	assert.Equal(t, incentive.AmountCounts{"100": 2, "300": 2, "50": 3}, got.CountsByAmount)
	assert.Equal(t, 7, got.TotalLeads)
}

func TestAggregateAgent_DoesNotMutateInputs(t *testing.T) {
	e := newEngine()
	plans := []incentive.Plan{
		plan("p", "2025-03-01", "", rule("b", "Attendees Lead", 2, 100), rule("a", "Attendees Lead", 5, 400)),
	}
	all := leads("a1", "2025-03-03", "Attendees Lead", "", 9)

	plansBefore := append([]incentive.Plan(nil), plans...)
	rulesBefore := append([]incentive.Rule(nil), plans[0].Rules...)
	leadsBefore := append([]incentive.Lead(nil), all...)

	first := e.AggregateAgent(agent("a1", "A", 0), all, plans, march2025())
	second := e.AggregateAgent(agent("a1", "A", 0), all, plans, march2025())

	assert.Equal(t, plansBefore, plans)
	assert.Equal(t, rulesBefore, plans[0].Rules)
	assert.Equal(t, leadsBefore, all)
	assert.Equal(t, first, second)
}
