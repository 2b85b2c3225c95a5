package incentive_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/incentive-engine/incentive"
)

func TestBuildIncentiveSummary_GroupsAndAchievers(t *testing.T) {
	// GIVEN: A month with attendee, association, industry and webinar rules
	// WHEN: Summarizing March
	// THEN: Groups come out by category, every active rule has a group, and
	//       achievers are ordered by day then name

	e := newEngine()
	ind := rule("ind-1", "Industry Lead", 1, 50)
	ind.IndustryDomain = "Retail"
	off := rule("off", "Attendees Lead", 1, 999)
	off.IsActive = false

	plans := []incentive.Plan{
		plan("p", "2025-03-01", "",
			rule("web-1", "Webinar", 1, 10),
			ind,
			rule("assoc-2", "Association Lead", 2, 300),
			rule("att-5", "Attendees Lead", 5, 1000),
			off,
		),
		plan("ancient", "2024-01-01", "2024-06-01", rule("ancient-1", "Attendees Lead", 1, 1)),
	}
	agents := []incentive.Agent{agent("a1", "Zoe", 0), agent("a2", "Adam", 0)}
	all := concat(
		leads("a1", "2025-03-02", "Attendees Lead", "", 5),
		leads("a2", "2025-03-02", "Attendees Lead", "", 10),
		leads("a1", "2025-03-01", "Attendees Lead", "", 5),
	)

	s := e.BuildIncentiveSummary(agents, all, plans, 2025, time.March)

	assert.Equal(t, march2025(), s.Period)
	ids := make([]string, 0, len(s.Rules))
	for _, g := range s.Rules {
		ids = append(ids, g.Rule.ID)
	}
	assert.Equal(t, []string{"att-5", "assoc-2", "ind-1", "web-1"}, ids)

	att := s.Rules[0]
	require.Len(t, att.Achievers, 3)
	assert.Equal(t, incentive.DateKey("2025-03-01"), att.Achievers[0].Day)
	assert.Equal(t, "a1", att.Achievers[0].AgentID)
	assert.Equal(t, "Adam", att.Achievers[1].AgentName)
	assert.Equal(t, 2, att.Achievers[1].Times)
	assert.True(t, att.Achievers[1].Amount.Equal(amt(2000)))
	assert.Equal(t, "Zoe", att.Achievers[2].AgentName)
	assert.Equal(t, 4, att.TotalTimes)
	assert.True(t, att.TotalAmount.Equal(amt(4000)))

	for _, g := range s.Rules[1:] {
		assert.Empty(t, g.Achievers, "rule %s", g.Rule.ID)
		assert.True(t, g.TotalAmount.IsZero())
	}
	assert.Empty(t, s.MonthlyDoubleTarget)
}

func TestBuildIncentiveSummary_MonthlyDoubleTarget(t *testing.T) {
	e := newEngine()
	plans := standardPlans()
	agents := []incentive.Agent{
		agent("a1", "Bea", 2),
		agent("a2", "Abe", 2),
		agent("a3", "Cat", 2),
		agent("a4", "Dan", 10),
	}
	all := concat(
		leads("a1", "2025-03-05", "Attendees Lead", "", 4),
		leads("a2", "2025-03-05", "Attendees Lead", "", 4),
		leads("a3", "2025-03-05", "Attendees Lead", "", 9),
		leads("a4", "2025-03-05", "Attendees Lead", "", 19),
	)

	s := e.BuildIncentiveSummary(agents, all, plans, 2025, time.March)

	require.Len(t, s.MonthlyDoubleTarget, 3)
	assert.Equal(t, "a3", s.MonthlyDoubleTarget[0].AgentID)
	assert.Equal(t, 9, s.MonthlyDoubleTarget[0].TotalLeads)
	assert.Equal(t, "Abe", s.MonthlyDoubleTarget[1].Name)
	assert.Equal(t, "Bea", s.MonthlyDoubleTarget[2].Name)
	assert.True(t, s.MonthlyDoubleTarget[2].Amount.Equal(amt(5000)))
}

func TestBuildIncentiveSummary_RuleSupersededMidMonth(t *testing.T) {
	// GIVEN: A booster overrides the 5-lead tier from March 15
	// WHEN: Summarizing March
	// THEN: Achievements before the 15th go to the base rule, after to the
	//       booster rule

	e := newEngine()
	plans := []incentive.Plan{
		plan("base", "2025-03-01", "", rule("base-5", "Attendees Lead", 5, 500)),
		plan("booster", "2025-03-15", "2025-04-01", rule("boost-5", "Attendees Lead", 5, 800)),
	}
	all := concat(
		leads("a1", "2025-03-10", "Attendees Lead", "", 5),
		leads("a1", "2025-03-20", "Attendees Lead", "", 5),
	)

	s := e.BuildIncentiveSummary([]incentive.Agent{agent("a1", "A", 0)}, all, plans, 2025, time.March)

	groups := map[string]incentive.RuleAchieverGroup{}
	for _, g := range s.Rules {
		groups[g.Rule.ID] = g
	}
	require.Len(t, groups["base-5"].Achievers, 1)
	assert.Equal(t, incentive.DateKey("2025-03-10"), groups["base-5"].Achievers[0].Day)
	require.Len(t, groups["boost-5"].Achievers, 1)
	assert.Equal(t, incentive.DateKey("2025-03-20"), groups["boost-5"].Achievers[0].Day)
	assert.Equal(t, "booster", groups["boost-5"].Rule.PlanID)
}

func TestBuildIncentiveSummary_SameRuleIDInTwoPlans(t *testing.T) {
	// GIVEN: Two March plans that both name a rule "r1", one for attendees
	//        paying 100 and one for associations paying 200
	// WHEN: One agent achieves both on the same day
	// THEN: Each plan's rule keeps its own group and its own payout

	e := newEngine()
	plans := []incentive.Plan{
		plan("plan-b", "2025-03-01", "", rule("r1", "Association Lead", 1, 200)),
		plan("plan-a", "2025-03-01", "", rule("r1", "Attendees Lead", 1, 100)),
	}
	all := concat(
		leads("a1", "2025-03-05", "Attendees Lead", "", 1),
		leads("a1", "2025-03-05", "Association Lead", "", 1),
	)

	s := e.BuildIncentiveSummary([]incentive.Agent{agent("a1", "A", 0)}, all, plans, 2025, time.March)

	require.Len(t, s.Rules, 2)

	att := s.Rules[0]
	assert.Equal(t, "plan-a", att.Rule.PlanID)
	assert.Equal(t, "Attendees Lead", att.Rule.LeadType)
	require.Len(t, att.Achievers, 1)
	assert.True(t, att.TotalAmount.Equal(amt(100)))

	assoc := s.Rules[1]
	assert.Equal(t, "plan-b", assoc.Rule.PlanID)
	assert.Equal(t, "Association Lead", assoc.Rule.LeadType)
	require.Len(t, assoc.Achievers, 1)
	assert.True(t, assoc.TotalAmount.Equal(amt(200)))
}

func TestBuildIncentiveSummary_SameRuleIDOrderedByPlan(t *testing.T) {
	e := newEngine()
	plans := []incentive.Plan{
		plan("plan-z", "2025-03-01", "", rule("r1", "Attendees Lead", 5, 500)),
		plan("plan-m", "2025-03-01", "", rule("r1", "Attendees Lead", 10, 900)),
	}

	s := e.BuildIncentiveSummary(nil, nil, plans, 2025, time.March)

	require.Len(t, s.Rules, 2)
	assert.Equal(t, "plan-m", s.Rules[0].Rule.PlanID)
	assert.Equal(t, "plan-z", s.Rules[1].Rule.PlanID)
}
