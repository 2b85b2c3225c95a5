package incentive_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/incentive-engine/incentive"
)

func leaderboardFixture() ([]incentive.Agent, []incentive.Lead, []incentive.Plan) {
	agents := []incentive.Agent{
		agent("a1", "Carol", 0),
		agent("a2", "alice", 0),
		agent("a3", "Bob", 2),
		agent("a4", "Dave", 0),
		{ID: "admin", Name: "Admin", IsActive: true, IsAdmin: true},
		{ID: "gone", Name: "Former", IsActive: false},
	}
	plans := []incentive.Plan{
		plan("p", "2025-03-01", "",
			rule("att-5", "Attendees Lead", 5, 1000),
			rule("assoc-2", "Association Lead", 2, 300),
		),
	}
	all := concat(
		leads("a1", "2025-03-03", "Attendees Lead", "", 10),   // 2000
		leads("a2", "2025-03-04", "Association Lead", "", 4),  // 600
		leads("a3", "2025-03-05", "Attendees Lead", "", 5),    // 1000 + bonus
		leads("a4", "2025-03-06", "Association Lead", "", 1),  // 0
		leads("admin", "2025-03-06", "Attendees Lead", "", 50), // excluded
		leads("gone", "2025-03-06", "Attendees Lead", "", 50),  // excluded
	)
	return agents, all, plans
}

func resultIDs(lb incentive.Leaderboard) []string {
	ids := make([]string, 0, len(lb.Results))
	for _, r := range lb.Results {
		ids = append(ids, r.EmployeeID)
	}
	return ids
}

func TestBuildLeaderboard_SortKeys(t *testing.T) {
	e := newEngine()
	agents, all, plans := leaderboardFixture()

	cases := map[incentive.SortKey][]string{
		incentive.SortAmountDesc: {"a3", "a1", "a2", "a4"},
		incentive.SortAmountAsc:  {"a4", "a2", "a1", "a3"},
		incentive.SortLeadsDesc:  {"a1", "a3", "a2", "a4"},
		incentive.SortNameAsc:    {"a3", "a1", "a4", "a2"}, // byte order: uppercase first
	}
	for key, want := range cases {
		lb := e.BuildLeaderboard(agents, all, plans, incentive.LeaderboardQuery{Period: march2025(), Sort: key})
		assert.Equal(t, want, resultIDs(lb), "sort %s", key)
	}
}

func TestBuildLeaderboard_BonusIncluded(t *testing.T) {
	e := newEngine()
	agents, all, plans := leaderboardFixture()

	lb := e.BuildLeaderboard(agents, all, plans, incentive.LeaderboardQuery{Period: march2025()})
	require.NotEmpty(t, lb.Results)

	top := lb.Results[0]
	assert.Equal(t, "a3", top.EmployeeID)
	assert.True(t, top.BonusAwarded)
	assert.True(t, top.TotalAmount.Equal(amt(6000)))
}

func TestBuildLeaderboard_EarnersOnlyAndLimit(t *testing.T) {
	e := newEngine()
	agents, all, plans := leaderboardFixture()

	lb := e.BuildLeaderboard(agents, all, plans, incentive.LeaderboardQuery{Period: march2025(), EarnersOnly: true})
	assert.Equal(t, []string{"a3", "a1", "a2"}, resultIDs(lb))

	lb = e.BuildLeaderboard(agents, all, plans, incentive.LeaderboardQuery{Period: march2025(), Limit: 2})
	assert.Equal(t, []string{"a3", "a1"}, resultIDs(lb))
}

func TestBuildLeaderboard_LeadTypeFilterAppliesToRules(t *testing.T) {
	// GIVEN: A lead-type filter of "association"
	// WHEN: Building the leaderboard
	// THEN: Only association rules pay, but TotalLeads still counts every
	//       qualified lead

	e := newEngine()
	agents, all, plans := leaderboardFixture()

	lb := e.BuildLeaderboard(agents, all, plans, incentive.LeaderboardQuery{
		Period:   march2025(),
		LeadType: "Association Lead",
		Sort:     incentive.SortNameAsc,
	})

	byID := map[string]incentive.AggregateResult{}
	for _, r := range lb.Results {
		byID[r.EmployeeID] = r
	}
	assert.True(t, byID["a1"].TotalAmount.IsZero())
	assert.Equal(t, 10, byID["a1"].TotalLeads)
	assert.True(t, byID["a2"].TotalAmount.Equal(amt(600)))
}

func TestBuildLeaderboard_Columns(t *testing.T) {
	e := newEngine()
	_, _, plans := leaderboardFixture()
	inactive := rule("old", "Attendees Lead", 3, 300)
	inactive.IsActive = false
	plans = append(plans, plan("old", "2024-01-01", "2024-02-01", inactive, rule("free", "x", 1, 0)))

	cols := e.Columns(plans)
	want := []decimal.Decimal{amt(5000), amt(1000), amt(300)}
	require.Len(t, cols, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(cols[i]), "column %d: %s", i, cols[i])
	}
}

func TestBuildLeaderboard_AllExcluded(t *testing.T) {
	e := newEngine()
	lb := e.BuildLeaderboard(nil, nil, nil, incentive.LeaderboardQuery{Period: march2025()})
	assert.Empty(t, lb.Results)
	assert.Equal(t, march2025(), lb.Period)
}

func TestParseSortKey(t *testing.T) {
	key, err := incentive.ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, incentive.SortAmountDesc, key)

	key, err = incentive.ParseSortKey(" LEADS_DESC ")
	require.NoError(t, err)
	assert.Equal(t, incentive.SortLeadsDesc, key)

	_, err = incentive.ParseSortKey("random")
	assert.ErrorIs(t, err, incentive.ErrUnknownSortKey)
	assert.True(t, incentive.IsClientError(err))
}
