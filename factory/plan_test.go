package factory_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/incentive-engine/factory"
	"github.com/warp/incentive-engine/incentive"
)

const q1PlanJSON = `{
	"id": "q1-attendees",
	"title": "Q1 Attendees Push",
	"description": "Bonus tiers for attendee leads",
	"valid_from": "2025-01-01",
	"valid_to": "2025-04-01",
	"rules": [
		{
			"id": "na-5",
			"lead_type": "Attendees Lead",
			"country": "USA, Canada",
			"attendees_min_count": 50,
			"leads_required": 5,
			"amount": 1000
		},
		{
			"lead_type": "Industry Lead",
			"industry_domain": "Fintech",
			"leads_required": 2,
			"amount": "250.75",
			"is_active": false
		}
	]
}`

func TestParsePlan(t *testing.T) {
	f := factory.NewPlanFactory(incentive.Calendar{})

	plan, err := f.ParsePlan(q1PlanJSON)
	require.NoError(t, err)

	assert.Equal(t, "q1-attendees", plan.ID)
	assert.Equal(t, "Q1 Attendees Push", plan.Title)
	assert.True(t, plan.IsActive, "active by default")
	assert.True(t, plan.ValidFrom.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, plan.ValidTo)
	assert.True(t, plan.ValidTo.Equal(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))

	require.Len(t, plan.Rules, 2)
	r := plan.Rules[0]
	assert.Equal(t, "na-5", r.ID)
	assert.Equal(t, "q1-attendees", r.PlanID)
	require.NotNil(t, r.AttendeesMinCount)
	assert.Equal(t, 50, *r.AttendeesMinCount)
	assert.True(t, r.Amount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, r.IsActive)

	assert.True(t, plan.Rules[1].Amount.Equal(decimal.RequireFromString("250.75")))
	assert.False(t, plan.Rules[1].IsActive)
}

func TestParsePlan_DatesReadInCalendarZone(t *testing.T) {
	// GIVEN: A factory whose calendar is UTC+05:30
	// WHEN: Parsing a date-only valid_from
	// THEN: The plan starts at local midnight, and its day key is as written

	cal := incentive.NewCalendar(time.FixedZone("IST", 5*3600+1800))
	f := factory.NewPlanFactory(cal)

	plan, err := f.ParsePlan(`{"title": "T", "valid_from": "2025-03-15", "rules": []}`)
	require.NoError(t, err)

	key, ok := cal.Key(plan.ValidFrom)
	require.True(t, ok)
	assert.Equal(t, incentive.DateKey("2025-03-15"), key)
	assert.Nil(t, plan.ValidTo)
}

func TestParsePlan_Validation(t *testing.T) {
	f := factory.NewPlanFactory(incentive.Calendar{})

	cases := map[string]string{
		"missing title":      `{"valid_from": "2025-01-01", "rules": []}`,
		"missing valid_from": `{"title": "T", "rules": []}`,
		"bad valid_from":     `{"title": "T", "valid_from": "Jan 1st", "rules": []}`,
		"bad valid_to":       `{"title": "T", "valid_from": "2025-01-01", "valid_to": "later", "rules": []}`,
		"end before start":   `{"title": "T", "valid_from": "2025-02-01", "valid_to": "2025-01-01", "rules": []}`,
		"empty interval":     `{"title": "T", "valid_from": "2025-02-01", "valid_to": "2025-02-01", "rules": []}`,
		"rule without type":  `{"title": "T", "valid_from": "2025-01-01", "rules": [{"leads_required": 1, "amount": 1}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ParsePlan(doc)
			assert.ErrorIs(t, err, factory.ErrInvalidPlan)
		})
	}

	_, err := f.ParsePlan(`{not json`)
	assert.Error(t, err)
}

func TestParsePlan_DegenerateRulesAccepted(t *testing.T) {
	f := factory.NewPlanFactory(incentive.Calendar{})

	plan, err := f.ParsePlan(`{"title": "T", "valid_from": "2025-01-01", "rules": [
		{"lead_type": "Attendees", "leads_required": 0, "amount": 100},
		{"lead_type": "Attendees", "leads_required": 5, "amount": -1}
	]}`)
	require.NoError(t, err)
	require.Len(t, plan.Rules, 2)
	for _, r := range plan.Rules {
		assert.False(t, r.Eligible())
	}
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewPlanFactory(incentive.Calendar{})
	plan, err := f.ParsePlan(q1PlanJSON)
	require.NoError(t, err)
	plan.CreatedAt = time.Date(2024, time.December, 20, 9, 30, 0, 0, time.UTC)

	pj := f.ToJSON(plan)
	assert.Equal(t, "2025-01-01", pj.ValidFrom)
	assert.Equal(t, "2025-04-01", pj.ValidTo)
	assert.Equal(t, "2024-12-20T09:30:00Z", pj.CreatedAt)
	require.NotNil(t, pj.IsActive)
	assert.True(t, *pj.IsActive)

	data, err := json.Marshal(pj)
	require.NoError(t, err)
	again, err := f.ParsePlan(string(data))
	require.NoError(t, err)

	assert.Equal(t, plan.Title, again.Title)
	assert.True(t, plan.ValidFrom.Equal(again.ValidFrom))
	assert.True(t, plan.CreatedAt.Equal(again.CreatedAt))
	require.Len(t, again.Rules, 2)
	assert.True(t, plan.Rules[1].Amount.Equal(again.Rules[1].Amount))
	assert.Equal(t, plan.Rules[1].IsActive, again.Rules[1].IsActive)
}

func TestToJSON_KeepsTimeOfDay(t *testing.T) {
	f := factory.NewPlanFactory(incentive.Calendar{})
	end := time.Date(2025, time.March, 20, 14, 5, 0, 0, time.UTC)
	plan := &incentive.Plan{
		Title:     "Deactivated",
		ValidFrom: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:   &end,
	}

	pj := f.ToJSON(plan)
	assert.Equal(t, "2025-03-20T14:05:00Z", pj.ValidTo)
	assert.NotNil(t, pj.Rules)
}
