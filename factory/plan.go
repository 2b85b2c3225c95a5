/*
Package factory provides JSON to Go incentive plan conversion.

PURPOSE:
  Converts JSON plan definitions into incentive.Plan values. Admins author
  plans in the UI or as files; the factory validates them and creates the
  Go structs the engine consumes.

JSON SCHEMA:
  {
    "id": "q1-attendees",
    "title": "Q1 Attendees Push",
    "description": "Bonus tiers for attendee leads",
    "valid_from": "2025-01-01",
    "valid_to": "2025-04-01",
    "is_active": true,
    "rules": [
      {
        "lead_type": "Attendees Lead",
        "country": "USA, Canada",
        "attendees_min_count": 50,
        "leads_required": 5,
        "amount": 1000
      }
    ]
  }

DATES:
  valid_from is inclusive, valid_to exclusive and optional. Both accept
  YYYY-MM-DD or RFC3339; date-only values are read in the factory's
  calendar so that day keys come out as written.

VALIDATION:
  - title and valid_from are required
  - valid_to, when present, must be after valid_from
  - every rule needs a lead_type
  Rules with leads_required <= 0 or amount <= 0 are accepted. They are a
  data-quality issue, and the engine never pays them.

SEE ALSO:
  - incentive/types.go: Plan and Rule
  - api/handlers.go: CreatePlan and ReplaceRules use this factory
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/incentive"
)

// ErrInvalidPlan is returned when a plan definition fails validation.
var ErrInvalidPlan = errors.New("invalid plan")

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PlanJSON is the JSON representation of a plan.
type PlanJSON struct {
	ID          string     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ValidFrom   string     `json:"valid_from"`
	ValidTo     string     `json:"valid_to,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"` // default true
	CreatedAt   string     `json:"created_at,omitempty"`
	Rules       []RuleJSON `json:"rules"`
}

// RuleJSON is the JSON representation of a rule. Amount accepts a JSON
// number or a quoted decimal.
type RuleJSON struct {
	ID                string          `json:"id,omitempty"`
	LeadType          string          `json:"lead_type"`
	Country           string          `json:"country,omitempty"`
	AttendeesMinCount *int            `json:"attendees_min_count,omitempty"`
	IndustryDomain    string          `json:"industry_domain,omitempty"`
	LeadsRequired     int             `json:"leads_required"`
	Amount            decimal.Decimal `json:"amount"`
	IsActive          *bool           `json:"is_active,omitempty"` // default true
}

// =============================================================================
// PLAN FACTORY
// =============================================================================

// PlanFactory converts JSON plans to Go structs.
type PlanFactory struct {
	Calendar incentive.Calendar
}

// NewPlanFactory creates a factory reading dates in cal.
func NewPlanFactory(cal incentive.Calendar) *PlanFactory {
	return &PlanFactory{Calendar: cal}
}

// ParsePlan parses a JSON string into a Plan.
func (f *PlanFactory) ParsePlan(jsonStr string) (*incentive.Plan, error) {
	var pj PlanJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON validates pj and converts it to a Plan.
func (f *PlanFactory) FromJSON(pj PlanJSON) (*incentive.Plan, error) {
	if strings.TrimSpace(pj.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidPlan)
	}
	from, ok := f.Calendar.ParseTime(pj.ValidFrom)
	if !ok {
		return nil, fmt.Errorf("%w: valid_from %q", ErrInvalidPlan, pj.ValidFrom)
	}

	plan := &incentive.Plan{
		ID:          pj.ID,
		Title:       pj.Title,
		Description: pj.Description,
		ValidFrom:   from,
		IsActive:    boolOr(pj.IsActive, true),
	}

	if pj.ValidTo != "" {
		to, ok := f.Calendar.ParseTime(pj.ValidTo)
		if !ok {
			return nil, fmt.Errorf("%w: valid_to %q", ErrInvalidPlan, pj.ValidTo)
		}
		if !to.After(from) {
			return nil, fmt.Errorf("%w: valid_to must be after valid_from", ErrInvalidPlan)
		}
		plan.ValidTo = &to
	}

	if pj.CreatedAt != "" {
		if created, ok := f.Calendar.ParseTime(pj.CreatedAt); ok {
			plan.CreatedAt = created
		}
	}

	rules, err := f.RulesFromJSON(pj.Rules)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		rules[i].PlanID = plan.ID
	}
	plan.Rules = rules
	return plan, nil
}

// RulesFromJSON converts a full rule set, as used by rule replacement.
func (f *PlanFactory) RulesFromJSON(rjs []RuleJSON) ([]incentive.Rule, error) {
	rules := make([]incentive.Rule, 0, len(rjs))
	for i, rj := range rjs {
		if strings.TrimSpace(rj.LeadType) == "" {
			return nil, fmt.Errorf("%w: rule %d has no lead_type", ErrInvalidPlan, i)
		}
		rules = append(rules, incentive.Rule{
			ID:                rj.ID,
			LeadType:          rj.LeadType,
			Country:           rj.Country,
			AttendeesMinCount: rj.AttendeesMinCount,
			IndustryDomain:    rj.IndustryDomain,
			LeadsRequired:     rj.LeadsRequired,
			Amount:            rj.Amount,
			IsActive:          boolOr(rj.IsActive, true),
		})
	}
	return rules, nil
}

// ToJSON converts a Plan to PlanJSON.
func (f *PlanFactory) ToJSON(plan *incentive.Plan) PlanJSON {
	active := plan.IsActive
	pj := PlanJSON{
		ID:          plan.ID,
		Title:       plan.Title,
		Description: plan.Description,
		ValidFrom:   f.format(plan.ValidFrom),
		IsActive:    &active,
		Rules:       make([]RuleJSON, 0, len(plan.Rules)),
	}
	if plan.ValidTo != nil {
		pj.ValidTo = f.format(*plan.ValidTo)
	}
	if !plan.CreatedAt.IsZero() {
		pj.CreatedAt = plan.CreatedAt.Format(time.RFC3339)
	}
	for _, r := range plan.Rules {
		ruleActive := r.IsActive
		pj.Rules = append(pj.Rules, RuleJSON{
			ID:                r.ID,
			LeadType:          r.LeadType,
			Country:           r.Country,
			AttendeesMinCount: r.AttendeesMinCount,
			IndustryDomain:    r.IndustryDomain,
			LeadsRequired:     r.LeadsRequired,
			Amount:            r.Amount,
			IsActive:          &ruleActive,
		})
	}
	return pj
}

// format renders midnight instants as date keys and anything else as RFC3339.
func (f *PlanFactory) format(t time.Time) string {
	k, ok := f.Calendar.Key(t)
	if !ok {
		return ""
	}
	if start, ok := f.Calendar.StartOf(k); ok && start.Equal(t) {
		return k.String()
	}
	return t.Format(time.RFC3339)
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
