/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos. Each scenario creates agents, plans and a month of
	leads that demonstrate specific engine behaviour.

AVAILABLE SCENARIOS:

	overlapping-plans: Two plans valid at once; the newer one overrides
	                   a shared tier, both contribute their own tiers
	country-tiers:     Country-scoped attendee tiers and greedy payout
	double-target:     An agent crossing twice the monthly target

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create plans from JSON via the factory
 3. Create agents
 4. Add leads in the current month

All dates are relative to the handler's clock, so a freshly loaded
scenario always shows up in this month's leaderboard.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "overlapping-plans"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler wiring
  - factory/plan.go: Plan JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "overlapping-plans",
		Name:        "Overlapping Plans",
		Description: "A base plan and a newer booster plan valid at the same time",
	},
	{
		ID:          "country-tiers",
		Name:        "Country Tiers",
		Description: "Attendee tiers scoped by country, paid largest tier first",
	},
	{
		ID:          "double-target",
		Name:        "Double Target",
		Description: "An agent earns the monthly bonus by reaching twice the target",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current, Description: "Currently loaded scenario"})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context, time.Time) error
	switch req.ScenarioID {
	case "overlapping-plans":
		load = h.loadOverlappingPlansScenario
	case "country-tiers":
		load = h.loadCountryTiersScenario
	case "double-target":
		load = h.loadDoubleTargetScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, "Failed to reset store", err)
		return
	}
	if err := load(ctx, h.Now()); err != nil {
		h.fail(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.Log.WithField("scenario", req.ScenarioID).Info("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	h.Log.Warn("store reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadOverlappingPlansScenario(ctx context.Context, now time.Time) error {
	m := h.monthOf(now)

	// Base plan runs all month. The booster starts mid-month and overrides
	// the 5-lead attendees tier while adding a 3-lead association tier.
	base := fmt.Sprintf(`{
		"id": "plan-base",
		"title": "Base Incentives",
		"valid_from": %q,
		"rules": [
			{"id": "base-att-5", "lead_type": "Attendees Lead", "leads_required": 5, "amount": 500},
			{"id": "base-att-10", "lead_type": "Attendees Lead", "leads_required": 10, "amount": 1200},
			{"id": "base-ind-2", "lead_type": "Industry Lead", "industry_domain": "Healthcare", "leads_required": 2, "amount": 300}
		]
	}`, m.day(1))
	booster := fmt.Sprintf(`{
		"id": "plan-booster",
		"title": "Mid-Month Booster",
		"valid_from": %q,
		"valid_to": %q,
		"rules": [
			{"id": "boost-att-5", "lead_type": "attendees", "leads_required": 5, "amount": 800},
			{"id": "boost-assoc-3", "lead_type": "Association Lead", "leads_required": 3, "amount": 400}
		]
	}`, m.day(15), m.next())

	if err := h.createPlansFromJSON(ctx, now, base, booster); err != nil {
		return err
	}

	if err := h.createAgents(ctx,
		incentive.Agent{ID: "agent-001", Name: "Priya Sharma", Target: 20, IsActive: true},
		incentive.Agent{ID: "agent-002", Name: "Daniel Okafor", Target: 15, IsActive: true},
		incentive.Agent{ID: "agent-003", Name: "Mei Tanaka", Target: 20, IsActive: true},
	); err != nil {
		return err
	}

	return h.createLeads(ctx,
		// Before the booster: 12 attendee leads on day 3 pay 1200 + 0 (2 left).
		leadBatch("agent-001", m.at(3), "Attendees Lead", "USA", 12),
		// After the booster: 5 attendee leads pay the overriding 800.
		leadBatch("agent-001", m.at(16), "attendees", "Canada", 5),
		leadBatch("agent-002", m.at(16), "Association Lead", "UK", 7),
		leadBatch("agent-002", m.at(17), "Attendees Lead", "UK", 4),
		industryBatch("agent-003", m.at(8), "healthcare", 5),
	)
}

func (h *Handler) loadCountryTiersScenario(ctx context.Context, now time.Time) error {
	m := h.monthOf(now)

	plan := fmt.Sprintf(`{
		"id": "plan-countries",
		"title": "Regional Attendee Tiers",
		"valid_from": %q,
		"rules": [
			{"id": "na-50-10", "lead_type": "Attendees Lead", "country": "USA, Canada", "attendees_min_count": 50, "leads_required": 10, "amount": 1000},
			{"id": "na-50-5", "lead_type": "Attendees Lead", "country": "USA, Canada", "attendees_min_count": 50, "leads_required": 5, "amount": 400},
			{"id": "gulf-3", "lead_type": "Attendees Lead", "country": "UAE, Saudi Arabia", "leads_required": 3, "amount": 300},
			{"id": "broken", "lead_type": "Attendees Lead", "leads_required": 0, "amount": 999}
		]
	}`, m.day(1))
	if err := h.createPlansFromJSON(ctx, now, plan); err != nil {
		return err
	}

	if err := h.createAgents(ctx,
		incentive.Agent{ID: "agent-101", Name: "Laura Fischer", Target: 25, IsActive: true},
		incentive.Agent{ID: "agent-102", Name: "Omar Haddad", Target: 25, IsActive: true},
		incentive.Agent{ID: "admin-1", Name: "Ops Admin", IsActive: true, IsAdmin: true},
	); err != nil {
		return err
	}

	big := 120
	small := 20
	return h.createLeads(ctx,
		// 17 qualifying leads in one day: 10 -> 1000, 5 -> 400, 2 left over.
		attendeeBatch("agent-101", m.at(4), "United States", &big, 9),
		attendeeBatch("agent-101", m.at(4), "canada", &big, 8),
		// Too few attendees for the North America tiers.
		attendeeBatch("agent-101", m.at(5), "USA", &small, 6),
		// 7 Gulf leads: 3 -> 300 twice, 1 left over.
		attendeeBatch("agent-102", m.at(6), "U.A.E.", nil, 4),
		attendeeBatch("agent-102", m.at(6), "saudi  arabia", nil, 3),
	)
}

func (h *Handler) loadDoubleTargetScenario(ctx context.Context, now time.Time) error {
	m := h.monthOf(now)

	plan := fmt.Sprintf(`{
		"id": "plan-standard",
		"title": "Standard Plan",
		"valid_from": %q,
		"rules": [
			{"id": "std-10", "lead_type": "Attendees Lead", "leads_required": 10, "amount": 1000}
		]
	}`, m.day(1))
	if err := h.createPlansFromJSON(ctx, now, plan); err != nil {
		return err
	}

	if err := h.createAgents(ctx,
		incentive.Agent{ID: "agent-201", Name: "Sofia Rossi", Target: 20, IsActive: true},
		incentive.Agent{ID: "agent-202", Name: "Ethan Brooks", Target: 20, IsActive: true},
	); err != nil {
		return err
	}

	return h.createLeads(ctx,
		// 41 leads against a target of 20 earns the bonus.
		leadBatch("agent-201", m.at(2), "Attendees Lead", "USA", 20),
		leadBatch("agent-201", m.at(9), "Attendees Lead", "USA", 21),
		// 39 leads falls one short.
		leadBatch("agent-202", m.at(2), "Attendees Lead", "USA", 19),
		leadBatch("agent-202", m.at(9), "Attendees Lead", "USA", 20),
		unqualified("agent-202", m.at(9), 5),
	)
}

// =============================================================================
// HELPERS
// =============================================================================

// scenarioMonth is the first instant of a month in the engine's calendar.
type scenarioMonth struct {
	start time.Time
}

func (h *Handler) monthOf(now time.Time) scenarioMonth {
	loc := h.Engine.Calendar.Location
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	return scenarioMonth{start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)}
}

func (m scenarioMonth) at(day int) time.Time {
	return m.start.AddDate(0, 0, day-1).Add(10 * time.Hour)
}

func (m scenarioMonth) day(day int) string {
	return m.start.AddDate(0, 0, day-1).Format(incentive.DateKeyLayout)
}

func (m scenarioMonth) next() string {
	return m.start.AddDate(0, 1, 0).Format(incentive.DateKeyLayout)
}

func (h *Handler) createPlansFromJSON(ctx context.Context, now time.Time, defs ...string) error {
	for i, def := range defs {
		plan, err := h.PlanFactory.ParsePlan(def)
		if err != nil {
			return err
		}
		// Later definitions are newer.
		plan.CreatedAt = now.Add(time.Duration(i-len(defs)) * time.Minute)
		if err := h.Store.SavePlan(ctx, *plan); err != nil {
			return err
		}
		h.Log.WithFields(logrus.Fields{"plan_id": plan.ID, "rules": len(plan.Rules)}).Debug("scenario plan created")
	}
	return nil
}

func (h *Handler) createAgents(ctx context.Context, agents ...incentive.Agent) error {
	for _, a := range agents {
		if err := h.Store.SaveAgent(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) createLeads(ctx context.Context, batches ...[]incentive.Lead) error {
	for _, batch := range batches {
		for _, l := range batch {
			if err := h.Store.SaveLead(ctx, l); err != nil {
				return err
			}
		}
	}
	return nil
}

func leadBatch(agentID string, at time.Time, leadType, country string, n int) []incentive.Lead {
	out := make([]incentive.Lead, n)
	for i := range out {
		out[i] = incentive.Lead{
			AgentID:   agentID,
			Date:      at.Add(time.Duration(i) * time.Minute),
			LeadType:  leadType,
			Country:   country,
			Qualified: true,
		}
	}
	return out
}

func attendeeBatch(agentID string, at time.Time, country string, attendees *int, n int) []incentive.Lead {
	out := leadBatch(agentID, at, "Attendees Lead", country, n)
	for i := range out {
		out[i].AttendeesCount = attendees
	}
	return out
}

func industryBatch(agentID string, at time.Time, domain string, n int) []incentive.Lead {
	out := leadBatch(agentID, at, "Industry Lead", "", n)
	for i := range out {
		out[i].IndustryDomain = domain
	}
	return out
}

func unqualified(agentID string, at time.Time, n int) []incentive.Lead {
	out := leadBatch(agentID, at, "Attendees Lead", "USA", n)
	for i := range out {
		out[i].Qualified = false
	}
	return out
}
