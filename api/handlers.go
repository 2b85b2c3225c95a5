/*
handlers.go - HTTP API handlers for the incentive service

PURPOSE:
  Exposes the incentive engine via REST API. Handles HTTP request/response,
  JSON serialization, loads the engine's inputs from the store, and hands
  plain slices to the engine.

ENDPOINTS:
  Agents:
    GET    /api/agents                    List agents
    POST   /api/agents                    Create or update agent
    GET    /api/agents/{id}/incentives    One agent's earnings for a range

  Leads:
    GET    /api/leads                     Leads in a range
    POST   /api/leads                     Record a lead

  Plans:
    GET    /api/plans                     List all plans (active or not)
    POST   /api/plans                     Create plan from JSON
    GET    /api/plans/resolve?date=       Plans valid on a day
    GET    /api/plans/{id}                Get plan
    PUT    /api/plans/{id}/rules          Replace the full rule set
    POST   /api/plans/{id}/deactivate     Mark inactive, valid_to = now
    POST   /api/plans/{id}/activate       Mark active

  Incentives:
    GET    /api/leaderboard               Ranked earners
    GET    /api/incentives/summary        Per-rule achievers for a month

RANGE PARAMETERS:
  range=today|month|year|custom, with year=, month=, from=, to=.
  "Today" and the current month/year are resolved with the engine's
  reference calendar at request time.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input (dates, ranges, sort keys, plan definitions)
  - 404: Agent or plan not found
  - 500: Store failures

SECURITY NOTE:
  No authentication or authorization. Callers are expected to sit behind
  an authenticating gateway.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/incentive-engine/factory"
	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       incentive.Repository
	Engine      incentive.Engine
	PlanFactory *factory.PlanFactory
	Log         logrus.FieldLogger

	// Now is the clock; tests pin it.
	Now func() time.Time

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(store incentive.Repository, engine incentive.Engine, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:       store,
		Engine:      engine,
		PlanFactory: factory.NewPlanFactory(engine.Calendar),
		Log:         log,
		Now:         time.Now,
	}
}

// =============================================================================
// AGENT HANDLERS
// =============================================================================

// ListAgents returns all agents.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Store.ListAgents(r.Context())
	if err != nil {
		h.fail(w, "Failed to list agents", err)
		return
	}
	dtos := make([]AgentDTO, 0, len(agents))
	for _, a := range agents {
		dtos = append(dtos, toAgentDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAgent creates or updates an agent.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req AgentDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.Target < 0 {
		writeError(w, http.StatusBadRequest, "target must not be negative", nil)
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	agent := incentive.Agent{
		ID:       req.ID,
		Name:     req.Name,
		Target:   req.Target,
		IsActive: req.IsActive == nil || *req.IsActive,
		IsAdmin:  req.IsAdmin,
	}
	if err := h.Store.SaveAgent(r.Context(), agent); err != nil {
		h.fail(w, "Failed to save agent", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAgentDTO(agent))
}

// GetAgentIncentives returns one agent's aggregate for a range.
// GET /api/agents/{id}/incentives?range=month
func (h *Handler) GetAgentIncentives(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	agent, err := h.Store.GetAgent(ctx, id)
	if err != nil {
		h.fail(w, "Failed to get agent", err)
		return
	}

	period, err := h.resolveRange(r, incentive.RangeMonth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range", err)
		return
	}

	snap, err := incentive.LoadSnapshot(ctx, h.Store, h.Engine.Calendar, period)
	if err != nil {
		h.fail(w, "Failed to load incentive data", err)
		return
	}

	result := h.Engine.AggregateAgent(*agent, snap.Leads, snap.Plans, period)
	writeJSON(w, http.StatusOK, toAggregateDTO(result, 0))
}

// =============================================================================
// LEAD HANDLERS
// =============================================================================

// ListLeads returns the leads in a range (default: current month).
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	period, err := h.resolveRange(r, incentive.RangeMonth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range", err)
		return
	}
	from, to, _ := h.Engine.Calendar.Bounds(period)
	leads, err := h.Store.ListLeads(r.Context(), from, to)
	if err != nil {
		h.fail(w, "Failed to list leads", err)
		return
	}

	agentID := r.URL.Query().Get("agent_id")
	dtos := make([]LeadDTO, 0, len(leads))
	for _, l := range leads {
		if agentID != "" && l.AgentID != agentID {
			continue
		}
		dtos = append(dtos, h.toLeadDTO(l))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLead records a lead for an existing agent.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LeadDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, ok := h.Engine.Calendar.ParseTime(req.Date)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD or RFC3339)", nil)
		return
	}
	if strings.TrimSpace(req.LeadType) == "" {
		writeError(w, http.StatusBadRequest, "lead_type is required", nil)
		return
	}
	if _, err := h.Store.GetAgent(ctx, req.AgentID); err != nil {
		h.fail(w, "Failed to get agent", err)
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	lead := incentive.Lead{
		ID:             req.ID,
		AgentID:        req.AgentID,
		Date:           date,
		LeadType:       req.LeadType,
		Country:        req.Country,
		AttendeesCount: req.AttendeesCount,
		IndustryDomain: req.IndustryDomain,
		Qualified:      req.Qualified,
	}
	if err := h.Store.SaveLead(ctx, lead); err != nil {
		h.fail(w, "Failed to save lead", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toLeadDTO(lead))
}

func (h *Handler) toLeadDTO(l incentive.Lead) LeadDTO {
	day, _ := h.Engine.Calendar.Key(l.Date)
	return LeadDTO{
		ID:             l.ID,
		AgentID:        l.AgentID,
		Date:           day.String(),
		LeadType:       l.LeadType,
		Country:        l.Country,
		AttendeesCount: l.AttendeesCount,
		IndustryDomain: l.IndustryDomain,
		Qualified:      l.Qualified,
	}
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns every plan, including inactive ones.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		h.fail(w, "Failed to list plans", err)
		return
	}
	dtos := make([]PlanDTO, 0, len(plans))
	for i := range plans {
		dtos = append(dtos, h.PlanFactory.ToJSON(&plans[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlan creates a plan from its JSON definition.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PlanDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	plan, err := h.PlanFactory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
		return
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = h.Now()
	}
	if err := h.Store.SavePlan(ctx, *plan); err != nil {
		h.fail(w, "Failed to save plan", err)
		return
	}
	h.Log.WithFields(logrus.Fields{"plan_id": plan.ID, "rules": len(plan.Rules)}).Info("plan created")

	// Re-read so generated IDs are returned.
	h.writePlan(w, r, http.StatusCreated, plan.ID)
}

// GetPlan returns a single plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	h.writePlan(w, r, http.StatusOK, chi.URLParam(r, "id"))
}

// ReplaceRules swaps a plan's full rule set.
// PUT /api/plans/{id}/rules
func (h *Handler) ReplaceRules(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ReplaceRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rules, err := h.PlanFactory.RulesFromJSON(req.Rules)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rules", err)
		return
	}
	if err := h.Store.ReplaceRules(r.Context(), id, rules); err != nil {
		h.fail(w, "Failed to replace rules", err)
		return
	}
	h.Log.WithFields(logrus.Fields{"plan_id": id, "rules": len(rules)}).Info("plan rules replaced")
	h.writePlan(w, r, http.StatusOK, id)
}

// DeactivatePlan marks a plan inactive and ends its validity now.
func (h *Handler) DeactivatePlan(w http.ResponseWriter, r *http.Request) {
	h.setPlanActive(w, r, false)
}

// ActivatePlan marks a plan active again. Its validity is left unchanged.
func (h *Handler) ActivatePlan(w http.ResponseWriter, r *http.Request) {
	h.setPlanActive(w, r, true)
}

func (h *Handler) setPlanActive(w http.ResponseWriter, r *http.Request, active bool) {
	id := chi.URLParam(r, "id")
	if err := h.Store.SetPlanActive(r.Context(), id, active, h.Now()); err != nil {
		h.fail(w, "Failed to update plan", err)
		return
	}
	h.Log.WithFields(logrus.Fields{"plan_id": id, "active": active}).Info("plan activation changed")
	h.writePlan(w, r, http.StatusOK, id)
}

// ResolvePlans lists the plans valid on a date (default today).
// GET /api/plans/resolve?date=2025-03-14
func (h *Handler) ResolvePlans(w http.ResponseWriter, r *http.Request) {
	date := h.Now()
	if s := r.URL.Query().Get("date"); s != "" {
		t, ok := h.Engine.Calendar.ParseTime(s)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", nil)
			return
		}
		date = t
	}

	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		h.fail(w, "Failed to list plans", err)
		return
	}

	day, _ := h.Engine.Calendar.Key(date)
	resp := ResolvedPlansDTO{Date: day.String(), Plans: []PlanDTO{}}
	for _, p := range h.Engine.ResolvePlansForDate(plans, date) {
		resp.Plans = append(resp.Plans, h.PlanFactory.ToJSON(&p))
	}
	if latest, ok := h.Engine.FindPlanForDate(plans, date); ok {
		resp.LatestPlanID = latest.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writePlan(w http.ResponseWriter, r *http.Request, status int, id string) {
	plan, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to get plan", err)
		return
	}
	writeJSON(w, status, h.PlanFactory.ToJSON(plan))
}

// =============================================================================
// INCENTIVE HANDLERS
// =============================================================================

// GetLeaderboard ranks agents by earnings.
// GET /api/leaderboard?range=month&sort=amount_desc&lead_type=&limit=10
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	period, err := h.resolveRange(r, incentive.RangeMonth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range", err)
		return
	}
	sortKey, err := incentive.ParseSortKey(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sort", err)
		return
	}
	limit := 0
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
	}

	snap, err := incentive.LoadSnapshot(ctx, h.Store, h.Engine.Calendar, period)
	if err != nil {
		h.fail(w, "Failed to load incentive data", err)
		return
	}

	lb := h.Engine.BuildLeaderboard(snap.Agents, snap.Leads, snap.Plans, incentive.LeaderboardQuery{
		Period:      period,
		Sort:        sortKey,
		LeadType:    q.Get("lead_type"),
		Limit:       limit,
		EarnersOnly: q.Get("include_all") != "true",
	})
	h.Log.WithFields(logrus.Fields{
		"range":   period.String(),
		"sort":    sortKey,
		"results": len(lb.Results),
	}).Debug("leaderboard built")

	writeJSON(w, http.StatusOK, toLeaderboardDTO(lb))
}

// GetIncentiveSummary returns per-rule achievers for a month.
// GET /api/incentives/summary?year=2025&month=3
func (h *Handler) GetIncentiveSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	spec, err := h.rangeSpec(r, incentive.RangeMonth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	spec.Kind = incentive.RangeMonth
	period, err := h.Engine.Calendar.Resolve(spec, h.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}
	start, _ := h.Engine.Calendar.StartOf(period.Start)

	snap, err := incentive.LoadSnapshot(ctx, h.Store, h.Engine.Calendar, period)
	if err != nil {
		h.fail(w, "Failed to load incentive data", err)
		return
	}

	summary := h.Engine.BuildIncentiveSummary(snap.Agents, snap.Leads, snap.Plans, start.Year(), start.Month())
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// =============================================================================
// HELPERS
// =============================================================================

// rangeSpec reads range, year, month, from and to query parameters.
func (h *Handler) rangeSpec(r *http.Request, def incentive.RangeKind) (incentive.RangeSpec, error) {
	q := r.URL.Query()
	spec := incentive.RangeSpec{
		Kind: incentive.RangeKind(q.Get("range")),
		From: q.Get("from"),
		To:   q.Get("to"),
	}
	if spec.Kind == "" {
		spec.Kind = def
		if spec.From != "" || spec.To != "" {
			spec.Kind = incentive.RangeCustom
		}
	}
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			return spec, errors.Join(incentive.ErrInvalidPeriod, err)
		}
		spec.Year = y
	}
	if s := q.Get("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil {
			return spec, errors.Join(incentive.ErrInvalidPeriod, err)
		}
		spec.Month = time.Month(m)
	}
	return spec, nil
}

func (h *Handler) resolveRange(r *http.Request, def incentive.RangeKind) (incentive.Period, error) {
	spec, err := h.rangeSpec(r, def)
	if err != nil {
		return incentive.Period{}, err
	}
	return h.Engine.Calendar.Resolve(spec, h.Now())
}

// fail maps store and engine errors to a status and logs server faults.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	switch {
	case incentive.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case incentive.IsClientError(err), errors.Is(err, factory.ErrInvalidPlan):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
