// Package store provides in-memory Repository implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	agents map[string]incentive.Agent
	leads  []incentive.Lead // ordered by Date
	plans  map[string]incentive.Plan
}

var _ incentive.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		agents: make(map[string]incentive.Agent),
		plans:  make(map[string]incentive.Plan),
	}
}

// =============================================================================
// AGENTS
// =============================================================================

func (m *Memory) SaveAgent(_ context.Context, agent incentive.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	m.agents[agent.ID] = agent
	return nil
}

func (m *Memory) GetAgent(_ context.Context, id string) (*incentive.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, incentive.AgentNotFound(id)
	}
	return &a, nil
}

func (m *Memory) ListAgents(_ context.Context) ([]incentive.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]incentive.Agent, 0, len(m.agents))
	for _, a := range m.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// LEADS
// =============================================================================

// SaveLead inserts lead keeping the slice ordered by Date.
func (m *Memory) SaveLead(_ context.Context, lead incentive.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}

	i := sort.Search(len(m.leads), func(i int) bool {
		return m.leads[i].Date.After(lead.Date)
	})
	m.leads = append(m.leads, incentive.Lead{})
	copy(m.leads[i+1:], m.leads[i:])
	m.leads[i] = lead
	return nil
}

func (m *Memory) ListLeads(_ context.Context, from, to time.Time) ([]incentive.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []incentive.Lead
	for _, l := range m.leads {
		if !l.Date.Before(from) && l.Date.Before(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

// =============================================================================
// PLANS
// =============================================================================

func (m *Memory) SavePlan(_ context.Context, plan incentive.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if existing, ok := m.plans[plan.ID]; ok && plan.CreatedAt.IsZero() {
		plan.CreatedAt = existing.CreatedAt
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}
	plan.Rules = ownRules(plan.ID, plan.Rules)
	m.plans[plan.ID] = plan
	return nil
}

func (m *Memory) GetPlan(_ context.Context, id string) (*incentive.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, incentive.PlanNotFound(id)
	}
	p.Rules = append([]incentive.Rule(nil), p.Rules...)
	return &p, nil
}

func (m *Memory) ListPlans(_ context.Context) ([]incentive.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]incentive.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		p.Rules = append([]incentive.Rule(nil), p.Rules...)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValidFrom.Equal(out[j].ValidFrom) {
			return out[i].ValidFrom.Before(out[j].ValidFrom)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ReplaceRules(_ context.Context, planID string, rules []incentive.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok {
		return incentive.PlanNotFound(planID)
	}
	p.Rules = ownRules(planID, rules)
	m.plans[planID] = p
	return nil
}

func (m *Memory) SetPlanActive(_ context.Context, planID string, active bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok {
		return incentive.PlanNotFound(planID)
	}
	p.IsActive = active
	if !active {
		end := at
		p.ValidTo = &end
	}
	m.plans[planID] = p
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents = make(map[string]incentive.Agent)
	m.plans = make(map[string]incentive.Plan)
	m.leads = nil
	return nil
}

// ownRules copies rules, stamping the plan ID and filling missing rule IDs.
func ownRules(planID string, rules []incentive.Rule) []incentive.Rule {
	out := make([]incentive.Rule, len(rules))
	for i, r := range rules {
		r.PlanID = planID
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		out[i] = r
	}
	return out
}
