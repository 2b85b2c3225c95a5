/*
store.go - Collaborator interfaces for loading engine inputs

PURPOSE:
  The engine consumes fully materialized collections. These interfaces are
  how the service layer fetches them before a computation runs. Nothing in
  the engine itself calls a store.

KEY INTERFACES:
  Source:     Read-only access to agents, leads and plans
  Repository: Source plus the administrative writes the API exposes

PLAN LIFECYCLE:
  Plans are never deleted. SetPlanActive(false) marks a plan inactive and
  closes its validity at the given instant; rules are only ever replaced as
  a whole set via ReplaceRules.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite persistence
  - incentive/store/memory.go: In-memory for tests and demos
*/
package incentive

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// Source loads the inputs of a computation.
type Source interface {
	ListAgents(ctx context.Context) ([]Agent, error)

	// ListLeads returns leads with Date in [from, to). Unqualified leads are
	// included; the engine filters them.
	ListLeads(ctx context.Context, from, to time.Time) ([]Lead, error)

	// ListPlans returns every plan with its rules, active or not.
	ListPlans(ctx context.Context) ([]Plan, error)
}

// Repository extends Source with administrative writes.
type Repository interface {
	Source

	SaveAgent(ctx context.Context, agent Agent) error
	GetAgent(ctx context.Context, id string) (*Agent, error)

	SaveLead(ctx context.Context, lead Lead) error

	// SavePlan inserts a plan, or updates its header and replaces its rules.
	SavePlan(ctx context.Context, plan Plan) error
	GetPlan(ctx context.Context, id string) (*Plan, error)
	ReplaceRules(ctx context.Context, planID string, rules []Rule) error

	// SetPlanActive toggles visibility. Deactivation also sets ValidTo = at.
	SetPlanActive(ctx context.Context, planID string, active bool, at time.Time) error

	// Reset drops all data. Used by demo scenarios.
	Reset(ctx context.Context) error
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is one consistent read of everything a computation needs.
type Snapshot struct {
	Agents []Agent
	Leads  []Lead
	Plans  []Plan
}

// LoadSnapshot fetches agents, plans and the leads falling inside period.
func LoadSnapshot(ctx context.Context, src Source, cal Calendar, period Period) (*Snapshot, error) {
	from, to, ok := cal.Bounds(period)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}

	agents, err := src.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	plans, err := src.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	leads, err := src.ListLeads(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return &Snapshot{Agents: agents, Leads: leads, Plans: plans}, nil
}
