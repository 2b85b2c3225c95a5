/*
Package sqlite provides a SQLite-backed implementation of incentive.Repository.

PURPOSE:
  Persists agents, leads and incentive plans with their rules. The engine
  never sees this package: handlers load a snapshot through the
  incentive.Source interface and hand plain slices to the engine.

KEY TABLES:
  agents:     Sales employees with their monthly target
  leads:      Dated, typed lead records (qualified or not)
  plans:      Plan headers with validity interval and activation flag
  plan_rules: Reward tiers, owned by exactly one plan

PLAN LIFECYCLE:
  - Plans are never deleted
  - SavePlan/ReplaceRules replace a plan's full rule set atomically
  - SetPlanActive(false) sets is_active = 0 and valid_to = now

TIME STORAGE:
  Instants are stored in UTC with a fixed-width layout so that range
  queries on leads.occurred_at can compare strings.

INDEXES:
  - idx_leads_occurred_at:   Period loads (hot path)
  - idx_leads_agent_date:    Per-agent views
  - idx_plan_rules_plan:     Rule lookup by plan

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, as SQLite has a single writer.

USAGE:
  store, err := sqlite.New("./data/incentives.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - incentive/store.go: Interface definitions
  - incentive/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/incentive"
)

// timeLayout is fixed-width so stored instants sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements incentive.Repository using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ incentive.Repository = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		target INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		lead_type TEXT NOT NULL,
		country TEXT,
		attendees_count INTEGER,
		industry_domain TEXT,
		qualified INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leads_occurred_at
		ON leads(occurred_at);
	CREATE INDEX IF NOT EXISTS idx_leads_agent_date
		ON leads(agent_id, occurred_at);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		valid_from TEXT NOT NULL,
		valid_to TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plan_rules (
		id TEXT NOT NULL,
		plan_id TEXT NOT NULL REFERENCES plans(id),
		position INTEGER NOT NULL,
		lead_type TEXT NOT NULL,
		country TEXT,
		attendees_min_count INTEGER,
		industry_domain TEXT,
		leads_required INTEGER NOT NULL,
		amount TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (plan_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_plan_rules_plan
		ON plan_rules(plan_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// AGENTS
// =============================================================================

// SaveAgent creates or updates an agent.
func (s *Store) SaveAgent(ctx context.Context, agent incentive.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}

	query := `
		INSERT INTO agents (id, name, target, is_active, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			target = excluded.target,
			is_active = excluded.is_active,
			is_admin = excluded.is_admin
	`
	_, err := s.db.ExecContext(ctx, query,
		agent.ID, agent.Name, agent.Target, agent.IsActive, agent.IsAdmin,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save agent %s: %w", agent.ID, err)
	}
	return nil
}

// GetAgent retrieves an agent by ID.
func (s *Store) GetAgent(ctx context.Context, id string) (*incentive.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a incentive.Agent
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, target, is_active, is_admin FROM agents WHERE id = ?",
		id,
	).Scan(&a.ID, &a.Name, &a.Target, &a.IsActive, &a.IsAdmin)

	if err == sql.ErrNoRows {
		return nil, incentive.AgentNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent %s: %w", id, err)
	}
	return &a, nil
}

// ListAgents returns every agent ordered by name.
func (s *Store) ListAgents(ctx context.Context) ([]incentive.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, target, is_active, is_admin FROM agents ORDER BY name, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []incentive.Agent
	for rows.Next() {
		var a incentive.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Target, &a.IsActive, &a.IsAdmin); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// =============================================================================
// LEADS
// =============================================================================

// SaveLead creates or updates a lead.
func (s *Store) SaveLead(ctx context.Context, lead incentive.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}

	query := `
		INSERT INTO leads (id, agent_id, occurred_at, lead_type, country, attendees_count,
		                   industry_domain, qualified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			occurred_at = excluded.occurred_at,
			lead_type = excluded.lead_type,
			country = excluded.country,
			attendees_count = excluded.attendees_count,
			industry_domain = excluded.industry_domain,
			qualified = excluded.qualified
	`
	_, err := s.db.ExecContext(ctx, query,
		lead.ID, lead.AgentID, formatTime(lead.Date), lead.LeadType,
		nullString(lead.Country), nullInt(lead.AttendeesCount),
		nullString(lead.IndustryDomain), lead.Qualified,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save lead %s: %w", lead.ID, err)
	}
	return nil
}

// ListLeads returns leads with occurred_at in [from, to), oldest first.
func (s *Store) ListLeads(ctx context.Context, from, to time.Time) ([]incentive.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, occurred_at, lead_type, country, attendees_count,
		       industry_domain, qualified
		FROM leads
		WHERE occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at, id
	`, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []incentive.Lead
	for rows.Next() {
		var (
			l                 incentive.Lead
			occurredAt        string
			country, industry sql.NullString
			attendees         sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.AgentID, &occurredAt, &l.LeadType, &country,
			&attendees, &industry, &l.Qualified); err != nil {
			return nil, err
		}
		// An unparseable timestamp leaves Date zero; the engine skips it.
		l.Date = parseTime(occurredAt)
		l.Country = country.String
		l.IndustryDomain = industry.String
		l.AttendeesCount = intPtr(attendees)
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// =============================================================================
// PLANS
// =============================================================================

// SavePlan inserts a plan or updates its header, and replaces its rules.
func (s *Store) SavePlan(ctx context.Context, plan incentive.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var validTo sql.NullString
		if plan.ValidTo != nil {
			validTo = nullString(formatTime(*plan.ValidTo))
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO plans (id, title, description, valid_from, valid_to, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				valid_from = excluded.valid_from,
				valid_to = excluded.valid_to,
				is_active = excluded.is_active
		`, plan.ID, plan.Title, nullString(plan.Description), formatTime(plan.ValidFrom),
			validTo, plan.IsActive, formatTime(plan.CreatedAt))
		if err != nil {
			return fmt.Errorf("failed to save plan %s: %w", plan.ID, err)
		}
		return replaceRules(ctx, tx, plan.ID, plan.Rules)
	})
}

// GetPlan retrieves a plan with its rules.
func (s *Store) GetPlan(ctx context.Context, id string) (*incentive.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans, err := s.queryPlans(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, incentive.PlanNotFound(id)
	}
	return &plans[0], nil
}

// ListPlans returns every plan, active or not, ordered by valid_from.
func (s *Store) ListPlans(ctx context.Context) ([]incentive.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryPlans(ctx, "")
}

// ReplaceRules swaps a plan's entire rule set.
func (s *Store) ReplaceRules(ctx context.Context, planID string, rules []incentive.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := planExists(ctx, tx, planID); err != nil {
			return err
		}
		return replaceRules(ctx, tx, planID, rules)
	})
}

// SetPlanActive toggles a plan. Deactivation closes the validity at 'at'.
func (s *Store) SetPlanActive(ctx context.Context, planID string, active bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := planExists(ctx, tx, planID); err != nil {
			return err
		}
		var err error
		if active {
			_, err = tx.ExecContext(ctx, "UPDATE plans SET is_active = 1 WHERE id = ?", planID)
		} else {
			_, err = tx.ExecContext(ctx,
				"UPDATE plans SET is_active = 0, valid_to = ? WHERE id = ?",
				formatTime(at), planID)
		}
		if err != nil {
			return fmt.Errorf("failed to update plan %s: %w", planID, err)
		}
		return nil
	})
}

// Reset clears all data (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"plan_rules", "plans", "leads", "agents"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) queryPlans(ctx context.Context, where string, args ...any) ([]incentive.Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, valid_from, valid_to, is_active, created_at
		FROM plans `+where+`
		ORDER BY valid_from, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}

	var plans []incentive.Plan
	for rows.Next() {
		var (
			p                    incentive.Plan
			description, validTo sql.NullString
			validFrom, createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Title, &description, &validFrom, &validTo,
			&p.IsActive, &createdAt); err != nil {
			rows.Close()
			return nil, err
		}
		p.Description = description.String
		p.ValidFrom = parseTime(validFrom)
		p.CreatedAt = parseTime(createdAt)
		if validTo.Valid {
			t := parseTime(validTo.String)
			p.ValidTo = &t
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	for i := range plans {
		rules, err := s.queryRules(ctx, plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].Rules = rules
	}
	return plans, nil
}

func (s *Store) queryRules(ctx context.Context, planID string) ([]incentive.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, lead_type, country, attendees_min_count, industry_domain,
		       leads_required, amount, is_active
		FROM plan_rules
		WHERE plan_id = ?
		ORDER BY position
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules of plan %s: %w", planID, err)
	}
	defer rows.Close()

	var rules []incentive.Rule
	for rows.Next() {
		var (
			r                 incentive.Rule
			country, industry sql.NullString
			minCount          sql.NullInt64
			amount            string
		)
		if err := rows.Scan(&r.ID, &r.PlanID, &r.LeadType, &country, &minCount,
			&industry, &r.LeadsRequired, &amount, &r.IsActive); err != nil {
			return nil, err
		}
		r.Country = country.String
		r.IndustryDomain = industry.String
		r.AttendeesMinCount = intPtr(minCount)
		r.Amount = parseDecimal(amount)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// =============================================================================
// TRANSACTION HELPERS
// =============================================================================

// withTx runs fn in a database transaction. Callers hold s.mu.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func planExists(ctx context.Context, tx *sql.Tx, planID string) error {
	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM plans WHERE id = ?", planID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return incentive.PlanNotFound(planID)
	}
	return nil
}

func replaceRules(ctx context.Context, tx *sql.Tx, planID string, rules []incentive.Rule) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_rules WHERE plan_id = ?", planID); err != nil {
		return fmt.Errorf("failed to clear rules of plan %s: %w", planID, err)
	}
	for i, r := range rules {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO plan_rules (id, plan_id, position, lead_type, country, attendees_min_count,
			                        industry_domain, leads_required, amount, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, planID, i, r.LeadType, nullString(r.Country), nullInt(r.AttendeesMinCount),
			nullString(r.IndustryDomain), r.LeadsRequired, r.Amount.String(), r.IsActive)
		if err != nil {
			return fmt.Errorf("failed to insert rule %s: %w", r.ID, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
