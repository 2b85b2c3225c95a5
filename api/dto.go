/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's data model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts are decimal.Decimal and serialize as quoted strings ("1000.5")
  so clients never round-trip money through float64. Formatting with
  currency symbols is left to the client.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: PlanJSON and RuleJSON, reused as plan DTOs
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/incentive-engine/factory"
	"github.com/warp/incentive-engine/incentive"
)

// =============================================================================
// AGENTS AND LEADS
// =============================================================================

// AgentDTO represents an agent in requests and responses.
type AgentDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Target   int    `json:"target"`
	IsActive *bool  `json:"is_active,omitempty"` // default true on create
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// LeadDTO represents a lead in requests and responses.
type LeadDTO struct {
	ID             string `json:"id,omitempty"`
	AgentID        string `json:"agent_id"`
	Date           string `json:"date"`
	LeadType       string `json:"lead_type"`
	Country        string `json:"country,omitempty"`
	AttendeesCount *int   `json:"attendees_count,omitempty"`
	IndustryDomain string `json:"industry_domain,omitempty"`
	Qualified      bool   `json:"qualified"`
}

// =============================================================================
// PLANS
// =============================================================================

// PlanDTO is the JSON plan definition.
type PlanDTO = factory.PlanJSON

// ReplaceRulesRequest replaces a plan's full rule set.
type ReplaceRulesRequest struct {
	Rules []factory.RuleJSON `json:"rules"`
}

// ResolvedPlansDTO lists the plans covering one day.
type ResolvedPlansDTO struct {
	Date         string    `json:"date"`
	Plans        []PlanDTO `json:"plans"`
	LatestPlanID string    `json:"latest_plan_id,omitempty"`
}

// =============================================================================
// RESULTS
// =============================================================================

// PeriodDTO is an inclusive date range.
type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AggregateDTO is one agent's result.
type AggregateDTO struct {
	Rank           int             `json:"rank,omitempty"`
	EmployeeID     string          `json:"employee_id"`
	Name           string          `json:"name"`
	TotalLeads     int             `json:"total_leads"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CountsByAmount map[string]int  `json:"counts_by_amount"`
	BonusAwarded   bool            `json:"bonus_awarded"`
	BonusAmount    decimal.Decimal `json:"bonus_amount"`
}

// LeaderboardDTO is the ranked view.
type LeaderboardDTO struct {
	Period  PeriodDTO         `json:"period"`
	Columns []decimal.Decimal `json:"columns"`
	Results []AggregateDTO    `json:"results"`
}

// AchievementDTO is one agent hitting one rule on one day.
type AchievementDTO struct {
	AgentID   string          `json:"agent_id"`
	AgentName string          `json:"agent_name"`
	Date      string          `json:"date"`
	Times     int             `json:"times"`
	Amount    decimal.Decimal `json:"amount"`
}

// RuleGroupDTO lists the achievers of one rule.
type RuleGroupDTO struct {
	RuleID        string           `json:"rule_id"`
	PlanID        string           `json:"plan_id"`
	PlanTitle     string           `json:"plan_title"`
	LeadType      string           `json:"lead_type"`
	Country       string           `json:"country,omitempty"`
	LeadsRequired int              `json:"leads_required"`
	Amount        decimal.Decimal  `json:"amount"`
	TotalTimes    int              `json:"total_times"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	Achievers     []AchievementDTO `json:"achievers"`
}

// BonusDTO is an agent who crossed the double-target threshold.
type BonusDTO struct {
	AgentID    string          `json:"agent_id"`
	Name       string          `json:"name"`
	Target     int             `json:"target"`
	TotalLeads int             `json:"total_leads"`
	Amount     decimal.Decimal `json:"amount"`
}

// SummaryDTO is the monthly achiever breakdown.
type SummaryDTO struct {
	Period              PeriodDTO      `json:"period"`
	Rules               []RuleGroupDTO `json:"rules"`
	MonthlyDoubleTarget []BonusDTO     `json:"monthly_double_target"`
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toAgentDTO(a incentive.Agent) AgentDTO {
	active := a.IsActive
	return AgentDTO{ID: a.ID, Name: a.Name, Target: a.Target, IsActive: &active, IsAdmin: a.IsAdmin}
}

func toPeriodDTO(p incentive.Period) PeriodDTO {
	return PeriodDTO{Start: p.Start.String(), End: p.End.String()}
}

func toAggregateDTO(r incentive.AggregateResult, rank int) AggregateDTO {
	counts := make(map[string]int, len(r.CountsByAmount))
	for k, v := range r.CountsByAmount {
		counts[k] = v
	}
	return AggregateDTO{
		Rank:           rank,
		EmployeeID:     r.EmployeeID,
		Name:           r.Name,
		TotalLeads:     r.TotalLeads,
		TotalAmount:    r.TotalAmount,
		CountsByAmount: counts,
		BonusAwarded:   r.BonusAwarded,
		BonusAmount:    r.BonusAmount,
	}
}

func toLeaderboardDTO(lb incentive.Leaderboard) LeaderboardDTO {
	dto := LeaderboardDTO{
		Period:  toPeriodDTO(lb.Period),
		Columns: lb.Columns,
		Results: make([]AggregateDTO, 0, len(lb.Results)),
	}
	if dto.Columns == nil {
		dto.Columns = []decimal.Decimal{}
	}
	for i, r := range lb.Results {
		dto.Results = append(dto.Results, toAggregateDTO(r, i+1))
	}
	return dto
}

func toSummaryDTO(s incentive.Summary) SummaryDTO {
	dto := SummaryDTO{
		Period:              toPeriodDTO(s.Period),
		Rules:               make([]RuleGroupDTO, 0, len(s.Rules)),
		MonthlyDoubleTarget: make([]BonusDTO, 0, len(s.MonthlyDoubleTarget)),
	}
	for _, g := range s.Rules {
		group := RuleGroupDTO{
			RuleID:        g.Rule.ID,
			PlanID:        g.Rule.PlanID,
			PlanTitle:     g.Rule.PlanTitle,
			LeadType:      g.Rule.LeadType,
			Country:       g.Rule.Country,
			LeadsRequired: g.Rule.LeadsRequired,
			Amount:        g.Rule.Amount,
			TotalTimes:    g.TotalTimes,
			TotalAmount:   g.TotalAmount,
			Achievers:     make([]AchievementDTO, 0, len(g.Achievers)),
		}
		for _, a := range g.Achievers {
			group.Achievers = append(group.Achievers, AchievementDTO{
				AgentID:   a.AgentID,
				AgentName: a.AgentName,
				Date:      a.Day.String(),
				Times:     a.Times,
				Amount:    a.Amount,
			})
		}
		dto.Rules = append(dto.Rules, group)
	}
	for _, b := range s.MonthlyDoubleTarget {
		dto.MonthlyDoubleTarget = append(dto.MonthlyDoubleTarget, BonusDTO{
			AgentID:    b.AgentID,
			Name:       b.Name,
			Target:     b.Target,
			TotalLeads: b.TotalLeads,
			Amount:     b.Amount,
		})
	}
	return dto
}
