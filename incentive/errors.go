/*
errors.go - Error types for the incentive engine edges

PURPOSE:
  The computation itself never fails: bad dates and degenerate rules are
  skipped, and a day without a plan simply pays nothing. Errors exist only
  where callers hand us requests (ranges, sort keys) or where stores look
  records up by ID.

USAGE:
    period, err := cal.Resolve(spec, time.Now())
    if incentive.IsClientError(err) {
        // 400
    }

SEE ALSO:
  - period.go: Range resolution
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package incentive

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a requested date cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrUnknownRange is returned for an unrecognised range kind.
	ErrUnknownRange = errors.New("unknown range")

	// ErrUnknownSortKey is returned for an unrecognised leaderboard sort key.
	ErrUnknownSortKey = errors.New("unknown sort key")

	// ErrPlanNotFound is returned when a referenced plan doesn't exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrAgentNotFound is returned when a referenced agent doesn't exist.
	ErrAgentNotFound = errors.New("agent not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // "plan" or "agent"
	ID   string
	err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.err }

// PlanNotFound builds a NotFoundError wrapping ErrPlanNotFound.
func PlanNotFound(id string) error {
	return &NotFoundError{Kind: "plan", ID: id, err: ErrPlanNotFound}
}

// AgentNotFound builds a NotFoundError wrapping ErrAgentNotFound.
func AgentNotFound(id string) error {
	return &NotFoundError{Kind: "agent", ID: id, err: ErrAgentNotFound}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrUnknownRange) ||
		errors.Is(err, ErrUnknownSortKey)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrAgentNotFound)
}
