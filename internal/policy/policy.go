// Package policy implements the anti-abuse decision taken before a check-in
// attempt is forwarded to Gympass.
package policy

import (
	"context"

	"gympass-checkin-backend/internal/checkin"
)

// Evaluator decides whether a check-in attempt may proceed. A returned error
// means no decision could be produced; the orchestrator's fail mode then
// decides whether the attempt proceeds or is declined.
type Evaluator interface {
	Evaluate(ctx context.Context, attempt checkin.Attempt) (checkin.Decision, error)
}
