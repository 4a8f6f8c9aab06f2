// Package advisory wraps the optional language-model hook that annotates
// fraud findings with free-text commentary. Its output is advisory only and
// never overrides rule-engine findings; a failed call degrades to a
// well-formed fallback payload instead of propagating an error into the
// analysis.
package advisory

import (
	"context"
	"fmt"

	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// Result is the advisory hook's annotation for one analyzed invoice.
type Result struct {
	AdditionalIndicators []string                `json:"additional_indicators"`
	FraudProbability     enums.FraudProbability  `json:"fraud_probability"`
	RecommendedAction    enums.RecommendedAction `json:"recommended_action"`
	Explanation          string                  `json:"explanation"`
}

// Advisor is the capability interface for the external advisory service.
type Advisor interface {
	// Advise annotates the candidate and its rule-engine findings.
	Advise(ctx context.Context, candidate *models.InvoiceRecord, findings []models.Finding) (*Result, error)
}

// Degraded returns the documented fallback payload for a failed advisory
// call. The explanation names the failure so it can be surfaced in reports.
func Degraded(err error) *Result {
	return &Result{
		AdditionalIndicators: []string{},
		FraudProbability:     enums.FraudProbabilityUnknown,
		RecommendedAction:    enums.ActionReview,
		Explanation:          fmt.Sprintf("AI analysis failed: %v", err),
	}
}

// Noop is the advisor used when no advisory service is configured. It always
// returns the degraded payload.
type Noop struct{}

// Advise implements Advisor.
func (Noop) Advise(context.Context, *models.InvoiceRecord, []models.Finding) (*Result, error) {
	return Degraded(fmt.Errorf("advisory service not configured")), nil
}
