package reconcile

import (
	"time"

	"github.com/google/uuid"

	"invoiceguard/pkg/models"
)

// Report summarizes one reconciliation run; the report sink serializes it.
type Report struct {
	RunID             string           `json:"run_id"`
	Timestamp         models.Timestamp `json:"timestamp"`
	Wallet            string           `json:"wallet"`
	TotalPayments     int              `json:"total_payments"`
	MatchedPayments   int              `json:"matched_payments"`
	UnmatchedPayments int              `json:"unmatched_payments"`
	Matches           []Match          `json:"matches"`
}

// NewReport summarizes a batch of matches.
func NewReport(wallet string, matches []Match, now time.Time) *Report {
	matched := 0
	for _, m := range matches {
		if m.Matched {
			matched++
		}
	}
	return &Report{
		RunID:             uuid.NewString(),
		Timestamp:         models.NewTimestamp(now),
		Wallet:            wallet,
		TotalPayments:     len(matches),
		MatchedPayments:   matched,
		UnmatchedPayments: len(matches) - matched,
		Matches:           matches,
	}
}
