// Package reconcile pairs observed payment events with open invoices under
// a monetary tolerance.
package reconcile

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoiceguard/internal/logger"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// DefaultTolerance is the absolute amount tolerance for exact matches.
var DefaultTolerance = decimal.New(1, -2) // 0.01

// Match is the outcome of matching one payment against the pending pool.
type Match struct {
	Matched bool                `json:"matched"`
	Payment models.PaymentEvent `json:"payment"`

	// Set when Matched.
	Invoice        *models.InvoiceRecord `json:"invoice,omitempty"`
	MatchType      enums.MatchType       `json:"match_type,omitempty"`
	Difference     decimal.Decimal       `json:"difference"`
	PaidPercentage *float64              `json:"paid_percentage,omitempty"`

	// Set when not Matched.
	Reason string `json:"reason,omitempty"`
}

// Matcher matches payments to pending invoices.
type Matcher struct {
	tolerance decimal.Decimal
	log       zerolog.Logger
}

// NewMatcher creates a matcher with the given exact-match tolerance.
// A negative tolerance is a programmer error and fails fast.
func NewMatcher(tolerance decimal.Decimal) (*Matcher, error) {
	if tolerance.IsNegative() {
		return nil, fmt.Errorf("tolerance must not be negative, got %s", tolerance)
	}
	return &Matcher{
		tolerance: tolerance,
		log:       logger.WithComponent("reconcile-matcher"),
	}, nil
}

// Match pairs each payment with at most one pending invoice, producing one
// Match per payment in the order payments were supplied. For each payment
// the pending invoices are scanned in their given order and the first one
// satisfying either rule wins: exact when the amount delta is within
// tolerance, partial when the payment covers part of the total.
//
// Matching is first-fit and non-exclusive across the batch: an invoice that
// matched one payment stays in the candidate pool for subsequent payments.
// This is a documented limitation; callers wanting one-invoice-one-payment
// allocation must filter matched invoices out between batches.
func (m *Matcher) Match(pending []models.InvoiceRecord, payments []models.PaymentEvent) []Match {
	matches := make([]Match, 0, len(payments))
	for _, payment := range payments {
		matches = append(matches, m.matchPayment(pending, payment))
	}

	matched := 0
	for _, match := range matches {
		if match.Matched {
			matched++
		}
	}
	m.log.Info().
		Int("payments", len(payments)).
		Int("pending_invoices", len(pending)).
		Int("matched", matched).
		Int("unmatched", len(payments)-matched).
		Msg("Payment matching completed")

	return matches
}

func (m *Matcher) matchPayment(pending []models.InvoiceRecord, payment models.PaymentEvent) Match {
	for i := range pending {
		invoice := &pending[i]
		total := invoice.TotalAmount.Decimal()

		if payment.Value.Sub(total).Abs().LessThanOrEqual(m.tolerance) {
			m.log.Debug().
				Str("tx_ref", payment.TxRef).
				Str("invoice_number", invoice.InvoiceNumber).
				Str("value", payment.Value.String()).
				Msg("Exact match")
			return Match{
				Matched:    true,
				Payment:    payment,
				Invoice:    invoice,
				MatchType:  enums.MatchTypeExact,
				Difference: decimal.Zero,
			}
		}

		if payment.Value.IsPositive() && payment.Value.LessThan(total) {
			pct, _ := payment.Value.Div(total).Mul(decimal.NewFromInt(100)).Float64()
			m.log.Debug().
				Str("tx_ref", payment.TxRef).
				Str("invoice_number", invoice.InvoiceNumber).
				Str("value", payment.Value.String()).
				Float64("paid_percentage", pct).
				Msg("Partial match")
			return Match{
				Matched:        true,
				Payment:        payment,
				Invoice:        invoice,
				MatchType:      enums.MatchTypePartial,
				Difference:     total.Sub(payment.Value),
				PaidPercentage: &pct,
			}
		}
	}

	m.log.Debug().
		Str("tx_ref", payment.TxRef).
		Str("value", payment.Value.String()).
		Msg("No matching invoice")
	return Match{
		Matched: false,
		Payment: payment,
		Reason:  "No matching invoice found",
	}
}
