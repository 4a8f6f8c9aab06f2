package models

import (
	"github.com/shopspring/decimal"

	"invoiceguard/pkg/enums"
)

// Finding types emitted by the rule engine.
const (
	FindingExactDuplicate      = "exact_duplicate"
	FindingSuspiciousDuplicate = "suspicious_duplicate"
	FindingRoundNumber         = "round_number"
	FindingVelocity            = "velocity"
	FindingCalculationMismatch = "calculation_mismatch"
	FindingUnparseableAmount   = "unparseable_amount"
	FindingLookalikeSupplier   = "lookalike_supplier"
)

// Finding is the structured output of one fraud-detection rule. Findings are
// append-only: an analysis run adds to the list, never removes from it.
type Finding struct {
	Type     string         `json:"type"`
	Severity enums.Severity `json:"severity"`
	Reason   string         `json:"reason"`

	// Evidence references the matched historical record when applicable.
	Evidence *InvoiceRecord `json:"evidence,omitempty"`

	// Count carries the observed invoice count for velocity findings.
	Count int `json:"count,omitempty"`

	// Discrepancy carries the signed total-vs-expected difference for
	// calculation findings.
	Discrepancy *decimal.Decimal `json:"discrepancy,omitempty"`
}

// RiskScore is a derived 0-100 aggregate of a supplier's historical
// trustworthiness. It is recomputed fresh on every run and never persisted
// independently of the report that produced it.
type RiskScore struct {
	Score           int             `json:"score"`
	Level           enums.RiskLevel `json:"level"`
	TotalInvoices   int             `json:"total_invoices"`
	FlaggedInvoices int             `json:"flagged_invoices"`
	Reason          string          `json:"reason,omitempty"`
}
