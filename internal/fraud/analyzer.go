package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoiceguard/internal/advisory"
	"invoiceguard/internal/logger"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// Report is the full outcome of one fraud-analysis pass over a candidate
// invoice. The report sink serializes it as-is.
type Report struct {
	RunID        string                `json:"run_id"`
	Timestamp    models.Timestamp      `json:"timestamp"`
	Invoice      *models.InvoiceRecord `json:"invoice"`
	Findings     []models.Finding      `json:"detected_issues"`
	SupplierRisk models.RiskScore      `json:"supplier_risk"`
	Advisory     *advisory.Result      `json:"ai_analysis"`
	Verdict      enums.Status          `json:"verdict"`
	TotalIssues  int                   `json:"total_issues"`
}

// Analyzer orchestrates one analysis pass: rule evaluation, risk scoring,
// the optional advisory call, and the resulting status verdict. The store
// itself is not touched here; the caller applies the verdict after the pass.
type Analyzer struct {
	engine  *Engine
	scorer  *Scorer
	advisor advisory.Advisor
	log     zerolog.Logger
}

// NewAnalyzer wires an analyzer. A nil advisor disables the advisory stage
// (the report carries the documented degraded payload).
func NewAnalyzer(engine *Engine, scorer *Scorer, advisor advisory.Advisor) (*Analyzer, error) {
	if engine == nil {
		return nil, fmt.Errorf("fraud engine required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("risk scorer required")
	}
	if advisor == nil {
		advisor = advisory.Noop{}
	}
	return &Analyzer{
		engine:  engine,
		scorer:  scorer,
		advisor: advisor,
		log:     logger.WithComponent("fraud-analyzer"),
	}, nil
}

// Analyze runs the full pass against the given historical snapshot. The
// snapshot is treated as immutable for the duration of the pass; the
// reference time drives every time-window rule.
func (a *Analyzer) Analyze(ctx context.Context, candidate *models.InvoiceRecord, history []models.InvoiceRecord, now time.Time) (*Report, error) {
	if candidate == nil {
		return nil, fmt.Errorf("candidate invoice required")
	}

	a.log.Info().
		Str("invoice_number", candidate.InvoiceNumber).
		Str("supplier", candidate.SupplierName).
		Int("history", len(history)).
		Msg("Starting fraud analysis")

	findings := a.engine.Evaluate(candidate, history, now)
	risk := a.scorer.Score(candidate.SupplierName, history)

	result, err := a.advisor.Advise(ctx, candidate, findings)
	if err != nil {
		a.log.Warn().
			Err(err).
			Str("invoice_number", candidate.InvoiceNumber).
			Msg("Advisory hook failed, using degraded payload")
		result = advisory.Degraded(err)
	}

	verdict := verdict(findings, result)

	a.log.Info().
		Str("invoice_number", candidate.InvoiceNumber).
		Int("findings", len(findings)).
		Int("risk_score", risk.Score).
		Str("risk_level", string(risk.Level)).
		Str("verdict", string(verdict)).
		Msg("Fraud analysis completed")

	return &Report{
		RunID:        uuid.NewString(),
		Timestamp:    models.NewTimestamp(now),
		Invoice:      candidate,
		Findings:     findings,
		SupplierRisk: risk,
		Advisory:     result,
		Verdict:      verdict,
		TotalIssues:  len(findings),
	}, nil
}

// verdict maps the pass outcome onto the invoice's next status: a reject
// recommendation blocks the invoice, any finding sends it to review, and a
// clean pass approves it. The advisory can only tighten the outcome, never
// clear findings.
func verdict(findings []models.Finding, result *advisory.Result) enums.Status {
	if result != nil && result.RecommendedAction == enums.ActionReject {
		return enums.StatusRejected
	}
	if len(findings) > 0 {
		return enums.StatusPendingReview
	}
	return enums.StatusApproved
}
