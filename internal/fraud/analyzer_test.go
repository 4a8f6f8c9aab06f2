package fraud

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceguard/internal/advisory"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// stubAdvisor returns a fixed result or error.
type stubAdvisor struct {
	result *advisory.Result
	err    error
}

func (s *stubAdvisor) Advise(context.Context, *models.InvoiceRecord, []models.Finding) (*advisory.Result, error) {
	return s.result, s.err
}

func newTestAnalyzer(t *testing.T, advisor advisory.Advisor) *Analyzer {
	t.Helper()
	analyzer, err := NewAnalyzer(NewEngine(), NewScorer(), advisor)
	require.NoError(t, err)
	return analyzer
}

func TestAnalyzer_CleanInvoiceApproved(t *testing.T) {
	analyzer := newTestAnalyzer(t, &stubAdvisor{result: &advisory.Result{
		FraudProbability:  enums.FraudProbabilityLow,
		RecommendedAction: enums.ActionApprove,
	}})

	candidate := invoice("Acme GmbH", "INV-1", "512.34", refTime)
	report, err := analyzer.Analyze(context.Background(), &candidate, nil, refTime)

	require.NoError(t, err)
	assert.Equal(t, enums.StatusApproved, report.Verdict)
	assert.Empty(t, report.Findings)
	assert.Zero(t, report.TotalIssues)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 50, report.SupplierRisk.Score)
}

func TestAnalyzer_FindingsForceReview(t *testing.T) {
	// An approve recommendation cannot clear findings.
	analyzer := newTestAnalyzer(t, &stubAdvisor{result: &advisory.Result{
		FraudProbability:  enums.FraudProbabilityLow,
		RecommendedAction: enums.ActionApprove,
	}})

	history := []models.InvoiceRecord{
		invoice("Acme GmbH", "INV-1", "999", refTime.AddDate(0, -6, 0)),
	}
	candidate := invoice("Acme GmbH", "INV-1", "512.34", refTime)
	report, err := analyzer.Analyze(context.Background(), &candidate, history, refTime)

	require.NoError(t, err)
	assert.Equal(t, enums.StatusPendingReview, report.Verdict)
	require.NotEmpty(t, report.Findings)
	assert.Equal(t, len(report.Findings), report.TotalIssues)
}

func TestAnalyzer_RejectRecommendationWins(t *testing.T) {
	analyzer := newTestAnalyzer(t, &stubAdvisor{result: &advisory.Result{
		FraudProbability:  enums.FraudProbabilityHigh,
		RecommendedAction: enums.ActionReject,
	}})

	candidate := invoice("Acme GmbH", "INV-1", "512.34", refTime)
	report, err := analyzer.Analyze(context.Background(), &candidate, nil, refTime)

	require.NoError(t, err)
	assert.Equal(t, enums.StatusRejected, report.Verdict)
}

func TestAnalyzer_AdvisoryFailureDegrades(t *testing.T) {
	analyzer := newTestAnalyzer(t, &stubAdvisor{err: errors.New("rate limited")})

	candidate := invoice("Acme GmbH", "INV-1", "512.34", refTime)
	report, err := analyzer.Analyze(context.Background(), &candidate, nil, refTime)

	require.NoError(t, err)
	require.NotNil(t, report.Advisory)
	assert.Equal(t, enums.FraudProbabilityUnknown, report.Advisory.FraudProbability)
	assert.Equal(t, enums.ActionReview, report.Advisory.RecommendedAction)
	assert.Equal(t, []string{}, report.Advisory.AdditionalIndicators)
	assert.Contains(t, report.Advisory.Explanation, "rate limited")

	// The degraded payload is advisory only; a clean invoice stays approved.
	assert.Equal(t, enums.StatusApproved, report.Verdict)
}

func TestAnalyzer_NilAdvisorUsesNoop(t *testing.T) {
	analyzer, err := NewAnalyzer(NewEngine(), NewScorer(), nil)
	require.NoError(t, err)

	candidate := invoice("Acme GmbH", "INV-1", "512.34", refTime)
	report, err := analyzer.Analyze(context.Background(), &candidate, nil, refTime)

	require.NoError(t, err)
	require.NotNil(t, report.Advisory)
	assert.Equal(t, enums.FraudProbabilityUnknown, report.Advisory.FraudProbability)
	assert.Contains(t, report.Advisory.Explanation, "not configured")
}

func TestAnalyzer_NilCandidateRejected(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	_, err := analyzer.Analyze(context.Background(), nil, nil, refTime)
	assert.Error(t, err)
}

func TestNewAnalyzer_RequiresEngineAndScorer(t *testing.T) {
	_, err := NewAnalyzer(nil, NewScorer(), nil)
	assert.Error(t, err)

	_, err = NewAnalyzer(NewEngine(), nil, nil)
	assert.Error(t, err)
}
