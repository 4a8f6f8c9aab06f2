package fraud

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

var refTime = time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

func invoice(supplier, number, amount string, ts time.Time) models.InvoiceRecord {
	return models.InvoiceRecord{
		SupplierName:  supplier,
		InvoiceNumber: number,
		TotalAmount:   models.AmountFromString(amount),
		Timestamp:     models.NewTimestamp(ts),
		Status:        enums.StatusPending,
	}
}

func findingsOfType(findings []models.Finding, typ string) []models.Finding {
	var out []models.Finding
	for _, f := range findings {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func TestEngine_ExactDuplicate_IgnoresAmount(t *testing.T) {
	engine := NewEngine()
	history := []models.InvoiceRecord{
		invoice("Acme GmbH", "INV-1", "999", refTime.AddDate(0, -6, 0)),
	}
	candidate := invoice("Acme GmbH", "INV-1", "100", refTime)

	findings := engine.Evaluate(&candidate, history, refTime)

	dups := findingsOfType(findings, models.FindingExactDuplicate)
	require.Len(t, dups, 1)
	assert.Equal(t, enums.SeverityCritical, dups[0].Severity)
	require.NotNil(t, dups[0].Evidence)
	assert.Equal(t, "INV-1", dups[0].Evidence.InvoiceNumber)
}

func TestEngine_SuspiciousDuplicate_WindowAndAmount(t *testing.T) {
	engine := NewEngine()
	history := []models.InvoiceRecord{
		invoice("Acme GmbH", "INV-10", "500.00", refTime.AddDate(0, 0, -10)), // inside window
		invoice("ACME GMBH", "INV-11", "500.005", refTime.AddDate(0, 0, -29)), // inside window, delta < 0.01
		invoice("Acme GmbH", "INV-12", "500.00", refTime.AddDate(0, 0, -45)), // outside window
		invoice("Acme GmbH", "INV-13", "510.00", refTime.AddDate(0, 0, -5)),  // amount differs
	}
	candidate := invoice("Acme GmbH", "INV-99", "500.00", refTime)

	findings := engine.Evaluate(&candidate, history, refTime)

	// One finding per matching historical record, no deduplication.
	sus := findingsOfType(findings, models.FindingSuspiciousDuplicate)
	require.Len(t, sus, 2)
	for _, f := range sus {
		assert.Equal(t, enums.SeverityHigh, f.Severity)
	}
}

func TestEngine_RoundNumber(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		amount   string
		severity enums.Severity
		fires    bool
	}{
		{"2000", enums.SeverityMedium, true},
		{"250", "", false}, // 250 is not a multiple of 100
		{"300", enums.SeverityLow, true},
		{"1234", "", false},
		{"100", "", false}, // boundary excluded
		{"1000", "", false},
		{"50", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			candidate := invoice("Acme GmbH", "INV-1", tt.amount, refTime)
			findings := engine.Evaluate(&candidate, nil, refTime)
			round := findingsOfType(findings, models.FindingRoundNumber)
			if tt.fires {
				require.Len(t, round, 1)
				assert.Equal(t, tt.severity, round[0].Severity)
			} else {
				assert.Empty(t, round)
			}
		})
	}
}

func TestEngine_Velocity_Boundary(t *testing.T) {
	engine := NewEngine()

	buildHistory := func(n int) []models.InvoiceRecord {
		var history []models.InvoiceRecord
		for i := 0; i < n; i++ {
			// Distinct amounts and numbers so duplicate rules stay quiet.
			history = append(history, invoice("Rapid Ltd", fmt.Sprintf("R-%d", i),
				fmt.Sprintf("111.%d", i), refTime.AddDate(0, 0, -(i%7))))
		}
		return history
	}

	candidate := invoice("Rapid Ltd", "R-NEW", "999.99", refTime)

	findings := engine.Evaluate(&candidate, buildHistory(5), refTime)
	vel := findingsOfType(findings, models.FindingVelocity)
	require.Len(t, vel, 1)
	assert.Equal(t, enums.SeverityHigh, vel[0].Severity)
	assert.Equal(t, 5, vel[0].Count)

	findings = engine.Evaluate(&candidate, buildHistory(4), refTime)
	assert.Empty(t, findingsOfType(findings, models.FindingVelocity))
}

func TestEngine_CalculationMismatch(t *testing.T) {
	engine := NewEngine()

	build := func(total string) models.InvoiceRecord {
		rec := invoice("Acme GmbH", "INV-7", total, refTime)
		rec.VATAmount = models.AmountFromString("20")
		rec.LineItems = []models.LineItem{
			{Description: "widgets", Total: models.AmountFromString("50")},
			{Description: "gadgets", Total: models.AmountFromString("30")},
		}
		return rec
	}

	// Within the 1.0 tolerance: expected 100, declared 100.5.
	candidate := build("100.5")
	findings := engine.Evaluate(&candidate, nil, refTime)
	assert.Empty(t, findingsOfType(findings, models.FindingCalculationMismatch))

	// Outside tolerance: difference = total - expected = 2.
	candidate = build("102")
	findings = engine.Evaluate(&candidate, nil, refTime)
	calc := findingsOfType(findings, models.FindingCalculationMismatch)
	require.Len(t, calc, 1)
	assert.Equal(t, enums.SeverityHigh, calc[0].Severity)
	require.NotNil(t, calc[0].Discrepancy)
	assert.Equal(t, "2", calc[0].Discrepancy.String())
}

func TestEngine_CalculationMismatch_NoLineItems(t *testing.T) {
	engine := NewEngine()
	candidate := invoice("Acme GmbH", "INV-8", "5555", refTime)
	candidate.VATAmount = models.AmountFromString("20")

	findings := engine.Evaluate(&candidate, nil, refTime)
	assert.Empty(t, findingsOfType(findings, models.FindingCalculationMismatch))
}

func TestEngine_UnparseableAmountRecorded(t *testing.T) {
	engine := NewEngine()
	candidate := invoice("Acme GmbH", "INV-9", "to be confirmed", refTime)

	findings := engine.Evaluate(&candidate, nil, refTime)
	degraded := findingsOfType(findings, models.FindingUnparseableAmount)
	require.Len(t, degraded, 1)
	assert.Equal(t, enums.SeverityLow, degraded[0].Severity)
	assert.Contains(t, degraded[0].Reason, "to be confirmed")
}

func TestEngine_LookalikeSupplier(t *testing.T) {
	engine := NewEngine()
	history := []models.InvoiceRecord{
		invoice("Acme GmbH", "L-1", "10", refTime.AddDate(-1, 0, 0)),
		invoice("Acrne GmbH", "L-2", "20", refTime.AddDate(-1, 0, 0)),
		invoice("Completely Different AG", "L-3", "30", refTime.AddDate(-1, 0, 0)),
	}
	candidate := invoice("Acme GmbH", "L-NEW", "40", refTime)

	findings := engine.Evaluate(&candidate, history, refTime)
	lookalikes := findingsOfType(findings, models.FindingLookalikeSupplier)
	require.Len(t, lookalikes, 1)
	assert.Contains(t, lookalikes[0].Reason, "Acrne GmbH")
}

func TestEngine_Idempotent(t *testing.T) {
	engine := NewEngine()
	history := []models.InvoiceRecord{
		invoice("Acme GmbH", "INV-1", "2000", refTime.AddDate(0, 0, -3)),
	}
	candidate := invoice("Acme GmbH", "INV-1", "2000", refTime)

	first := engine.Evaluate(&candidate, history, refTime)
	second := engine.Evaluate(&candidate, history, refTime)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}
