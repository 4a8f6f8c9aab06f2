// Package fraud implements the deterministic fraud-rule engine and the
// supplier risk scorer.
//
// The engine is a pure function of (candidate, history, reference time):
// running it twice against an unchanged history yields identical findings.
// The reference time is passed explicitly so the duplicate and velocity
// windows can be tested deterministically.
package fraud

import (
	"fmt"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoiceguard/internal/logger"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// Detection thresholds. These are fixed constants of the rule set, not
// per-call configuration.
const (
	duplicateWindowDays = 30
	velocityWindow      = 7 * 24 * time.Hour
	velocityThreshold   = 5

	// lookalikeMaxRatio is the Levenshtein-distance-to-length ratio below
	// which two unequal supplier names are considered lookalikes.
	lookalikeMaxRatio  = 0.3
	lookalikeMinLength = 4
)

var (
	// duplicateTolerance is the absolute amount delta below which two
	// invoices from the same supplier count as the same amount.
	duplicateTolerance = decimal.New(1, -2) // 0.01

	// calculationTolerance is the allowed gap between the declared total
	// and the sum of line items plus VAT, in the invoice's currency unit.
	calculationTolerance = decimal.NewFromInt(1)

	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1000)
)

// Engine runs the fraud detectors against a candidate invoice.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a rule engine.
func NewEngine() *Engine {
	return &Engine{
		log: logger.WithComponent("fraud-engine"),
	}
}

// Evaluate runs every detector in a fixed order and returns the accumulated
// findings. Detectors are independent and additive; the fixed order exists
// only to keep report output deterministic.
func (e *Engine) Evaluate(candidate *models.InvoiceRecord, history []models.InvoiceRecord, now time.Time) []models.Finding {
	findings := []models.Finding{}

	findings = append(findings, e.checkAmountParsing(candidate)...)
	findings = append(findings, e.detectDuplicates(candidate, history, now)...)
	if f := e.detectRoundNumber(candidate); f != nil {
		findings = append(findings, *f)
	}
	if f := e.detectVelocity(candidate, history, now); f != nil {
		findings = append(findings, *f)
	}
	if f := e.detectCalculationMismatch(candidate); f != nil {
		findings = append(findings, *f)
	}
	findings = append(findings, e.detectLookalikeSuppliers(candidate, history)...)

	e.log.Debug().
		Str("invoice_number", candidate.InvoiceNumber).
		Str("supplier", candidate.SupplierName).
		Int("findings", len(findings)).
		Msg("Rule evaluation completed")

	return findings
}

// checkAmountParsing records parse degradation: a non-empty amount field
// that does not normalize is reported instead of silently treated as zero.
func (e *Engine) checkAmountParsing(candidate *models.InvoiceRecord) []models.Finding {
	var findings []models.Finding

	check := func(field string, amount models.Amount) {
		if amount.IsEmpty() {
			return
		}
		if _, ok := amount.Parse(); !ok {
			findings = append(findings, models.Finding{
				Type:     models.FindingUnparseableAmount,
				Severity: enums.SeverityLow,
				Reason:   fmt.Sprintf("Unparseable %s %q treated as 0", field, amount.Raw()),
			})
		}
	}

	check("total_amount", candidate.TotalAmount)
	check("vat_amount", candidate.VATAmount)
	for i, item := range candidate.LineItems {
		if !item.Total.IsEmpty() {
			if _, ok := item.Total.Parse(); !ok {
				findings = append(findings, models.Finding{
					Type:     models.FindingUnparseableAmount,
					Severity: enums.SeverityLow,
					Reason:   fmt.Sprintf("Unparseable line item %d total %q treated as 0", i+1, item.Total.Raw()),
				})
			}
		}
	}

	return findings
}

// detectDuplicates raises a critical finding for every historical record
// with the same invoice number, and a high finding for every record from
// the same supplier with the same amount inside the 30-day window. One
// candidate may raise several findings; matches are not deduplicated.
func (e *Engine) detectDuplicates(candidate *models.InvoiceRecord, history []models.InvoiceRecord, now time.Time) []models.Finding {
	var findings []models.Finding

	amount := candidate.TotalAmount.Decimal()
	supplierKey := candidate.SupplierKey()

	for i := range history {
		existing := &history[i]

		if candidate.InvoiceNumber != "" && existing.InvoiceNumber == candidate.InvoiceNumber {
			findings = append(findings, models.Finding{
				Type:     models.FindingExactDuplicate,
				Severity: enums.SeverityCritical,
				Reason:   fmt.Sprintf("Duplicate invoice number: %s", candidate.InvoiceNumber),
				Evidence: existing,
			})
		}

		if existing.SupplierKey() != supplierKey {
			continue
		}
		delta := amount.Sub(existing.TotalAmount.Decimal()).Abs()
		if delta.GreaterThanOrEqual(duplicateTolerance) {
			continue
		}
		if existing.Timestamp.IsZero() {
			continue
		}
		days := now.Sub(existing.Timestamp.Time).Hours() / 24
		if days < 0 {
			days = -days
		}
		if days <= duplicateWindowDays {
			findings = append(findings, models.Finding{
				Type:     models.FindingSuspiciousDuplicate,
				Severity: enums.SeverityHigh,
				Reason:   "Same supplier and amount within 30 days",
				Evidence: existing,
			})
		}
	}

	return findings
}

// detectRoundNumber flags suspiciously round totals. The two ranges are
// mutually exclusive and amounts of 100 or less never flag.
func (e *Engine) detectRoundNumber(candidate *models.InvoiceRecord) *models.Finding {
	amount := candidate.TotalAmount.Decimal()

	if amount.GreaterThan(thousand) && amount.Mod(thousand).IsZero() {
		return &models.Finding{
			Type:     models.FindingRoundNumber,
			Severity: enums.SeverityMedium,
			Reason:   fmt.Sprintf("Suspiciously round amount: %s (possible fabricated invoice)", amount),
		}
	}

	if amount.GreaterThan(hundred) && amount.LessThan(thousand) && amount.Mod(hundred).IsZero() {
		return &models.Finding{
			Type:     models.FindingRoundNumber,
			Severity: enums.SeverityLow,
			Reason:   fmt.Sprintf("Round number: %s (common but worth reviewing)", amount),
		}
	}

	return nil
}

// detectVelocity counts historical invoices from the candidate's supplier
// inside the trailing 7-day window. The threshold is a fixed constant.
func (e *Engine) detectVelocity(candidate *models.InvoiceRecord, history []models.InvoiceRecord, now time.Time) *models.Finding {
	supplierKey := candidate.SupplierKey()

	count := 0
	for i := range history {
		existing := &history[i]
		if existing.SupplierKey() != supplierKey || existing.Timestamp.IsZero() {
			continue
		}
		age := now.Sub(existing.Timestamp.Time)
		if age >= 0 && age <= velocityWindow {
			count++
		}
	}

	if count < velocityThreshold {
		return nil
	}

	return &models.Finding{
		Type:     models.FindingVelocity,
		Severity: enums.SeverityHigh,
		Reason:   fmt.Sprintf("%d invoices from %s in 7 days (velocity attack pattern)", count, supplierKey),
		Count:    count,
	}
}

// detectCalculationMismatch verifies that line items plus VAT add up to the
// declared total. Invoices without line items emit no finding.
func (e *Engine) detectCalculationMismatch(candidate *models.InvoiceRecord) *models.Finding {
	if len(candidate.LineItems) == 0 {
		return nil
	}

	subtotal := decimal.Zero
	for _, item := range candidate.LineItems {
		subtotal = subtotal.Add(item.Total.Decimal())
	}
	expected := subtotal.Add(candidate.VATAmount.Decimal())
	total := candidate.TotalAmount.Decimal()

	discrepancy := total.Sub(expected)
	if discrepancy.Abs().LessThanOrEqual(calculationTolerance) {
		return nil
	}

	return &models.Finding{
		Type:        models.FindingCalculationMismatch,
		Severity:    enums.SeverityHigh,
		Reason:      fmt.Sprintf("Total mismatch: expected %s, got %s", expected, total),
		Discrepancy: &discrepancy,
	}
}

// detectLookalikeSuppliers flags historical supplier names that are not
// equal to the candidate's but sit within a small edit distance, a pattern
// used to slip near-duplicates past exact-match rules. One finding per
// distinct lookalike name.
func (e *Engine) detectLookalikeSuppliers(candidate *models.InvoiceRecord, history []models.InvoiceRecord) []models.Finding {
	supplierKey := candidate.SupplierKey()
	if len(supplierKey) < lookalikeMinLength {
		return nil
	}

	var findings []models.Finding
	seen := map[string]bool{}

	for i := range history {
		existing := &history[i]
		existingKey := existing.SupplierKey()
		if existingKey == supplierKey || len(existingKey) < lookalikeMinLength || seen[existingKey] {
			continue
		}
		dist := levenshtein.ComputeDistance(supplierKey, existingKey)
		maxLen := len(supplierKey)
		if len(existingKey) > maxLen {
			maxLen = len(existingKey)
		}
		if float64(dist)/float64(maxLen) < lookalikeMaxRatio {
			seen[existingKey] = true
			findings = append(findings, models.Finding{
				Type:     models.FindingLookalikeSupplier,
				Severity: enums.SeverityLow,
				Reason:   fmt.Sprintf("Supplier %q resembles known supplier %q", candidate.SupplierName, existing.SupplierName),
				Evidence: existing,
			})
		}
	}

	return findings
}
