package fraud

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"invoiceguard/internal/logger"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// Risk factor thresholds.
const (
	flaggedRatioThreshold  = 0.3
	varianceRatioThreshold = 0.5
	frequencyMinInvoices   = 10
	frequencyMinGapDays    = 3.0
)

// neutralScore is returned when nothing is known about a supplier: new
// suppliers are neither trusted nor penalized by default.
const neutralScore = 50

// Scorer computes supplier risk scores from historical invoices.
type Scorer struct {
	log zerolog.Logger
}

// NewScorer creates a risk scorer.
func NewScorer() *Scorer {
	return &Scorer{
		log: logger.WithComponent("risk-scorer"),
	}
}

// Score evaluates three binary risk factors against the supplier's full
// historical record set and maps the triggered ratio onto 0-100. A supplier
// with no history scores a fixed 50/medium.
func (s *Scorer) Score(supplierName string, history []models.InvoiceRecord) models.RiskScore {
	supplierKey := strings.ToLower(strings.TrimSpace(supplierName))

	var records []models.InvoiceRecord
	for _, rec := range history {
		if rec.SupplierKey() == supplierKey {
			records = append(records, rec)
		}
	}

	if len(records) == 0 {
		return models.RiskScore{
			Score:  neutralScore,
			Level:  enums.RiskLevelMedium,
			Reason: "no historical data",
		}
	}

	triggered := 0
	applicable := 0

	// Factor 1: share of historical invoices carrying at least one flag.
	flagged := 0
	for i := range records {
		if records[i].Flagged() {
			flagged++
		}
	}
	applicable++
	if float64(flagged) > float64(len(records))*flaggedRatioThreshold {
		triggered++
	}

	// Factor 2: amount dispersion. Needs at least two invoices; skipped
	// from the denominator otherwise.
	amounts := make([]float64, 0, len(records))
	for i := range records {
		amounts = append(amounts, records[i].TotalAmount.Decimal().InexactFloat64())
	}
	if len(amounts) > 1 {
		applicable++
		mean, stddev := meanStddev(amounts)
		if stddev > mean*varianceRatioThreshold {
			triggered++
		}
	}

	// Factor 3: submission frequency. Triggers only for suppliers with a
	// deep history arriving in rapid succession.
	applicable++
	if len(records) > frequencyMinInvoices {
		if gap, ok := meanTimestampGapDays(records); ok && gap < frequencyMinGapDays {
			triggered++
		}
	}

	score := neutralScore
	if applicable > 0 {
		score = int(math.Round(float64(triggered) / float64(applicable) * 100))
	}

	level := enums.RiskLevelHigh
	switch {
	case score < 30:
		level = enums.RiskLevelLow
	case score < 60:
		level = enums.RiskLevelMedium
	}

	s.log.Debug().
		Str("supplier", supplierKey).
		Int("invoices", len(records)).
		Int("flagged", flagged).
		Int("triggered_factors", triggered).
		Int("applicable_factors", applicable).
		Int("score", score).
		Str("level", string(level)).
		Msg("Supplier risk scored")

	return models.RiskScore{
		Score:           score,
		Level:           level,
		TotalInvoices:   len(records),
		FlaggedInvoices: flagged,
	}
}

// meanStddev returns the mean and sample standard deviation.
func meanStddev(values []float64) (float64, float64) {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)-1))
}

// meanTimestampGapDays returns the mean gap in days between consecutive
// time-sorted record timestamps. Records with zero timestamps are skipped;
// ok is false when fewer than two usable timestamps remain.
func meanTimestampGapDays(records []models.InvoiceRecord) (float64, bool) {
	var times []time.Time
	for i := range records {
		if !records[i].Timestamp.IsZero() {
			times = append(times, records[i].Timestamp.Time)
		}
	}
	if len(times) < 2 {
		return 0, false
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	total := 0.0
	for i := 1; i < len(times); i++ {
		total += times[i].Sub(times[i-1]).Hours() / 24
	}
	return total / float64(len(times)-1), true
}
