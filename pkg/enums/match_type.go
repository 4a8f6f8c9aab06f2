package enums

// MatchType classifies how a payment covers an invoice.
type MatchType string

const (
	MatchTypeExact   MatchType = "exact"
	MatchTypePartial MatchType = "partial"
)

// IsValid reports whether the value matches a canonical match type.
func (t MatchType) IsValid() bool {
	return t == MatchTypeExact || t == MatchTypePartial
}
