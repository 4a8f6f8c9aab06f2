package models

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountToken matches the first signed decimal token in a currency-formatted
// string, after separators have been stripped.
var amountToken = regexp.MustCompile(`-?\d+\.?\d*`)

// Amount is a monetary quantity as it arrived on an invoice. Upstream
// extraction sometimes delivers currency-formatted text ("EUR 1,234.56")
// instead of a number, so the raw form is preserved and normalization is
// deferred to the point of comparison.
type Amount struct {
	raw string
}

// NewAmount builds an Amount from an already-normalized decimal value.
func NewAmount(value decimal.Decimal) Amount {
	return Amount{raw: value.String()}
}

// AmountFromString builds an Amount from raw invoice text.
func AmountFromString(raw string) Amount {
	return Amount{raw: raw}
}

// Raw returns the amount exactly as it arrived.
func (a Amount) Raw() string {
	return a.raw
}

// IsEmpty reports whether no value was supplied at all.
func (a Amount) IsEmpty() bool {
	return strings.TrimSpace(a.raw) == ""
}

// Parse normalizes the amount: currency symbols, spaces and thousands
// separators are stripped and the first signed decimal token is parsed.
// The boolean is false when no token could be extracted.
func (a Amount) Parse() (decimal.Decimal, bool) {
	s := strings.NewReplacer(",", "", " ", "", " ", "").Replace(a.raw)
	token := amountToken.FindString(s)
	if token == "" {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

// Decimal returns the normalized value, or zero when the raw text is
// unparseable. The fail-open default keeps one malformed field from
// aborting a whole analysis; callers needing to distinguish a genuine
// zero from a degraded one must check Parse or Raw.
func (a Amount) Decimal() decimal.Decimal {
	value, _ := a.Parse()
	return value
}

// UnmarshalJSON accepts either a JSON number or a string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.raw = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	a.raw = n.String()
	return nil
}

// MarshalJSON emits a number when the amount is cleanly numeric, and the
// original string otherwise so no information is lost on round-trip.
func (a Amount) MarshalJSON() ([]byte, error) {
	if value, err := decimal.NewFromString(strings.TrimSpace(a.raw)); err == nil {
		return []byte(value.String()), nil
	}
	return json.Marshal(a.raw)
}

// String implements fmt.Stringer.
func (a Amount) String() string {
	return a.raw
}
