package models

import (
	"strings"

	"invoiceguard/pkg/enums"
)

// LineItem is one row of an invoice.
type LineItem struct {
	Description string `json:"description"`
	Quantity    Amount `json:"quantity"`
	UnitPrice   Amount `json:"unit_price"`
	Total       Amount `json:"total"`
}

// InvoiceRecord is an invoice as held in the historical store. Records are
// immutable once stored except for Status and Flags, which the analysis
// workflow updates after a pass; records are never physically deleted so
// duplicate and velocity rules keep their full history.
type InvoiceRecord struct {
	SupplierName  string       `json:"supplier_name"`
	InvoiceNumber string       `json:"invoice_number"`
	TotalAmount   Amount       `json:"total_amount"`
	VATAmount     Amount       `json:"vat_amount"`
	Currency      string       `json:"currency,omitempty"` // optional 3-letter code
	LineItems     []LineItem   `json:"line_items,omitempty"`
	Timestamp     Timestamp    `json:"timestamp"`
	Status        enums.Status `json:"status"`
	Flags         []string     `json:"flags,omitempty"`
}

// SupplierKey returns the supplier name folded for case-insensitive
// comparison. All supplier matching in the rules goes through this.
func (r *InvoiceRecord) SupplierKey() string {
	return strings.ToLower(strings.TrimSpace(r.SupplierName))
}

// Flagged reports whether any prior analysis left a flag on this record.
func (r *InvoiceRecord) Flagged() bool {
	return len(r.Flags) > 0
}
