// Package store holds the historical invoice collection behind an explicit
// handle. The in-memory snapshot is treated as immutable for the duration
// of one analysis pass: detectors only read it, and the orchestrating
// caller appends records and updates status/flags after the pass, bracketed
// by Load and Save.
package store

import (
	"context"

	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// Store is the explicit handle to the historical invoice collection.
// Records are never physically deleted; status and flag updates preserve
// the soft history the duplicate and velocity rules depend on.
type Store interface {
	// Load reads the persisted collection. A missing document is an
	// empty store, not an error.
	Load(ctx context.Context) error

	// All returns the full ordered collection.
	All() []models.InvoiceRecord

	// Pending returns records awaiting payment, preserving store order.
	Pending() []models.InvoiceRecord

	// BySupplier returns records whose supplier name matches
	// case-insensitively, preserving store order.
	BySupplier(supplierName string) []models.InvoiceRecord

	// Append adds a new record to the end of the collection.
	Append(record models.InvoiceRecord)

	// SetStatus updates the status of every record with the given
	// invoice number and reports whether any record matched.
	SetStatus(invoiceNumber string, status enums.Status) bool

	// AddFlags appends flags to every record with the given invoice
	// number and reports whether any record matched.
	AddFlags(invoiceNumber string, flags ...string) bool

	// Save persists the collection.
	Save(ctx context.Context) error
}
