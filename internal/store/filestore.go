package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"invoiceguard/internal/logger"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// FileStore persists the collection as a single ordered JSON document.
type FileStore struct {
	path    string
	records []models.InvoiceRecord
	log     zerolog.Logger
}

// NewFileStore creates a store over the given document path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		log:  logger.WithComponent("file-store"),
	}
}

// Load implements Store. A missing document yields an empty store.
func (s *FileStore) Load(_ context.Context) error {
	const op = "Load"

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Info().Str("path", s.path).Msg("No invoice database found, starting empty")
			s.records = nil
			return nil
		}
		return fmt.Errorf("%s: failed to read invoice database: %w", op, err)
	}

	var records []models.InvoiceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%s: failed to parse invoice database: %w", op, err)
	}

	s.records = records
	s.log.Info().Str("path", s.path).Int("invoices", len(records)).Msg("Invoice database loaded")
	return nil
}

// All implements Store.
func (s *FileStore) All() []models.InvoiceRecord {
	return s.records
}

// Pending implements Store.
func (s *FileStore) Pending() []models.InvoiceRecord {
	return pending(s.records)
}

// BySupplier implements Store.
func (s *FileStore) BySupplier(supplierName string) []models.InvoiceRecord {
	return bySupplier(s.records, supplierName)
}

// Append implements Store.
func (s *FileStore) Append(record models.InvoiceRecord) {
	s.records = append(s.records, record)
}

// SetStatus implements Store.
func (s *FileStore) SetStatus(invoiceNumber string, status enums.Status) bool {
	return setStatus(s.records, invoiceNumber, status)
}

// AddFlags implements Store.
func (s *FileStore) AddFlags(invoiceNumber string, flags ...string) bool {
	return addFlags(s.records, invoiceNumber, flags)
}

// Save implements Store. The document is written whole via a temporary
// file so a crash cannot leave a truncated database behind.
func (s *FileStore) Save(_ context.Context) error {
	const op = "Save"

	records := s.records
	if records == nil {
		records = []models.InvoiceRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: failed to marshal invoice database: %w", op, err)
	}

	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%s: failed to create database directory: %w", op, err)
		}
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%s: failed to write invoice database: %w", op, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%s: failed to replace invoice database: %w", op, err)
	}

	s.log.Info().Str("path", s.path).Int("invoices", len(records)).Msg("Invoice database saved")
	return nil
}

// Shared snapshot helpers used by both backends.

func pending(records []models.InvoiceRecord) []models.InvoiceRecord {
	var out []models.InvoiceRecord
	for _, rec := range records {
		if rec.Status == enums.StatusPending {
			out = append(out, rec)
		}
	}
	return out
}

func bySupplier(records []models.InvoiceRecord, supplierName string) []models.InvoiceRecord {
	key := strings.ToLower(strings.TrimSpace(supplierName))
	var out []models.InvoiceRecord
	for _, rec := range records {
		if rec.SupplierKey() == key {
			out = append(out, rec)
		}
	}
	return out
}

func setStatus(records []models.InvoiceRecord, invoiceNumber string, status enums.Status) bool {
	found := false
	for i := range records {
		if records[i].InvoiceNumber == invoiceNumber {
			records[i].Status = status
			found = true
		}
	}
	return found
}

func addFlags(records []models.InvoiceRecord, invoiceNumber string, flags []string) bool {
	found := false
	for i := range records {
		if records[i].InvoiceNumber == invoiceNumber {
			records[i].Flags = append(records[i].Flags, flags...)
			found = true
		}
	}
	return found
}
