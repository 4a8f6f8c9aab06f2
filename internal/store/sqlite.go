package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"invoiceguard/internal/logger"
	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

// invoiceRow is the sqlite representation of an InvoiceRecord. Flexible
// fields (amounts, line items, flags) are stored as text so nothing the
// extraction collaborator delivered is lost.
type invoiceRow struct {
	ID            uint   `gorm:"primaryKey"`
	SupplierName  string `gorm:"index"`
	InvoiceNumber string `gorm:"index"`
	TotalAmount   string
	VATAmount     string
	Currency      string
	LineItems     string
	Timestamp     string
	Status        string
	Flags         string
	CreatedAt     time.Time
}

func (invoiceRow) TableName() string { return "invoices" }

// SqliteStore persists the collection in a sqlite database. Rows are only
// inserted or updated, never deleted.
type SqliteStore struct {
	db      *gorm.DB
	records []models.InvoiceRecord
	rowIDs  []uint // parallel to records; 0 marks a not-yet-persisted record
	dirty   map[int]bool
	log     zerolog.Logger
}

// NewSqliteStore opens (and if necessary migrates) the database at path.
func NewSqliteStore(path string) (*SqliteStore, error) {
	const op = "NewSqliteStore"

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open sqlite database: %w", op, err)
	}
	if err := db.AutoMigrate(&invoiceRow{}); err != nil {
		return nil, fmt.Errorf("%s: failed to migrate invoice schema: %w", op, err)
	}

	return &SqliteStore{
		db:    db,
		dirty: map[int]bool{},
		log:   logger.WithComponent("sqlite-store"),
	}, nil
}

// Load implements Store.
func (s *SqliteStore) Load(ctx context.Context) error {
	const op = "Load"

	var rows []invoiceRow
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return fmt.Errorf("%s: failed to load invoices: %w", op, err)
	}

	s.records = make([]models.InvoiceRecord, 0, len(rows))
	s.rowIDs = make([]uint, 0, len(rows))
	s.dirty = map[int]bool{}
	for _, row := range rows {
		s.records = append(s.records, fromRow(row))
		s.rowIDs = append(s.rowIDs, row.ID)
	}

	s.log.Info().Int("invoices", len(s.records)).Msg("Invoice database loaded")
	return nil
}

// All implements Store.
func (s *SqliteStore) All() []models.InvoiceRecord {
	return s.records
}

// Pending implements Store.
func (s *SqliteStore) Pending() []models.InvoiceRecord {
	return pending(s.records)
}

// BySupplier implements Store.
func (s *SqliteStore) BySupplier(supplierName string) []models.InvoiceRecord {
	return bySupplier(s.records, supplierName)
}

// Append implements Store.
func (s *SqliteStore) Append(record models.InvoiceRecord) {
	s.records = append(s.records, record)
	s.rowIDs = append(s.rowIDs, 0)
}

// SetStatus implements Store.
func (s *SqliteStore) SetStatus(invoiceNumber string, status enums.Status) bool {
	found := setStatus(s.records, invoiceNumber, status)
	if found {
		s.markDirty(invoiceNumber)
	}
	return found
}

// AddFlags implements Store.
func (s *SqliteStore) AddFlags(invoiceNumber string, flags ...string) bool {
	found := addFlags(s.records, invoiceNumber, flags)
	if found {
		s.markDirty(invoiceNumber)
	}
	return found
}

func (s *SqliteStore) markDirty(invoiceNumber string) {
	for i := range s.records {
		if s.records[i].InvoiceNumber == invoiceNumber {
			s.dirty[i] = true
		}
	}
}

// Save implements Store: new records are inserted, modified ones updated.
func (s *SqliteStore) Save(ctx context.Context) error {
	const op = "Save"

	inserted, updated := 0, 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range s.records {
			row := toRow(&s.records[i])
			switch {
			case s.rowIDs[i] == 0:
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				s.rowIDs[i] = row.ID
				inserted++
			case s.dirty[i]:
				row.ID = s.rowIDs[i]
				if err := tx.Model(&invoiceRow{}).Where("id = ?", row.ID).
					Updates(map[string]any{"status": row.Status, "flags": row.Flags}).Error; err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: failed to save invoices: %w", op, err)
	}

	s.dirty = map[int]bool{}
	s.log.Info().Int("inserted", inserted).Int("updated", updated).Msg("Invoice database saved")
	return nil
}

func toRow(rec *models.InvoiceRecord) invoiceRow {
	lineItems, _ := json.Marshal(rec.LineItems)
	flags, _ := json.Marshal(rec.Flags)

	timestamp := ""
	if !rec.Timestamp.IsZero() {
		timestamp = rec.Timestamp.Format(time.RFC3339)
	}

	return invoiceRow{
		SupplierName:  rec.SupplierName,
		InvoiceNumber: rec.InvoiceNumber,
		TotalAmount:   rec.TotalAmount.Raw(),
		VATAmount:     rec.VATAmount.Raw(),
		Currency:      rec.Currency,
		LineItems:     string(lineItems),
		Timestamp:     timestamp,
		Status:        string(rec.Status),
		Flags:         string(flags),
	}
}

func fromRow(row invoiceRow) models.InvoiceRecord {
	var lineItems []models.LineItem
	if row.LineItems != "" {
		_ = json.Unmarshal([]byte(row.LineItems), &lineItems)
	}
	var flags []string
	if row.Flags != "" {
		_ = json.Unmarshal([]byte(row.Flags), &flags)
	}

	return models.InvoiceRecord{
		SupplierName:  row.SupplierName,
		InvoiceNumber: row.InvoiceNumber,
		TotalAmount:   models.AmountFromString(row.TotalAmount),
		VATAmount:     models.AmountFromString(row.VATAmount),
		Currency:      row.Currency,
		LineItems:     lineItems,
		Timestamp:     models.ParseTimestamp(row.Timestamp),
		Status:        enums.Status(row.Status),
		Flags:         flags,
	}
}
