package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceguard/pkg/enums"
	"invoiceguard/pkg/models"
)

func newTestSqliteStore(t *testing.T, path string) *SqliteStore {
	t.Helper()
	s, err := NewSqliteStore(path)
	require.NoError(t, err)
	return s
}

func TestSqliteStore_EmptyDatabase(t *testing.T) {
	s := newTestSqliteStore(t, filepath.Join(t.TempDir(), "invoices.db"))

	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.All())
	assert.Empty(t, s.Pending())
}

func TestSqliteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.db")
	ctx := context.Background()

	s := newTestSqliteStore(t, path)
	require.NoError(t, s.Load(ctx))

	rec := record("INV-1", "Acme GmbH", "119.00", enums.StatusPending)
	rec.VATAmount = models.AmountFromString("19.00")
	rec.LineItems = []models.LineItem{
		{Description: "widgets", Quantity: models.AmountFromString("2"), UnitPrice: models.AmountFromString("50"), Total: models.AmountFromString("100")},
	}
	rec.Flags = []string{"Round number: 100"}
	s.Append(rec)
	s.Append(record("INV-2", "Other AG", "200", enums.StatusApproved))
	require.NoError(t, s.Save(ctx))

	reloaded := newTestSqliteStore(t, path)
	require.NoError(t, reloaded.Load(ctx))

	all := reloaded.All()
	require.Len(t, all, 2)
	got := all[0]
	assert.Equal(t, "INV-1", got.InvoiceNumber)
	assert.Equal(t, "Acme GmbH", got.SupplierName)
	assert.Equal(t, "119", got.TotalAmount.Decimal().String())
	assert.Equal(t, "19", got.VATAmount.Decimal().String())
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, "widgets", got.LineItems[0].Description)
	assert.Equal(t, "100", got.LineItems[0].Total.Decimal().String())
	assert.Equal(t, []string{"Round number: 100"}, got.Flags)
	assert.Equal(t, enums.StatusPending, got.Status)
	assert.Equal(t,
		time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC),
		got.Timestamp.UTC())
}

func TestSqliteStore_UpdatesPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.db")
	ctx := context.Background()

	s := newTestSqliteStore(t, path)
	require.NoError(t, s.Load(ctx))
	s.Append(record("INV-1", "Acme GmbH", "100", enums.StatusPending))
	require.NoError(t, s.Save(ctx))

	// Update status and flags in a second session.
	s2 := newTestSqliteStore(t, path)
	require.NoError(t, s2.Load(ctx))
	assert.True(t, s2.SetStatus("INV-1", enums.StatusPaid))
	assert.True(t, s2.AddFlags("INV-1", "matched to 0x111"))
	require.NoError(t, s2.Save(ctx))

	s3 := newTestSqliteStore(t, path)
	require.NoError(t, s3.Load(ctx))
	all := s3.All()
	require.Len(t, all, 1)
	assert.Equal(t, enums.StatusPaid, all[0].Status)
	assert.Equal(t, []string{"matched to 0x111"}, all[0].Flags)
}

func TestSqliteStore_SaveIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.db")
	ctx := context.Background()

	s := newTestSqliteStore(t, path)
	require.NoError(t, s.Load(ctx))
	s.Append(record("INV-1", "Acme GmbH", "100", enums.StatusPending))
	require.NoError(t, s.Save(ctx))
	// A second save must not duplicate the row.
	require.NoError(t, s.Save(ctx))

	reloaded := newTestSqliteStore(t, path)
	require.NoError(t, reloaded.Load(ctx))
	assert.Len(t, reloaded.All(), 1)
}
