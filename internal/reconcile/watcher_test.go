package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceguard/pkg/models"
)

func TestStaticWatcher_FillsWallet(t *testing.T) {
	watcher := StaticWatcher{Events: []models.PaymentEvent{
		payment("0xaaa", "100"),
		{TxRef: "0xbbb", From: "0xsender", Value: decimal.RequireFromString("50")},
	}}

	events := watcher.Payments(context.Background(), "0xCompanyWallet", "latest")

	require.Len(t, events, 2)
	assert.Equal(t, "0xwallet", events[0].To)
	assert.Equal(t, "0xCompanyWallet", events[1].To)
}

func TestFileWatcher_MissingFile(t *testing.T) {
	watcher := NewFileWatcher(filepath.Join(t.TempDir(), "nope.json"))

	events := watcher.Payments(context.Background(), "0xwallet", "latest")
	assert.Empty(t, events)
}

func TestFileWatcher_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	watcher := NewFileWatcher(path)
	events := watcher.Payments(context.Background(), "0xwallet", "latest")
	assert.Empty(t, events)
}

func TestFileWatcher_FiltersByWallet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	doc := `[
		{"tx_ref": "0x111", "from": "0xsender", "to": "0xWALLET", "value": "100", "observed_at": "2024-02-10T12:00:00Z", "block_ref": 1},
		{"tx_ref": "0x222", "from": "0xsender", "to": "0xother", "value": "200", "observed_at": "2024-02-10T12:05:00Z", "block_ref": 2},
		{"tx_ref": "0x333", "from": "0xsender", "to": "", "value": "300", "observed_at": "not a time", "block_ref": 3}
	]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	watcher := NewFileWatcher(path)
	events := watcher.Payments(context.Background(), "0xwallet", "latest")

	// Wallet comparison is case-insensitive; events without a recipient
	// pass the filter, and a bad timestamp degrades to zero.
	require.Len(t, events, 2)
	assert.Equal(t, "0x111", events[0].TxRef)
	assert.Equal(t, "0x333", events[1].TxRef)
	assert.True(t, events[1].ObservedAt.IsZero())
	assert.Equal(t, "300", events[1].Value.String())
}

func TestNewReport_Counts(t *testing.T) {
	now := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	matches := []Match{
		{Matched: true, Payment: payment("0x111", "100")},
		{Matched: false, Payment: payment("0x222", "999"), Reason: "No matching invoice found"},
	}

	report := NewReport("0xwallet", matches, now)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "0xwallet", report.Wallet)
	assert.Equal(t, 2, report.TotalPayments)
	assert.Equal(t, 1, report.MatchedPayments)
	assert.Equal(t, 1, report.UnmatchedPayments)
	assert.Equal(t, now, report.Timestamp.Time)
}
