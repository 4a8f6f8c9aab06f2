package reconcile

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"invoiceguard/internal/logger"
	"invoiceguard/pkg/models"
)

// Watcher supplies payment events observed for a wallet. Implementations
// degrade to an empty sequence on failure; errors never reach the matcher.
type Watcher interface {
	// Payments returns events for the wallet from the given starting
	// point ("latest" or a block reference).
	Payments(ctx context.Context, wallet, from string) []models.PaymentEvent
}

// StaticWatcher returns a fixed set of events, used in mock mode and tests.
type StaticWatcher struct {
	Events []models.PaymentEvent
}

// Payments implements Watcher.
func (w StaticWatcher) Payments(_ context.Context, wallet, _ string) []models.PaymentEvent {
	events := make([]models.PaymentEvent, 0, len(w.Events))
	for _, ev := range w.Events {
		if ev.To == "" {
			ev.To = wallet
		}
		events = append(events, ev)
	}
	return events
}

// FileWatcher reads payment events from a JSON document, the exchange
// format the ledger-monitoring collaborator drops on disk. A missing or
// malformed file yields no events.
type FileWatcher struct {
	Path string
	log  zerolog.Logger
}

// NewFileWatcher creates a watcher over the given events file.
func NewFileWatcher(path string) *FileWatcher {
	return &FileWatcher{
		Path: path,
		log:  logger.WithComponent("ledger-watcher"),
	}
}

// Payments implements Watcher.
func (w *FileWatcher) Payments(_ context.Context, wallet, from string) []models.PaymentEvent {
	data, err := os.ReadFile(w.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.log.Warn().Err(err).Str("path", w.Path).Msg("Failed to read payment events file")
		}
		return nil
	}

	var events []models.PaymentEvent
	if err := json.Unmarshal(data, &events); err != nil {
		w.log.Warn().Err(err).Str("path", w.Path).Msg("Failed to parse payment events file")
		return nil
	}

	filtered := make([]models.PaymentEvent, 0, len(events))
	for _, ev := range events {
		if wallet != "" && ev.To != "" && !strings.EqualFold(ev.To, wallet) {
			continue
		}
		filtered = append(filtered, ev)
	}

	w.log.Info().
		Str("wallet", wallet).
		Str("from", from).
		Int("events", len(filtered)).
		Msg("Payment events loaded")

	return filtered
}
