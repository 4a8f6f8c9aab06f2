package cmd

import (
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"invoiceguard/internal/advisory"
	"invoiceguard/internal/config"
	"invoiceguard/internal/store"
)

// timeNow is stubbed in tests.
var timeNow = time.Now

// buildStore constructs the configured invoice store backend.
func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSqlite:
		return store.NewSqliteStore(cfg.StorePath)
	case config.BackendJSON:
		return store.NewFileStore(cfg.StorePath), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// buildAdvisor constructs the advisory hook, or the no-op advisor when no
// API key is configured.
func buildAdvisor(cfg *config.Config) advisory.Advisor {
	if !cfg.AdvisoryEnabled() {
		return advisory.Noop{}
	}
	return advisory.NewOpenAIAdvisor(openai.NewClient(cfg.OpenAIAPIKey), cfg.OpenAIModel)
}

// parseReferenceTime parses the --at flag; empty means the current time.
func parseReferenceTime(value string) (time.Time, error) {
	if value == "" {
		return timeNow(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid reference time %q, use RFC3339 or YYYY-MM-DD", value)
}
