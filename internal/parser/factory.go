package parser

import (
	"fmt"
	"log/slog"

	"invoiceai/internal/config"
	"invoiceai/internal/port"
)

// ProviderFactory is a function that creates an InvoiceExtractor from a completion config.
type ProviderFactory func(cfg *config.CompletionConfig, log *slog.Logger) (port.InvoiceExtractor, error)

// registry of completion provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a completion provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates an InvoiceExtractor from a completion config using the registered factory.
// A nil log falls back to slog.Default.
func NewExtractor(cfg *config.CompletionConfig, log *slog.Logger) (port.InvoiceExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
	}
	if log == nil {
		log = slog.Default()
	}
	return factory(cfg, log)
}
