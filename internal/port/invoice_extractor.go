package port

import (
	"context"

	"invoiceai/internal/domain"
)

// InvoiceExtractor turns recognized text into a validated invoice record
// through a language-model completion call.
type InvoiceExtractor interface {
	ExtractInvoice(ctx context.Context, text string) (*domain.InvoiceRecord, error)
}
