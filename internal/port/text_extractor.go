package port

import (
	"context"

	"invoiceai/internal/domain"
)

// TextExtractor turns a stored document into cleaned recognized text.
type TextExtractor interface {
	Extract(ctx context.Context, path string, kind domain.FileType) (string, error)
}
