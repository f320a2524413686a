package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceai/internal/domain"
)

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, path string, kind domain.FileType) (string, error) {
	args := m.Called(ctx, path, kind)
	return args.String(0), args.Error(1)
}
