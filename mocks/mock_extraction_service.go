package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceai/internal/domain"
	"invoiceai/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Process(ctx context.Context, input service.UploadInput) (*domain.ResultEnvelope, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResultEnvelope), args.Error(1)
}
