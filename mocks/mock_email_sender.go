package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawdesk/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendImportSummary(ctx context.Context, toEmail, toName string, result *domain.UploadResult) error {
	args := m.Called(ctx, toEmail, toName, result)
	return args.Error(0)
}
