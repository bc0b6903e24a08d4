package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawdesk/internal/domain"
)

// MockContactRepo is a mock implementation of port.ContactRepository.
type MockContactRepo struct {
	mock.Mock
}

func (m *MockContactRepo) ListEmailsByClientIDs(ctx context.Context, clientIDs []int64) ([]domain.ContactEmail, error) {
	args := m.Called(ctx, clientIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContactEmail), args.Error(1)
}

func (m *MockContactRepo) ExistsByEmail(ctx context.Context, clientID int64, email string) (bool, error) {
	args := m.Called(ctx, clientID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockContactRepo) HasPrimary(ctx context.Context, clientID int64) (bool, error) {
	args := m.Called(ctx, clientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}
