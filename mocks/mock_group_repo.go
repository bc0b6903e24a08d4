package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lawdesk/internal/domain"
)

// MockGroupRepo is a mock implementation of port.GroupRepository.
type MockGroupRepo struct {
	mock.Mock
}

func (m *MockGroupRepo) FindByNames(ctx context.Context, names []string) ([]domain.ClientGroup, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClientGroup), args.Error(1)
}

func (m *MockGroupRepo) GetByName(ctx context.Context, name string) (*domain.ClientGroup, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientGroup), args.Error(1)
}

func (m *MockGroupRepo) Create(ctx context.Context, group *domain.ClientGroup) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}
