package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"lawdesk/internal/port"
)

// MockTransactor is a mock implementation of port.Transactor. When the
// expectation returns nil, fn runs against Stores.
type MockTransactor struct {
	mock.Mock
	Stores port.TxStores
}

func (m *MockTransactor) WithinTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, stores port.TxStores) error) error {
	args := m.Called(ctx, timeout)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.Stores)
}
