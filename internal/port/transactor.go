package port

import (
	"context"
	"time"
)

// TxStores exposes repositories bound to a single transaction.
type TxStores struct {
	Groups   GroupRepository
	Clients  ClientRepository
	Contacts ContactRepository
}

// Transactor runs fn inside one transaction bounded by timeout. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, stores TxStores) error) error
}
