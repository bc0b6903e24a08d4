package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"lawdesk/internal/port"
)

type transactor struct {
	db *sqlx.DB
}

// NewTransactor creates a Transactor that runs each unit of work in its own
// PostgreSQL transaction.
func NewTransactor(db *sqlx.DB) port.Transactor {
	return &transactor{db: db}
}

// WithinTx bounds the transaction twice: the context deadline covers the
// client side and statement_timeout stops long statements on the server.
func (t *transactor) WithinTx(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, stores port.TxStores) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transactor.WithinTx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", timeout.Milliseconds())); err != nil {
		return fmt.Errorf("transactor.WithinTx: statement_timeout: %w", err)
	}

	if err := fn(ctx, port.TxStores{
		Groups:   &groupRepo{db: tx},
		Clients:  &clientRepo{db: tx},
		Contacts: &contactRepo{db: tx},
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transactor.WithinTx: commit: %w", err)
	}
	return nil
}
