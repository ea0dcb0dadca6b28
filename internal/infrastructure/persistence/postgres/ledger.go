package postgres

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger is the PostgreSQL application.Ledger. Reads outside WithinTx go
// straight to the pool.
type Ledger struct {
	*PaymentRepository
	*OrderRepository
	*BulkRepository

	pool *pgxpool.Pool
}

func NewLedger(db *DB) *Ledger {
	return &Ledger{
		PaymentRepository: NewPaymentRepository(db.Pool),
		OrderRepository:   NewOrderRepository(db.Pool),
		BulkRepository:    NewBulkRepository(db.Pool),
		pool:              db.Pool,
	}
}

// ledgerTx binds every repository to one pgx.Tx.
type ledgerTx struct {
	*PaymentRepository
	*OrderRepository
	*BulkRepository
}

// WithinTx runs fn in a transaction and commits when fn returns nil.
func (l *Ledger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx application.LedgerTx) error) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txRepos := &ledgerTx{
		PaymentRepository: NewPaymentRepository(tx),
		OrderRepository:   NewOrderRepository(tx),
		BulkRepository:    NewBulkRepository(tx),
	}

	if err := fn(ctx, txRepos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var (
	_ application.Ledger   = (*Ledger)(nil)
	_ application.LedgerTx = (*ledgerTx)(nil)
)
