package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `
	p.id, p.reference, p.amount_kobo, p.email, p.status, p.order_id,
	ARRAY(SELECT pto.order_id FROM payment_transaction_orders pto WHERE pto.payment_id = p.id ORDER BY pto.order_id),
	p.gateway_reference, p.verified_at, p.metadata, p.created_at, p.updated_at`

type PaymentRepository struct {
	q Executor
}

func NewPaymentRepository(q Executor) *PaymentRepository {
	return &PaymentRepository{q: q}
}

// InsertPayment writes the transaction and its order links. It returns
// false when the reference already exists.
func (r *PaymentRepository) InsertPayment(ctx context.Context, payment *domain.PaymentTransaction) (bool, error) {
	m := paymentToModel(payment)
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return false, fmt.Errorf("encode payment metadata: %w", err)
	}

	tag, err := r.q.Exec(ctx, `
		INSERT INTO payment_transactions (
			id, reference, amount_kobo, email, status, order_id,
			gateway_reference, verified_at, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (reference) DO NOTHING`,
		m.ID, m.Reference, m.AmountKobo, m.Email, m.Status, m.OrderID,
		m.GatewayReference, m.VerifiedAt, metadata, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	for _, orderID := range m.OrderIDs {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO payment_transaction_orders (payment_id, order_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			m.ID, orderID,
		); err != nil {
			return false, fmt.Errorf("failed to link payment order: %w", err)
		}
	}
	return true, nil
}

func (r *PaymentRepository) PaymentByReference(ctx context.Context, reference string) (*domain.PaymentTransaction, error) {
	row := r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payment_transactions p WHERE p.reference = $1`, reference)
	return scanPayment(row, reference)
}

// PaymentByReferenceForUpdate locks the transaction row until the
// surrounding transaction ends.
func (r *PaymentRepository) PaymentByReferenceForUpdate(ctx context.Context, reference string) (*domain.PaymentTransaction, error) {
	row := r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payment_transactions p WHERE p.reference = $1 FOR UPDATE OF p`, reference)
	return scanPayment(row, reference)
}

// StalePendingPayments returns pending transactions created before the
// cutoff, oldest first.
func (r *PaymentRepository) StalePendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.PaymentTransaction, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payment_transactions p
		WHERE p.status = 'pending'
		  AND p.created_at < $1
		ORDER BY p.created_at ASC
		LIMIT $2`,
		createdBefore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query stale payments: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.PaymentTransaction, error) {
		m, err := scanPaymentModel(row)
		if err != nil {
			return nil, err
		}
		return paymentToDomain(m), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan stale payments: %w", err)
	}
	return results, nil
}

// UpdatePayment persists status, gateway reference and verification time.
// A row that is already terminal is never moved back to pending.
func (r *PaymentRepository) UpdatePayment(ctx context.Context, payment *domain.PaymentTransaction) error {
	m := paymentToModel(payment)
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("encode payment metadata: %w", err)
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE payment_transactions
		SET status = $1,
			gateway_reference = COALESCE($2, gateway_reference),
			verified_at = COALESCE($3, verified_at),
			metadata = $4,
			updated_at = $5
		WHERE id = $6
		  AND (status = 'pending' OR status = $1)`,
		m.Status, m.GatewayReference, m.VerifiedAt, metadata, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewRecordNotFoundError("payment", payment.Reference)
	}
	return nil
}

func scanPaymentModel(row pgx.Row) (PaymentModel, error) {
	var m PaymentModel
	var metadata []byte
	err := row.Scan(
		&m.ID, &m.Reference, &m.AmountKobo, &m.Email, &m.Status, &m.OrderID,
		&m.OrderIDs,
		&m.GatewayReference, &m.VerifiedAt, &metadata, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return m, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
			return m, fmt.Errorf("decode payment metadata: %w", err)
		}
	}
	return m, nil
}

// scanPayment maps pgx.ErrNoRows to a RecordNotFound domain error.
func scanPayment(row pgx.Row, reference string) (*domain.PaymentTransaction, error) {
	m, err := scanPaymentModel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewRecordNotFoundError("payment", reference)
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return paymentToDomain(m), nil
}
