package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `o.id, o.reference, o.email, o.full_name, o.phone, o.total_kobo, o.paid, o.status, o.created_at, o.updated_at`

type OrderRepository struct {
	q Executor
}

func NewOrderRepository(q Executor) *OrderRepository {
	return &OrderRepository{q: q}
}

// CreateOrder returns false when the order reference is already taken.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) (bool, error) {
	m := orderToModel(order)
	tag, err := r.q.Exec(ctx, `
		INSERT INTO orders (id, reference, email, full_name, phone, total_kobo, paid, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (reference) DO NOTHING`,
		m.ID, m.Reference, m.Email, m.FullName, m.Phone, m.TotalKobo, m.Paid, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create order: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OrderRepository) OrdersForPayment(ctx context.Context, paymentID uuid.UUID) ([]*domain.Order, error) {
	return r.collect(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN payment_transaction_orders pto ON pto.order_id = o.id
		WHERE pto.payment_id = $1
		ORDER BY o.reference`,
		paymentID,
	)
}

// OrdersForPaymentForUpdate locks every order the payment covers. Rows are
// locked in id order so concurrent settlements cannot deadlock.
func (r *OrderRepository) OrdersForPaymentForUpdate(ctx context.Context, paymentID uuid.UUID) ([]*domain.Order, error) {
	return r.collect(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN payment_transaction_orders pto ON pto.order_id = o.id
		WHERE pto.payment_id = $1
		ORDER BY o.id
		FOR UPDATE OF o`,
		paymentID,
	)
}

// OrdersForUpdate locks the given orders. Unknown IDs are skipped, so
// callers compare the count.
func (r *OrderRepository) OrdersForUpdate(ctx context.Context, orderIDs []uuid.UUID) ([]*domain.Order, error) {
	return r.collect(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.id = ANY($1)
		ORDER BY o.id
		FOR UPDATE`,
		orderIDs,
	)
}

// UpdateOrder never clears paid once it is set.
func (r *OrderRepository) UpdateOrder(ctx context.Context, order *domain.Order) error {
	m := orderToModel(order)
	tag, err := r.q.Exec(ctx, `
		UPDATE orders
		SET paid = orders.paid OR $1,
			status = $2,
			updated_at = $3
		WHERE id = $4`,
		m.Paid, m.Status, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewRecordNotFoundError("order", m.ID.String())
	}
	return nil
}

func (r *OrderRepository) collect(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	return results, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var m OrderModel
	err := row.Scan(
		&m.ID, &m.Reference, &m.Email, &m.FullName, &m.Phone,
		&m.TotalKobo, &m.Paid, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return orderToDomain(m), nil
}
