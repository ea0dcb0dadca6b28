package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const entryColumns = `
	e.id, e.link_id, e.serial_number, e.email, e.full_name, e.size, e.custom_name,
	e.coupon_id, c.code, e.paid, e.payment_reference, e.paid_at, e.created_at, e.updated_at`

// BulkRepository stores links, their coupons and their entries.
type BulkRepository struct {
	q Executor
}

func NewBulkRepository(q Executor) *BulkRepository {
	return &BulkRepository{q: q}
}

func (r *BulkRepository) InsertLink(ctx context.Context, link *domain.BulkOrderLink) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO bulk_order_links (id, organization_name, price_per_item_kobo, payment_deadline, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		link.ID, link.OrganizationName, int64(link.PricePerItem), link.PaymentDeadline,
		link.CreatedBy, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

func (r *BulkRepository) LinkByID(ctx context.Context, linkID uuid.UUID) (*domain.BulkOrderLink, error) {
	return r.link(ctx, `SELECT id, organization_name, price_per_item_kobo, payment_deadline, created_by, created_at, updated_at
		FROM bulk_order_links WHERE id = $1`, linkID)
}

// LinkForUpdate serializes entry submissions under one link.
func (r *BulkRepository) LinkForUpdate(ctx context.Context, linkID uuid.UUID) (*domain.BulkOrderLink, error) {
	return r.link(ctx, `SELECT id, organization_name, price_per_item_kobo, payment_deadline, created_by, created_at, updated_at
		FROM bulk_order_links WHERE id = $1 FOR UPDATE`, linkID)
}

func (r *BulkRepository) link(ctx context.Context, query string, linkID uuid.UUID) (*domain.BulkOrderLink, error) {
	var m LinkModel
	err := r.q.QueryRow(ctx, query, linkID).Scan(
		&m.ID, &m.OrganizationName, &m.PricePerItemKobo, &m.PaymentDeadline,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewRecordNotFoundError("bulk order link", linkID.String())
		}
		return nil, fmt.Errorf("failed to scan link: %w", err)
	}
	return linkToDomain(m), nil
}

// InsertCoupon returns false when the code is already taken.
func (r *BulkRepository) InsertCoupon(ctx context.Context, coupon *domain.CouponCode) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO coupon_codes (id, link_id, code, is_used, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO NOTHING`,
		coupon.ID, coupon.LinkID, coupon.Code, coupon.IsUsed, coupon.UsedAt, coupon.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create coupon: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *BulkRepository) CouponForUpdate(ctx context.Context, linkID uuid.UUID, code string) (*domain.CouponCode, error) {
	var m CouponModel
	err := r.q.QueryRow(ctx, `
		SELECT id, link_id, code, is_used, used_at, created_at
		FROM coupon_codes
		WHERE link_id = $1 AND code = $2
		FOR UPDATE`,
		linkID, code,
	).Scan(&m.ID, &m.LinkID, &m.Code, &m.IsUsed, &m.UsedAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewRecordNotFoundError("coupon", code)
		}
		return nil, fmt.Errorf("failed to scan coupon: %w", err)
	}
	return couponToDomain(m), nil
}

// UpdateCoupon never clears is_used once it is set.
func (r *BulkRepository) UpdateCoupon(ctx context.Context, coupon *domain.CouponCode) error {
	_, err := r.q.Exec(ctx, `
		UPDATE coupon_codes
		SET is_used = coupon_codes.is_used OR $1,
			used_at = COALESCE(coupon_codes.used_at, $2)
		WHERE id = $3`,
		coupon.IsUsed, coupon.UsedAt, coupon.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	return nil
}

// NextSerialNumber must run while the link row is locked; the
// (link_id, serial_number) unique key backs that up.
func (r *BulkRepository) NextSerialNumber(ctx context.Context, linkID uuid.UUID) (int, error) {
	var next int
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(serial_number), 0) + 1
		FROM order_entries
		WHERE link_id = $1`,
		linkID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate serial number: %w", err)
	}
	return next, nil
}

func (r *BulkRepository) InsertEntry(ctx context.Context, entry *domain.OrderEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO order_entries (
			id, link_id, serial_number, email, full_name, size, custom_name,
			coupon_id, paid, payment_reference, paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID, entry.LinkID, entry.SerialNumber, entry.Email, entry.FullName,
		string(entry.Size), entry.CustomName, entry.CouponID, entry.Paid,
		entry.PaymentReference, entry.PaidAt, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("entry serial or coupon already taken: %w", err)
		}
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

func (r *BulkRepository) EntryByID(ctx context.Context, linkID, entryID uuid.UUID) (*domain.OrderEntry, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM order_entries e
		LEFT JOIN coupon_codes c ON c.id = e.coupon_id
		WHERE e.id = $1 AND e.link_id = $2`,
		entryID, linkID,
	)
	return scanEntry(row, entryID)
}

func (r *BulkRepository) EntryForUpdate(ctx context.Context, linkID, entryID uuid.UUID) (*domain.OrderEntry, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM order_entries e
		LEFT JOIN coupon_codes c ON c.id = e.coupon_id
		WHERE e.id = $1 AND e.link_id = $2
		FOR UPDATE OF e`,
		entryID, linkID,
	)
	return scanEntry(row, entryID)
}

// UpdateEntry never clears paid once it is set.
func (r *BulkRepository) UpdateEntry(ctx context.Context, entry *domain.OrderEntry) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE order_entries
		SET paid = order_entries.paid OR $1,
			payment_reference = COALESCE(order_entries.payment_reference, $2),
			paid_at = COALESCE(order_entries.paid_at, $3),
			coupon_id = COALESCE(order_entries.coupon_id, $4),
			updated_at = $5
		WHERE id = $6`,
		entry.Paid, entry.PaymentReference, entry.PaidAt, entry.CouponID, entry.UpdatedAt, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewRecordNotFoundError("order entry", entry.ID.String())
	}
	return nil
}

func scanEntry(row pgx.Row, entryID uuid.UUID) (*domain.OrderEntry, error) {
	var m EntryModel
	err := row.Scan(
		&m.ID, &m.LinkID, &m.SerialNumber, &m.Email, &m.FullName, &m.Size, &m.CustomName,
		&m.CouponID, &m.CouponCode, &m.Paid, &m.PaymentReference, &m.PaidAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewRecordNotFoundError("order entry", entryID.String())
		}
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}
	return entryToDomain(m), nil
}
