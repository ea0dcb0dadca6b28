package mocks

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/google/uuid"
)

// MemoryLedger is an in-memory application.Ledger for unit tests.
// Transactions are serialised by one mutex and work on a copy of the state
// that replaces the committed state only when fn returns nil.
type MemoryLedger struct {
	mu    sync.Mutex
	state *memoryState
	reads atomic.Int64

	// Fail, when set, is returned by every subsequent ledger call.
	Fail error
}

type memoryState struct {
	payments      map[string]*domain.PaymentTransaction
	orders        map[uuid.UUID]*domain.Order
	links         map[uuid.UUID]*domain.BulkOrderLink
	coupons       map[string]*domain.CouponCode
	entries       map[uuid.UUID]*domain.OrderEntry
	paymentOrders map[uuid.UUID][]uuid.UUID
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{state: &memoryState{
		payments:      map[string]*domain.PaymentTransaction{},
		orders:        map[uuid.UUID]*domain.Order{},
		links:         map[uuid.UUID]*domain.BulkOrderLink{},
		coupons:       map[string]*domain.CouponCode{},
		entries:       map[uuid.UUID]*domain.OrderEntry{},
		paymentOrders: map[uuid.UUID][]uuid.UUID{},
	}}
}

// Reads counts every ledger call made through the Ledger and LedgerTx
// interfaces. Seed and inspection helpers are not counted.
func (l *MemoryLedger) Reads() int64 {
	return l.reads.Load()
}

func (l *MemoryLedger) WithinTx(ctx context.Context, fn func(ctx context.Context, tx application.LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Fail != nil {
		return l.Fail
	}

	working := l.state.clone()
	if err := fn(ctx, &memoryTx{ledger: l, state: working}); err != nil {
		return err
	}
	l.state = working
	return nil
}

func (l *MemoryLedger) view(fn func(s *memoryState) error) error {
	l.reads.Add(1)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Fail != nil {
		return l.Fail
	}
	return fn(l.state)
}

func (l *MemoryLedger) PaymentByReference(_ context.Context, reference string) (*domain.PaymentTransaction, error) {
	var out *domain.PaymentTransaction
	err := l.view(func(s *memoryState) error {
		p, ok := s.payments[reference]
		if !ok {
			return domain.NewRecordNotFoundError("payment", reference)
		}
		out = clonePayment(p)
		return nil
	})
	return out, err
}

func (l *MemoryLedger) OrdersForPayment(_ context.Context, paymentID uuid.UUID) ([]*domain.Order, error) {
	var out []*domain.Order
	err := l.view(func(s *memoryState) error {
		for _, id := range s.paymentOrders[paymentID] {
			if o, ok := s.orders[id]; ok {
				out = append(out, cloneOrder(o))
			}
		}
		return nil
	})
	return out, err
}

func (l *MemoryLedger) StalePendingPayments(_ context.Context, createdBefore time.Time, limit int) ([]*domain.PaymentTransaction, error) {
	var out []*domain.PaymentTransaction
	err := l.view(func(s *memoryState) error {
		for _, p := range s.payments {
			if p.Status == domain.StatusPending && p.CreatedAt.Before(createdBefore) {
				out = append(out, clonePayment(p))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (l *MemoryLedger) LinkByID(_ context.Context, linkID uuid.UUID) (*domain.BulkOrderLink, error) {
	var out *domain.BulkOrderLink
	err := l.view(func(s *memoryState) error {
		link, err := s.link(linkID)
		out = link
		return err
	})
	return out, err
}

func (l *MemoryLedger) EntryByID(_ context.Context, linkID, entryID uuid.UUID) (*domain.OrderEntry, error) {
	var out *domain.OrderEntry
	err := l.view(func(s *memoryState) error {
		entry, err := s.entry(linkID, entryID)
		out = entry
		return err
	})
	return out, err
}

func (l *MemoryLedger) CreateOrder(_ context.Context, order *domain.Order) (bool, error) {
	var created bool
	err := l.view(func(s *memoryState) error {
		for _, o := range s.orders {
			if o.Reference == order.Reference {
				return nil
			}
		}
		s.orders[order.ID] = cloneOrder(order)
		created = true
		return nil
	})
	return created, err
}

// Seed helpers.

func (l *MemoryLedger) SeedOrder(order *domain.Order) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.orders[order.ID] = cloneOrder(order)
}

func (l *MemoryLedger) SeedPayment(payment *domain.PaymentTransaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.payments[payment.Reference] = clonePayment(payment)
	l.state.paymentOrders[payment.ID] = slices.Clone(payment.OrderIDs)
}

func (l *MemoryLedger) SeedLink(link *domain.BulkOrderLink, coupons ...*domain.CouponCode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *link
	l.state.links[link.ID] = &cp
	for _, c := range coupons {
		l.state.coupons[c.Code] = cloneCoupon(c)
	}
}

func (l *MemoryLedger) SeedEntry(entry *domain.OrderEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.entries[entry.ID] = cloneEntry(entry)
}

// Inspection helpers return copies of committed state.

func (l *MemoryLedger) Payment(reference string) *domain.PaymentTransaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.state.payments[reference]; ok {
		return clonePayment(p)
	}
	return nil
}

func (l *MemoryLedger) Order(id uuid.UUID) *domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o, ok := l.state.orders[id]; ok {
		return cloneOrder(o)
	}
	return nil
}

func (l *MemoryLedger) Entry(id uuid.UUID) *domain.OrderEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.state.entries[id]; ok {
		return cloneEntry(e)
	}
	return nil
}

func (l *MemoryLedger) Entries(linkID uuid.UUID) []*domain.OrderEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.OrderEntry
	for _, e := range l.state.entries {
		if e.LinkID == linkID {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SerialNumber < out[j].SerialNumber })
	return out
}

func (l *MemoryLedger) Coupon(code string) *domain.CouponCode {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.state.coupons[code]; ok {
		return cloneCoupon(c)
	}
	return nil
}

type memoryTx struct {
	ledger *MemoryLedger
	state  *memoryState
}

func (tx *memoryTx) read() {
	tx.ledger.reads.Add(1)
}

func (tx *memoryTx) PaymentByReferenceForUpdate(_ context.Context, reference string) (*domain.PaymentTransaction, error) {
	tx.read()
	p, ok := tx.state.payments[reference]
	if !ok {
		return nil, domain.NewRecordNotFoundError("payment", reference)
	}
	out := clonePayment(p)
	out.OrderIDs = slices.Clone(tx.state.paymentOrders[p.ID])
	return out, nil
}

func (tx *memoryTx) InsertPayment(_ context.Context, payment *domain.PaymentTransaction) (bool, error) {
	tx.read()
	if _, taken := tx.state.payments[payment.Reference]; taken {
		return false, nil
	}
	tx.state.payments[payment.Reference] = clonePayment(payment)
	tx.state.paymentOrders[payment.ID] = slices.Clone(payment.OrderIDs)
	return true, nil
}

func (tx *memoryTx) UpdatePayment(_ context.Context, payment *domain.PaymentTransaction) error {
	tx.read()
	if _, ok := tx.state.payments[payment.Reference]; !ok {
		return domain.NewRecordNotFoundError("payment", payment.Reference)
	}
	tx.state.payments[payment.Reference] = clonePayment(payment)
	return nil
}

func (tx *memoryTx) OrdersForUpdate(_ context.Context, orderIDs []uuid.UUID) ([]*domain.Order, error) {
	tx.read()
	seen := map[uuid.UUID]bool{}
	var out []*domain.Order
	for _, id := range orderIDs {
		if o, ok := tx.state.orders[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (tx *memoryTx) OrdersForPaymentForUpdate(ctx context.Context, paymentID uuid.UUID) ([]*domain.Order, error) {
	return tx.OrdersForUpdate(ctx, tx.state.paymentOrders[paymentID])
}

func (tx *memoryTx) UpdateOrder(_ context.Context, order *domain.Order) error {
	tx.read()
	tx.state.orders[order.ID] = cloneOrder(order)
	return nil
}

func (tx *memoryTx) InsertLink(_ context.Context, link *domain.BulkOrderLink) error {
	tx.read()
	cp := *link
	tx.state.links[link.ID] = &cp
	return nil
}

func (tx *memoryTx) LinkByID(_ context.Context, linkID uuid.UUID) (*domain.BulkOrderLink, error) {
	tx.read()
	return tx.state.link(linkID)
}

func (tx *memoryTx) LinkForUpdate(ctx context.Context, linkID uuid.UUID) (*domain.BulkOrderLink, error) {
	return tx.LinkByID(ctx, linkID)
}

func (tx *memoryTx) InsertCoupon(_ context.Context, coupon *domain.CouponCode) (bool, error) {
	tx.read()
	if _, taken := tx.state.coupons[coupon.Code]; taken {
		return false, nil
	}
	tx.state.coupons[coupon.Code] = cloneCoupon(coupon)
	return true, nil
}

func (tx *memoryTx) CouponForUpdate(_ context.Context, linkID uuid.UUID, code string) (*domain.CouponCode, error) {
	tx.read()
	c, ok := tx.state.coupons[code]
	if !ok || c.LinkID != linkID {
		return nil, domain.NewRecordNotFoundError("coupon", code)
	}
	return cloneCoupon(c), nil
}

func (tx *memoryTx) UpdateCoupon(_ context.Context, coupon *domain.CouponCode) error {
	tx.read()
	tx.state.coupons[coupon.Code] = cloneCoupon(coupon)
	return nil
}

func (tx *memoryTx) NextSerialNumber(_ context.Context, linkID uuid.UUID) (int, error) {
	tx.read()
	highest := 0
	for _, e := range tx.state.entries {
		if e.LinkID == linkID && e.SerialNumber > highest {
			highest = e.SerialNumber
		}
	}
	return highest + 1, nil
}

func (tx *memoryTx) InsertEntry(_ context.Context, entry *domain.OrderEntry) error {
	tx.read()
	tx.state.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (tx *memoryTx) EntryForUpdate(_ context.Context, linkID, entryID uuid.UUID) (*domain.OrderEntry, error) {
	tx.read()
	return tx.state.entry(linkID, entryID)
}

func (tx *memoryTx) UpdateEntry(_ context.Context, entry *domain.OrderEntry) error {
	tx.read()
	tx.state.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (s *memoryState) link(linkID uuid.UUID) (*domain.BulkOrderLink, error) {
	link, ok := s.links[linkID]
	if !ok {
		return nil, domain.NewRecordNotFoundError("bulk order link", linkID.String())
	}
	cp := *link
	return &cp, nil
}

func (s *memoryState) entry(linkID, entryID uuid.UUID) (*domain.OrderEntry, error) {
	e, ok := s.entries[entryID]
	if !ok || e.LinkID != linkID {
		return nil, domain.NewRecordNotFoundError("order entry", entryID.String())
	}
	return cloneEntry(e), nil
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		payments:      make(map[string]*domain.PaymentTransaction, len(s.payments)),
		orders:        make(map[uuid.UUID]*domain.Order, len(s.orders)),
		links:         make(map[uuid.UUID]*domain.BulkOrderLink, len(s.links)),
		coupons:       make(map[string]*domain.CouponCode, len(s.coupons)),
		entries:       make(map[uuid.UUID]*domain.OrderEntry, len(s.entries)),
		paymentOrders: make(map[uuid.UUID][]uuid.UUID, len(s.paymentOrders)),
	}
	for k, v := range s.payments {
		out.payments[k] = clonePayment(v)
	}
	for k, v := range s.orders {
		out.orders[k] = cloneOrder(v)
	}
	for k, v := range s.links {
		cp := *v
		out.links[k] = &cp
	}
	for k, v := range s.coupons {
		out.coupons[k] = cloneCoupon(v)
	}
	for k, v := range s.entries {
		out.entries[k] = cloneEntry(v)
	}
	for k, v := range s.paymentOrders {
		out.paymentOrders[k] = slices.Clone(v)
	}
	return out
}

func clonePayment(p *domain.PaymentTransaction) *domain.PaymentTransaction {
	cp := *p
	cp.OrderIDs = slices.Clone(p.OrderIDs)
	cp.Metadata = maps.Clone(p.Metadata)
	if p.OrderID != nil {
		id := *p.OrderID
		cp.OrderID = &id
	}
	if p.GatewayReference != nil {
		ref := *p.GatewayReference
		cp.GatewayReference = &ref
	}
	if p.VerifiedAt != nil {
		at := *p.VerifiedAt
		cp.VerifiedAt = &at
	}
	return &cp
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	return &cp
}

func cloneCoupon(c *domain.CouponCode) *domain.CouponCode {
	cp := *c
	if c.UsedAt != nil {
		at := *c.UsedAt
		cp.UsedAt = &at
	}
	return &cp
}

func cloneEntry(e *domain.OrderEntry) *domain.OrderEntry {
	cp := *e
	if e.CouponID != nil {
		id := *e.CouponID
		cp.CouponID = &id
	}
	if e.PaymentReference != nil {
		ref := *e.PaymentReference
		cp.PaymentReference = &ref
	}
	if e.PaidAt != nil {
		at := *e.PaidAt
		cp.PaidAt = &at
	}
	return &cp
}
