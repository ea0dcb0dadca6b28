package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/DanielPopoola/jmw-payments/internal/metrics"
	"github.com/google/uuid"
)

type EntryOutcome string

const (
	EntryCreated           EntryOutcome = "ENTRY_CREATED"
	EntryCouponAlreadyUsed EntryOutcome = "COUPON_ALREADY_USED"
	EntryCouponInvalid     EntryOutcome = "COUPON_INVALID"
	EntryLinkExpired       EntryOutcome = "LINK_EXPIRED"
	EntryLinkNotFound      EntryOutcome = "LINK_NOT_FOUND"
)

type SubmitEntryCommand struct {
	LinkID     uuid.UUID
	Email      string
	FullName   string
	Size       string
	CustomName string
	CouponCode string
}

// EntryPayment is returned for entries that still need a gateway payment.
type EntryPayment struct {
	Reference string
	Amount    domain.Kobo
	Email     string
	PublicKey string
}

type EntryResult struct {
	Outcome EntryOutcome
	Entry   *domain.OrderEntry
	Payment *EntryPayment
	Message string
}

type EntryService struct {
	ledger    application.Ledger
	sink      application.TaskSink
	publicKey string
	now       application.Clock
	logger    *slog.Logger
}

func NewEntryService(
	ledger application.Ledger,
	sink application.TaskSink,
	publicKey string,
	clock application.Clock,
	logger *slog.Logger,
) *EntryService {
	if clock == nil {
		clock = time.Now
	}
	return &EntryService{
		ledger:    ledger,
		sink:      sink,
		publicKey: publicKey,
		now:       clock,
		logger:    logger,
	}
}

// SubmitEntry allocates the next serial under the link's row lock and, when
// a coupon is given, redeems it in the same transaction. Input validation
// failures return a *application.ServiceError; allocation outcomes come back
// in the result.
func (s *EntryService) SubmitEntry(ctx context.Context, cmd SubmitEntryCommand) (*EntryResult, error) {
	size, err := domain.ParseSize(cmd.Size)
	if err != nil {
		return nil, application.NewFieldError(domain.ErrCodeInvalidSize, "size", "size must be one of S, M, L, XL, XXL, XXXL, XXXXL")
	}

	now := s.now()
	entry, err := domain.NewOrderEntry(uuid.New(), cmd.LinkID, 0, cmd.Email, cmd.FullName, size, cmd.CustomName, now)
	if err != nil {
		return nil, application.NewInvalidInputError(err)
	}

	code := domain.NormalizeCouponCode(cmd.CouponCode)
	var (
		result *EntryResult
		link   *domain.BulkOrderLink
	)

	err = s.ledger.WithinTx(ctx, func(ctx context.Context, tx application.LedgerTx) error {
		var err error
		link, err = tx.LinkForUpdate(ctx, cmd.LinkID)
		if errors.Is(err, domain.ErrRecordNotFound) {
			result = &EntryResult{Outcome: EntryLinkNotFound, Message: "bulk order link not found"}
			return nil
		}
		if err != nil {
			return err
		}
		if link.IsExpired(now) {
			result = &EntryResult{Outcome: EntryLinkExpired, Message: domain.ErrLinkExpired.Message}
			return nil
		}

		var coupon *domain.CouponCode
		if code != "" {
			coupon, err = tx.CouponForUpdate(ctx, cmd.LinkID, code)
			if errors.Is(err, domain.ErrRecordNotFound) {
				result = &EntryResult{Outcome: EntryCouponInvalid, Message: domain.ErrCouponInvalid.Message}
				return nil
			}
			if err != nil {
				return err
			}
			if err := entry.RedeemCoupon(coupon, now); err != nil {
				switch {
				case errors.Is(err, domain.ErrCouponAlreadyUsed):
					result = &EntryResult{Outcome: EntryCouponAlreadyUsed, Message: domain.ErrCouponAlreadyUsed.Message}
					return nil
				case errors.Is(err, domain.ErrCouponInvalid):
					result = &EntryResult{Outcome: EntryCouponInvalid, Message: domain.ErrCouponInvalid.Message}
					return nil
				}
				return err
			}
		}

		serial, err := tx.NextSerialNumber(ctx, cmd.LinkID)
		if err != nil {
			return err
		}
		entry.SerialNumber = serial

		if err := tx.InsertEntry(ctx, entry); err != nil {
			return err
		}
		if coupon != nil {
			if err := tx.UpdateCoupon(ctx, coupon); err != nil {
				return err
			}
		}

		result = &EntryResult{Outcome: EntryCreated, Entry: entry, Message: "entry created"}
		return nil
	})
	if err != nil {
		s.logger.Error("submit entry: store failure", "link_id", cmd.LinkID, "error", err)
		return nil, application.NewInternalError(err)
	}

	metrics.RecordEntrySubmission(string(result.Outcome))
	if result.Outcome != EntryCreated {
		s.logger.Info("entry rejected", "link_id", cmd.LinkID, "outcome", result.Outcome)
		return result, nil
	}

	s.logger.Info("entry created",
		"link_id", cmd.LinkID,
		"entry_id", entry.ID,
		"serial", entry.SerialNumber,
		"coupon", entry.CouponCode != "")

	if entry.Paid {
		s.dispatchReceipt(ctx, link, entry)
		return result, nil
	}

	result.Payment = &EntryPayment{
		Reference: entry.Reference(),
		Amount:    link.PricePerItem,
		Email:     entry.Email,
		PublicKey: s.publicKey,
	}
	return result, nil
}

func (s *EntryService) dispatchReceipt(ctx context.Context, link *domain.BulkOrderLink, entry *domain.OrderEntry) {
	task, err := entryReceipt(link, entry, 0)
	if err == nil {
		err = s.sink.Enqueue(context.WithoutCancel(ctx), task)
	}
	if err != nil {
		s.logger.Error("failed to dispatch entry receipt", "entry_id", entry.ID, "error", err)
	}
}
