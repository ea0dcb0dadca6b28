package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/application/mocks"
	"github.com/DanielPopoola/jmw-payments/internal/application/services"
	"github.com/DanielPopoola/jmw-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EntryServiceTestSuite struct {
	suite.Suite
	ledger  *mocks.MemoryLedger
	sink    *mocks.RecordingSink
	service *services.EntryService
	link    *domain.BulkOrderLink
	coupon  *domain.CouponCode
}

func TestEntryServiceSuite(t *testing.T) {
	suite.Run(t, new(EntryServiceTestSuite))
}

func (suite *EntryServiceTestSuite) SetupTest() {
	suite.ledger = mocks.NewMemoryLedger()
	suite.sink = &mocks.RecordingSink{}
	suite.service = services.NewEntryService(suite.ledger, suite.sink, "pk_test_123", fixedClock, discardLogger())

	link, err := domain.NewBulkOrderLink(uuid.New(), "Unilag Alumni", 1_200_000, fixedNow.Add(24*time.Hour), "admin", fixedNow)
	suite.Require().NoError(err)
	suite.link = link
	suite.coupon = &domain.CouponCode{ID: uuid.New(), LinkID: link.ID, Code: "ABC123", CreatedAt: fixedNow}
	suite.ledger.SeedLink(link, suite.coupon)
}

func (suite *EntryServiceTestSuite) command() services.SubmitEntryCommand {
	return services.SubmitEntryCommand{
		LinkID:   suite.link.ID,
		Email:    "chi@example.com",
		FullName: "Chioma Obi",
		Size:     "xl",
	}
}

// ============================================================================
// HAPPY PATH TESTS
// ============================================================================

func (suite *EntryServiceTestSuite) Test_SubmitEntry_WithoutCoupon_ReturnsPaymentInstructions() {
	t := suite.T()

	result, err := suite.service.SubmitEntry(context.Background(), suite.command())

	require.NoError(t, err)
	assert.Equal(t, services.EntryCreated, result.Outcome)
	assert.Equal(t, 1, result.Entry.SerialNumber)
	assert.Equal(t, "CHIOMA OBI", result.Entry.FullName)
	assert.False(t, result.Entry.Paid)

	require.NotNil(t, result.Payment)
	assert.Equal(t, domain.EncodeBulkReference(suite.link.ID, result.Entry.ID), result.Payment.Reference)
	assert.Equal(t, suite.link.PricePerItem, result.Payment.Amount)
	assert.Equal(t, "pk_test_123", result.Payment.PublicKey)
	assert.Empty(t, suite.sink.Tasks())
}

func (suite *EntryServiceTestSuite) Test_SubmitEntry_WithCoupon_PaidAndCouponUsed() {
	t := suite.T()
	cmd := suite.command()
	cmd.CouponCode = " abc123 "

	result, err := suite.service.SubmitEntry(context.Background(), cmd)

	require.NoError(t, err)
	assert.Equal(t, services.EntryCreated, result.Outcome)
	assert.Nil(t, result.Payment)

	saved := suite.ledger.Entry(result.Entry.ID)
	assert.True(t, saved.Paid)
	assert.Equal(t, "ABC123", saved.CouponCode)
	assert.True(t, suite.ledger.Coupon("ABC123").IsUsed)
	assert.Equal(t, 1, suite.sink.Count(application.TaskEntryReceipt))
}

func (suite *EntryServiceTestSuite) Test_SubmitEntry_SerialsAreSequential() {
	t := suite.T()

	for want := 1; want <= 3; want++ {
		result, err := suite.service.SubmitEntry(context.Background(), suite.command())
		require.NoError(t, err)
		assert.Equal(t, want, result.Entry.SerialNumber)
	}
}

// ============================================================================
// REJECTION TESTS
// ============================================================================

func (suite *EntryServiceTestSuite) Test_SubmitEntry_Outcomes() {
	t := suite.T()

	used := &domain.CouponCode{ID: uuid.New(), LinkID: suite.link.ID, Code: "USED0001", IsUsed: true}
	other, err := domain.NewBulkOrderLink(uuid.New(), "Other Org", 100, fixedNow.Add(time.Hour), "admin", fixedNow)
	require.NoError(t, err)
	foreign := &domain.CouponCode{ID: uuid.New(), LinkID: other.ID, Code: "FOREIGN1"}
	suite.ledger.SeedLink(other, foreign)
	suite.ledger.SeedLink(suite.link, used)

	expired, err := domain.NewBulkOrderLink(uuid.New(), "Late Org", 100, fixedNow.Add(-time.Minute), "admin", fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	suite.ledger.SeedLink(expired)

	tests := []struct {
		name   string
		mutate func(*services.SubmitEntryCommand)
		want   services.EntryOutcome
	}{
		{"used coupon", func(c *services.SubmitEntryCommand) { c.CouponCode = "USED0001" }, services.EntryCouponAlreadyUsed},
		{"unknown coupon", func(c *services.SubmitEntryCommand) { c.CouponCode = "NOPE0000" }, services.EntryCouponInvalid},
		{"coupon from another link", func(c *services.SubmitEntryCommand) { c.CouponCode = "FOREIGN1" }, services.EntryCouponInvalid},
		{"expired link", func(c *services.SubmitEntryCommand) { c.LinkID = expired.ID }, services.EntryLinkExpired},
		{"missing link", func(c *services.SubmitEntryCommand) { c.LinkID = uuid.New() }, services.EntryLinkNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := suite.command()
			tt.mutate(&cmd)

			result, err := suite.service.SubmitEntry(context.Background(), cmd)

			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Outcome)
			assert.Nil(t, result.Entry)
		})
	}

	assert.Empty(t, suite.ledger.Entries(suite.link.ID))
	assert.False(t, suite.ledger.Coupon("FOREIGN1").IsUsed)
}

func (suite *EntryServiceTestSuite) Test_SubmitEntry_InvalidInput() {
	t := suite.T()

	cmd := suite.command()
	cmd.Size = "XS"
	_, err := suite.service.SubmitEntry(context.Background(), cmd)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeInvalidSize, svcErr.Code)
	assert.Contains(t, svcErr.Details, "size")

	cmd = suite.command()
	cmd.Email = " "
	_, err = suite.service.SubmitEntry(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
}

func (suite *EntryServiceTestSuite) Test_SubmitEntry_StoreOutage() {
	suite.ledger.Fail = errors.New("connection refused")

	_, err := suite.service.SubmitEntry(context.Background(), suite.command())

	svcErr, ok := application.IsServiceError(err)
	suite.Require().True(ok)
	suite.Equal(application.ErrCodeInternal, svcErr.Code)
}

// ============================================================================
// CONCURRENCY TESTS
// ============================================================================

func (suite *EntryServiceTestSuite) Test_SubmitEntry_ConcurrentSerialsAreGapless() {
	t := suite.T()
	const n = 25

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.service.SubmitEntry(context.Background(), suite.command())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries := suite.ledger.Entries(suite.link.ID)
	require.Len(t, entries, n)
	for i, e := range entries {
		assert.Equal(t, i+1, e.SerialNumber)
	}
}

func (suite *EntryServiceTestSuite) Test_SubmitEntry_CouponRace_ExactlyOneWins() {
	t := suite.T()
	const n = 10

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[services.EntryOutcome]int{}
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd := suite.command()
			cmd.CouponCode = "ABC123"
			result, err := suite.service.SubmitEntry(context.Background(), cmd)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes[result.Outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, outcomes[services.EntryCreated])
	assert.Equal(t, n-1, outcomes[services.EntryCouponAlreadyUsed])

	entries := suite.ledger.Entries(suite.link.ID)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Paid)
	assert.Equal(t, "ABC123", entries[0].CouponCode)
}
