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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReconcileServiceTestSuite struct {
	suite.Suite
	ledger      *mocks.MemoryLedger
	mockGateway *mocks.MockGatewayClient
	sink        *mocks.RecordingSink
	verifier    *services.SignatureVerifier
	service     *services.ReconcileService
}

func TestReconcileServiceSuite(t *testing.T) {
	suite.Run(t, new(ReconcileServiceTestSuite))
}

// SetupTest runs before each test
func (suite *ReconcileServiceTestSuite) SetupTest() {
	suite.ledger = mocks.NewMemoryLedger()
	suite.mockGateway = mocks.NewMockGatewayClient(suite.T())
	suite.sink = &mocks.RecordingSink{}
	suite.verifier = services.NewSignatureVerifier(testWebhookSecret)
	suite.service = services.NewReconcileService(
		suite.ledger,
		suite.mockGateway,
		suite.sink,
		suite.verifier,
		services.ReconcileOptions{
			VerifyTimeout: 50 * time.Millisecond,
			AbandonAfter:  24 * time.Hour,
			Clock:         fixedClock,
		},
		discardLogger(),
	)
}

func (suite *ReconcileServiceTestSuite) webhookClaim(reference string) application.Claim {
	body := chargeSuccessBody(reference)
	return application.WebhookClaim(body, suite.verifier.Sign(body))
}

// ============================================================================
// HAPPY PATH TESTS
// ============================================================================

func (suite *ReconcileServiceTestSuite) Test_Reconcile_BulkEntry_FreshSuccess() {
	ctx := context.Background()
	t := suite.T()
	fx := seedBulkEntry(t, suite.ledger)
	ref := fx.reference()

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewaySuccess(ref, fx.link.PricePerItem), nil).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, suite.webhookClaim(ref))

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeSuccess, result.Outcome)
	assert.Equal(t, domain.FlowBulkOrder, result.Flow)
	require.NotNil(t, result.VerifiedAt)
	assert.Equal(t, fixedNow, *result.VerifiedAt)

	entry := suite.ledger.Entry(fx.entry.ID)
	assert.True(t, entry.Paid)
	assert.Equal(t, ref, *entry.PaymentReference)

	tasks := suite.sink.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, application.TaskEntryReceipt, tasks[0].Kind)
	receipt, err := tasks[0].Receipt()
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", receipt.Email)
	assert.Equal(t, "LAGOS TECH CLUB", receipt.OrganizationName)
	assert.Equal(t, 1, receipt.SerialNumber)
	assert.Equal(t, fx.link.PricePerItem, receipt.Amount)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_SimplePayment_MarksOrdersPaid() {
	ctx := context.Background()
	t := suite.T()
	fx := seedSimplePayment(t, suite.ledger, domain.StatusPending)
	ref := fx.payment.Reference

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewaySuccess(ref, fx.payment.Amount), nil).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, application.ClientClaim())

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeSuccess, result.Outcome)
	assert.Equal(t, domain.FlowSimpleOrder, result.Flow)

	payment := suite.ledger.Payment(ref)
	assert.Equal(t, domain.StatusSuccess, payment.Status)
	require.NotNil(t, payment.VerifiedAt)
	require.NotNil(t, payment.GatewayReference)

	for _, order := range fx.orders {
		saved := suite.ledger.Order(order.ID)
		assert.True(t, saved.Paid)
		assert.Equal(t, domain.OrderStatusPaid, saved.Status)
	}

	tasks := suite.sink.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, application.TaskPaymentReceipt, tasks[0].Kind)
	assert.Equal(t, "payment.receipt:"+ref, tasks[0].ID)
	receipt, err := tasks[0].Receipt()
	require.NoError(t, err)
	assert.Len(t, receipt.Lines, 2)
	assert.Equal(t, domain.Kobo(1_000_000), receipt.Amount)
}

// ============================================================================
// IDEMPOTENCY TESTS
// ============================================================================

func (suite *ReconcileServiceTestSuite) Test_Reconcile_Replay_ReportsAlreadyProcessed() {
	ctx := context.Background()
	t := suite.T()
	fx := seedBulkEntry(t, suite.ledger)
	ref := fx.reference()

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewaySuccess(ref, fx.link.PricePerItem), nil).
		Times(2)

	first, err := suite.service.Reconcile(ctx, ref, suite.webhookClaim(ref))
	require.NoError(t, err)
	require.Equal(t, application.OutcomeSuccess, first.Outcome)

	second, err := suite.service.Reconcile(ctx, ref, suite.webhookClaim(ref))
	require.NoError(t, err)

	assert.Equal(t, application.OutcomeAlreadyProcessed, second.Outcome)
	assert.True(t, second.Settled())
	assert.Equal(t, first.VerifiedAt, second.VerifiedAt)
	assert.Equal(t, 1, suite.sink.Count(application.TaskEntryReceipt))
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_ConcurrentDeliveries_SettleOnce() {
	ctx := context.Background()
	t := suite.T()
	fx := seedSimplePayment(t, suite.ledger, domain.StatusPending)
	ref := fx.payment.Reference
	const deliveries = 20

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewaySuccess(ref, fx.payment.Amount), nil).
		Times(deliveries)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[application.Outcome]int{}
	)
	for i := range deliveries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claim := application.ClientClaim()
			if i%2 == 0 {
				claim = suite.webhookClaim(ref)
			}
			result, err := suite.service.Reconcile(ctx, ref, claim)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes[result.Outcome]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, outcomes[application.OutcomeSuccess])
	assert.Equal(t, deliveries-1, outcomes[application.OutcomeAlreadyProcessed])
	assert.Equal(t, 1, suite.sink.Count(application.TaskPaymentReceipt))
}

// ============================================================================
// REJECTION TESTS
// ============================================================================

func (suite *ReconcileServiceTestSuite) Test_Reconcile_MalformedReference_NoLedgerRead() {
	ctx := context.Background()
	t := suite.T()

	result, err := suite.service.Reconcile(ctx, "not-a-real-ref", application.ClientClaim())

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeUnknownReference, result.Outcome)
	assert.Zero(t, suite.ledger.Reads())
	suite.mockGateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_TamperedBody_RejectedBeforeLedgerRead() {
	ctx := context.Background()
	t := suite.T()
	fx := seedBulkEntry(t, suite.ledger)
	ref := fx.reference()

	body := chargeSuccessBody(ref)
	signature := suite.verifier.Sign(body)
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = '9'

	result, err := suite.service.Reconcile(ctx, ref, application.WebhookClaim(tampered, signature))

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeInvalidSignature, result.Outcome)
	assert.Zero(t, suite.ledger.Reads())
	assert.False(t, suite.ledger.Entry(fx.entry.ID).Paid)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_GatewayError_NoStateChange() {
	ctx := context.Background()
	t := suite.T()
	fx := seedBulkEntry(t, suite.ledger)
	ref := fx.reference()

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(nil, errors.New("connection reset by peer")).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, suite.webhookClaim(ref))

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeVerificationFailed, result.Outcome)
	assert.False(t, suite.ledger.Entry(fx.entry.ID).Paid)
	assert.Empty(t, suite.sink.Tasks())
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_GatewayTimeout_IsVerificationFailed() {
	ctx := context.Background()
	t := suite.T()
	fx := seedSimplePayment(t, suite.ledger, domain.StatusPending)
	ref := fx.payment.Reference

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		RunAndReturn(func(ctx context.Context, _ string) (*application.VerifyResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, application.ClientClaim())

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeVerificationFailed, result.Outcome)
	assert.Equal(t, domain.StatusPending, suite.ledger.Payment(ref).Status)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_ForgedSuccess_GatewaySaysFailed() {
	ctx := context.Background()
	t := suite.T()
	fx := seedBulkEntry(t, suite.ledger)
	ref := fx.reference()

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewayStatus(ref, application.GatewayStatusFailed, fx.link.PricePerItem), nil).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, suite.webhookClaim(ref))

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeVerificationFailed, result.Outcome)
	assert.False(t, suite.ledger.Entry(fx.entry.ID).Paid)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_Underpaid_IsVerificationFailed() {
	ctx := context.Background()
	t := suite.T()
	fx := seedSimplePayment(t, suite.ledger, domain.StatusPending)
	ref := fx.payment.Reference

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewaySuccess(ref, fx.payment.Amount-1), nil).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, application.ClientClaim())

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeVerificationFailed, result.Outcome)
	assert.Equal(t, domain.StatusPending, suite.ledger.Payment(ref).Status)
	assert.False(t, suite.ledger.Order(fx.orders[0].ID).Paid)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_UnknownEntry_RecordNotFound() {
	ctx := context.Background()
	t := suite.T()
	ref := domain.EncodeBulkReference(uuid.New(), uuid.New())

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewaySuccess(ref, 1_500_000), nil).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, application.ClientClaim())

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeRecordNotFound, result.Outcome)
	assert.Empty(t, suite.sink.Tasks())
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_FailedPayment_InvalidTransition() {
	ctx := context.Background()
	t := suite.T()
	fx := seedSimplePayment(t, suite.ledger, domain.StatusFailed)
	ref := fx.payment.Reference

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewaySuccess(ref, fx.payment.Amount), nil).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, application.ClientClaim())

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeInvalidTransition, result.Outcome)
	assert.Equal(t, domain.StatusFailed, suite.ledger.Payment(ref).Status)
}

// ============================================================================
// SIDE EFFECT AND STORE FAILURE TESTS
// ============================================================================

func (suite *ReconcileServiceTestSuite) Test_Reconcile_SinkFailure_DoesNotUndoSettlement() {
	ctx := context.Background()
	t := suite.T()
	fx := seedBulkEntry(t, suite.ledger)
	ref := fx.reference()
	suite.sink.Err = errors.New("queue full")

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewaySuccess(ref, fx.link.PricePerItem), nil).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, suite.webhookClaim(ref))

	require.NoError(t, err)
	assert.Equal(t, application.OutcomeSuccess, result.Outcome)
	assert.True(t, suite.ledger.Entry(fx.entry.ID).Paid)
}

func (suite *ReconcileServiceTestSuite) Test_Reconcile_StoreOutage_ReturnsError() {
	ctx := context.Background()
	t := suite.T()
	fx := seedBulkEntry(t, suite.ledger)
	ref := fx.reference()
	suite.ledger.Fail = errors.New("connection refused")

	suite.mockGateway.EXPECT().
		Verify(mock.Anything, ref).
		Return(gatewaySuccess(ref, fx.link.PricePerItem), nil).
		Once()

	result, err := suite.service.Reconcile(ctx, ref, application.ClientClaim())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, suite.sink.Tasks())
}

// ============================================================================
// STALE PAYMENT TESTS
// ============================================================================

func (suite *ReconcileServiceTestSuite) Test_ResolveStale() {
	ctx := context.Background()

	tests := []struct {
		name          string
		gatewayStatus string
		createdAt     time.Time
		wantOutcome   application.Outcome
		wantStatus    domain.PaymentStatus
	}{
		{"gateway success settles", application.GatewayStatusSuccess, fixedNow.Add(-time.Hour), application.OutcomeSuccess, domain.StatusSuccess},
		{"gateway failure fails payment", application.GatewayStatusFailed, fixedNow.Add(-time.Hour), application.OutcomeFailed, domain.StatusFailed},
		{"reversal fails payment", application.GatewayStatusReversed, fixedNow.Add(-time.Hour), application.OutcomeFailed, domain.StatusFailed},
		{"recent abandon stays pending", application.GatewayStatusAbandoned, fixedNow.Add(-time.Hour), application.OutcomeStillPending, domain.StatusPending},
		{"old abandon fails payment", application.GatewayStatusAbandoned, fixedNow.Add(-48 * time.Hour), application.OutcomeFailed, domain.StatusFailed},
		{"ongoing stays pending", application.GatewayStatusOngoing, fixedNow.Add(-48 * time.Hour), application.OutcomeStillPending, domain.StatusPending},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.SetupTest()
			t := suite.T()
			fx := seedSimplePayment(t, suite.ledger, domain.StatusPending)
			ref := fx.payment.Reference
			fx.payment.CreatedAt = tt.createdAt
			suite.ledger.SeedPayment(fx.payment)

			resp := gatewayStatus(ref, tt.gatewayStatus, fx.payment.Amount)
			suite.mockGateway.EXPECT().Verify(mock.Anything, ref).Return(resp, nil).Once()

			result, err := suite.service.ResolveStale(ctx, ref)

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, result.Outcome)
			assert.Equal(t, tt.wantStatus, suite.ledger.Payment(ref).Status)
		})
	}
}
