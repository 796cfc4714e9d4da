package services

import (
	"errors"
	"testing"

	"lms/models"
	courseModels "lms/models/course"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentCheckoutFlow(t *testing.T) {
	db := newTestDB(t)
	provider := &stubProvider{}
	service := newPaymentService(db, provider)
	user := createUser(t, db)
	formation := createFormation(t, db, 59.00, courseModels.PricingTierStandard)

	result, err := service.CreateForEnrollment(user.ID, formation.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, result.Payment.Status)
	assert.Equal(t, 59.00, result.Payment.Amount)
	require.NotNil(t, result.Payment.StripeCheckoutSessionID)
	assert.Contains(t, result.CheckoutURL, *result.Payment.StripeCheckoutSessionID)
}

func TestPaymentCheckoutProviderFailure(t *testing.T) {
	db := newTestDB(t)
	provider := &stubProvider{checkoutErr: errors.New("provider down")}
	service := newPaymentService(db, provider)
	user := createUser(t, db)
	formation := createFormation(t, db, 59.00, courseModels.PricingTierStandard)

	_, err := service.CreateForEnrollment(user.ID, formation.ID, nil)
	assert.Error(t, err)
}

func TestPaymentReferenceAssignedOnCreation(t *testing.T) {
	db := newTestDB(t)
	service := newPaymentService(db, &stubProvider{})
	user := createUser(t, db)
	formation := createFormation(t, db, 59.00, courseModels.PricingTierStandard)

	first, err := service.CreateForEnrollment(user.ID, formation.ID, nil)
	require.NoError(t, err)
	_, parseErr := uuid.Parse(first.Payment.Reference)
	assert.NoError(t, parseErr)

	direct, err := service.CreateDirect(CreateDirectInput{
		UserID: user.ID,
		Type:   models.PaymentTypeRenewal,
		Amount: 19.00,
	})
	require.NoError(t, err)
	_, parseErr = uuid.Parse(direct.Reference)
	assert.NoError(t, parseErr)

	assert.NotEqual(t, first.Payment.Reference, direct.Reference)
}

func TestPaymentLifecycleGuards(t *testing.T) {
	db := newTestDB(t)
	service := newPaymentService(db, &stubProvider{})
	user := createUser(t, db)
	payment := createPayment(t, db, user.ID, 59.00, models.PaymentPending, "pi_guard_1")

	processing, err := service.MarkProcessing(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentProcessing, processing.Status)

	// processing -> processing is a guard violation
	_, err = service.MarkProcessing(payment.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	completed, err := service.MarkCompleted(payment.ID, "card")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, completed.Status)
	assert.Equal(t, "card", completed.PaymentMethodType)
	require.NotNil(t, completed.PaidAt)

	// Completed payments cannot fail
	_, err = service.MarkFailed(payment.ID, "too late", "card_declined")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPaymentMarkCompletedIdempotent(t *testing.T) {
	db := newTestDB(t)
	service := newPaymentService(db, &stubProvider{})
	user := createUser(t, db)
	payment := createPayment(t, db, user.ID, 59.00, models.PaymentPending, "pi_idem_1")

	first, err := service.MarkCompleted(payment.ID, "card")
	require.NoError(t, err)
	require.NotNil(t, first.PaidAt)
	paidAt := *first.PaidAt

	second, err := service.MarkCompleted(payment.ID, "sepa_debit")
	require.NoError(t, err)
	require.NotNil(t, second.PaidAt)
	assert.Equal(t, paidAt, *second.PaidAt)
	// The original method type stays
	assert.Equal(t, "card", second.PaymentMethodType)
}

func TestPaymentMarkFailedRecordsDetail(t *testing.T) {
	db := newTestDB(t)
	service := newPaymentService(db, &stubProvider{})
	user := createUser(t, db)
	payment := createPayment(t, db, user.ID, 59.00, models.PaymentPending, "pi_fail_1")

	failed, err := service.MarkFailed(payment.ID, "Your card was declined", "card_declined")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, failed.Status)
	assert.Equal(t, "Your card was declined", failed.FailureReason)
	assert.Equal(t, "card_declined", failed.FailureCode)
	require.NotNil(t, failed.FailedAt)

	// Repeat failure events are no-ops
	again, err := service.MarkFailed(payment.ID, "other", "other")
	require.NoError(t, err)
	assert.Equal(t, "Your card was declined", again.FailureReason)
}

func TestPaymentPartialThenFullRefund(t *testing.T) {
	db := newTestDB(t)
	provider := &stubProvider{}
	service := newPaymentService(db, provider)
	user := createUser(t, db)
	payment := createPayment(t, db, user.ID, 100.00, models.PaymentCompleted, "pi_refund_1")

	amount := 40.00
	partially, err := service.Refund(payment.ID, &amount, "requested_by_customer")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartiallyRefunded, partially.Status)
	assert.Equal(t, 40.00, partially.AmountRefunded)
	assert.Equal(t, 60.00, partially.RefundableAmount())

	// nil amount refunds the remainder
	fully, err := service.Refund(payment.ID, nil, "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, fully.Status)
	assert.Equal(t, 100.00, fully.AmountRefunded)

	_, err = service.Refund(payment.ID, nil, "")
	assert.ErrorIs(t, err, ErrNotRefundable)

	assert.Equal(t, []float64{40.00, 60.00}, provider.refunds)
}

func TestPaymentRefundProviderFailureLeavesState(t *testing.T) {
	db := newTestDB(t)
	provider := &stubProvider{refundErr: errors.New("provider down")}
	service := newPaymentService(db, provider)
	user := createUser(t, db)
	payment := createPayment(t, db, user.ID, 100.00, models.PaymentCompleted, "pi_refund_2")

	_, err := service.Refund(payment.ID, nil, "")
	require.Error(t, err)

	var reloaded models.Payment
	require.NoError(t, db.First(&reloaded, payment.ID).Error)
	assert.Equal(t, models.PaymentCompleted, reloaded.Status)
	assert.Equal(t, 0.00, reloaded.AmountRefunded)
}

func TestPaymentRefundPendingRejected(t *testing.T) {
	db := newTestDB(t)
	service := newPaymentService(db, &stubProvider{})
	user := createUser(t, db)
	payment := createPayment(t, db, user.ID, 100.00, models.PaymentPending, "pi_refund_3")

	_, err := service.Refund(payment.ID, nil, "")
	assert.ErrorIs(t, err, ErrNotRefundable)
}

func TestPaymentApplyProviderRefundTotalDelta(t *testing.T) {
	db := newTestDB(t)
	service := newPaymentService(db, &stubProvider{})
	user := createUser(t, db)
	payment := createPayment(t, db, user.ID, 100.00, models.PaymentCompleted, "pi_refund_4")

	updated, err := service.ApplyProviderRefundTotal(payment.ID, 30.00)
	require.NoError(t, err)
	assert.Equal(t, 30.00, updated.AmountRefunded)
	assert.Equal(t, models.PaymentPartiallyRefunded, updated.Status)

	// Same total again applies nothing
	updated, err = service.ApplyProviderRefundTotal(payment.ID, 30.00)
	require.NoError(t, err)
	assert.Equal(t, 30.00, updated.AmountRefunded)

	// A higher total applies only the difference
	updated, err = service.ApplyProviderRefundTotal(payment.ID, 100.00)
	require.NoError(t, err)
	assert.Equal(t, 100.00, updated.AmountRefunded)
	assert.Equal(t, models.PaymentRefunded, updated.Status)
}

func TestPaymentFindByProviderIDs(t *testing.T) {
	db := newTestDB(t)
	service := newPaymentService(db, &stubProvider{})
	user := createUser(t, db)
	payment := createPayment(t, db, user.ID, 100.00, models.PaymentPending, "pi_find_1")

	sessionID := "cs_find_1"
	require.NoError(t, db.Model(payment).Update("stripe_checkout_session_id", &sessionID).Error)

	byIntent, err := service.FindByPaymentIntent("pi_find_1")
	require.NoError(t, err)
	assert.Equal(t, payment.ID, byIntent.ID)

	bySession, err := service.FindByCheckoutSession("cs_find_1")
	require.NoError(t, err)
	assert.Equal(t, payment.ID, bySession.ID)

	_, err = service.FindByPaymentIntent("pi_unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}
