package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"lms/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(t *testing.T, payload []byte, timestamp string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(payload)
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	service := &StripeService{webhookSecret: testWebhookSecret}
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)

	assert.True(t, service.VerifyWebhookSignature(payload, signPayload(t, payload, "1700000000")))
	assert.False(t, service.VerifyWebhookSignature(payload, "t=1700000000,v1=deadbeef"))
	assert.False(t, service.VerifyWebhookSignature(payload, ""))
	assert.False(t, service.VerifyWebhookSignature(payload, "v1=deadbeef"))

	// Tampered payload fails
	header := signPayload(t, payload, "1700000000")
	assert.False(t, service.VerifyWebhookSignature([]byte(`{"id":"evt_2"}`), header))
}

func TestParseWebhookEventPaymentIntent(t *testing.T) {
	service := &StripeService{webhookSecret: testWebhookSecret}
	payload := []byte(`{
		"id": "evt_1",
		"type": "payment_intent.payment_failed",
		"data": {"object": {
			"id": "pi_123",
			"payment_method_types": ["card"],
			"last_payment_error": {"message": "Your card was declined", "code": "card_declined"}
		}}
	}`)

	event, err := service.ParseWebhookEvent(payload, signPayload(t, payload, "1700000000"))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, services.EventPaymentIntentFailed, event.Type)
	assert.Equal(t, "pi_123", event.PaymentIntentID)
	assert.Equal(t, "card", event.PaymentMethodType)
	assert.Equal(t, "Your card was declined", event.FailureMessage)
	assert.Equal(t, "card_declined", event.FailureCode)
}

func TestParseWebhookEventCheckoutSession(t *testing.T) {
	service := &StripeService{webhookSecret: testWebhookSecret}
	payload := []byte(`{
		"id": "evt_2",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_456", "payment_intent": "pi_123"}}
	}`)

	event, err := service.ParseWebhookEvent(payload, signPayload(t, payload, "1700000000"))
	require.NoError(t, err)
	assert.Equal(t, "cs_456", event.CheckoutSessionID)
	assert.Equal(t, "pi_123", event.PaymentIntentID)
}

func TestParseWebhookEventChargeRefunded(t *testing.T) {
	service := &StripeService{webhookSecret: testWebhookSecret}
	payload := []byte(`{
		"id": "evt_3",
		"type": "charge.refunded",
		"data": {"object": {"id": "ch_789", "payment_intent": "pi_123", "amount_refunded": 4000}}
	}`)

	event, err := service.ParseWebhookEvent(payload, signPayload(t, payload, "1700000000"))
	require.NoError(t, err)
	assert.Equal(t, "pi_123", event.PaymentIntentID)
	// Minor units on the wire, major units in the domain
	assert.Equal(t, 40.00, event.AmountRefunded)
}

func TestParseWebhookEventRejectsBadSignature(t *testing.T) {
	service := &StripeService{webhookSecret: testWebhookSecret}
	payload := []byte(`{"id":"evt_4","type":"payment_intent.succeeded"}`)

	_, err := service.ParseWebhookEvent(payload, "t=1700000000,v1=deadbeef")
	assert.Error(t, err)
}
