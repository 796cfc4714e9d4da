package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"lms/config"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services"

	"github.com/go-resty/resty/v2"
)

// StripeService talks to the Stripe REST API. It implements
// services.PaymentProvider and parses/verifies webhook deliveries.
type StripeService struct {
	client        *resty.Client
	apiURL        string
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeService() *StripeService {
	return &StripeService{
		client:        resty.New(),
		apiURL:        config.AppConfig.StripeApiURL,
		secretKey:     config.AppConfig.StripeSecretKey,
		webhookSecret: config.AppConfig.StripeWebhookSecret,
		successURL:    config.AppConfig.CheckoutSuccessURL,
		cancelURL:     config.AppConfig.CheckoutCancelURL,
	}
}

// CreateCheckout opens a hosted checkout session for the payment and returns
// the session id plus the redirect URL.
func (s *StripeService) CreateCheckout(payment *models.Payment, user *models.User, formation *courseModels.Formation) (string, string, error) {
	amountCents := strconv.FormatInt(int64(math.Round(payment.Amount*100)), 10)

	resp, err := s.client.R().
		SetBasicAuth(s.secretKey, "").
		SetFormData(map[string]string{
			"mode":                                           "payment",
			"success_url":                                    s.successURL,
			"cancel_url":                                     s.cancelURL,
			"customer_email":                                 user.Email,
			"line_items[0][quantity]":                        "1",
			"line_items[0][price_data][currency]":            strings.ToLower(payment.Currency),
			"line_items[0][price_data][unit_amount]":         amountCents,
			"line_items[0][price_data][product_data][name]":  formation.Title,
			"metadata[payment_id]":                           strconv.FormatUint(uint64(payment.ID), 10),
			"payment_intent_data[metadata][payment_id]":      strconv.FormatUint(uint64(payment.ID), 10),
		}).
		Post(s.apiURL + "/checkout/sessions")
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode() != 200 {
		return "", "", fmt.Errorf("stripe checkout session failed: %s", resp.String())
	}

	var session struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return "", "", fmt.Errorf("invalid checkout session response: %w", err)
	}

	log.Printf("[STRIPE] Checkout session %s created for payment %d", session.ID, payment.ID)
	return session.ID, session.URL, nil
}

// CreateRefund issues a refund against the payment's intent.
func (s *StripeService) CreateRefund(payment *models.Payment, amount float64, reason string) (*services.ProviderRefund, error) {
	if payment.StripePaymentIntentID == nil {
		return nil, fmt.Errorf("payment %d has no payment intent to refund", payment.ID)
	}

	form := map[string]string{
		"payment_intent": *payment.StripePaymentIntentID,
		"amount":         strconv.FormatInt(int64(math.Round(amount*100)), 10),
	}
	if reason != "" {
		form["reason"] = reason
	}

	resp, err := s.client.R().
		SetBasicAuth(s.secretKey, "").
		SetFormData(form).
		Post(s.apiURL + "/refunds")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("stripe refund failed: %s", resp.String())
	}

	var refund struct {
		ID     string `json:"id"`
		Amount int64  `json:"amount"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &refund); err != nil {
		return nil, fmt.Errorf("invalid refund response: %w", err)
	}

	log.Printf("[STRIPE] Refund %s (%s) created for payment %d", refund.ID, refund.Status, payment.ID)
	return &services.ProviderRefund{
		ID:     refund.ID,
		Amount: float64(refund.Amount) / 100,
		Status: refund.Status,
	}, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the raw
// payload. The v1 scheme is HMAC-SHA256 over "<timestamp>.<payload>".
func (s *StripeService) VerifyWebhookSignature(payload []byte, sigHeader string) bool {
	timestamp, signatures := parseSignatureHeader(sigHeader)
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return true
		}
	}
	return false
}

// ParseWebhookEvent verifies the signature and maps the delivery onto the
// reconciler's provider-agnostic event shape.
func (s *StripeService) ParseWebhookEvent(payload []byte, sigHeader string) (*services.ProviderEvent, error) {
	if !s.VerifyWebhookSignature(payload, sigHeader) {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID                 string   `json:"id"`
				PaymentIntent      string   `json:"payment_intent"`
				PaymentMethodTypes []string `json:"payment_method_types"`
				AmountRefunded     int64    `json:"amount_refunded"`
				LastPaymentError   *struct {
					Message string `json:"message"`
					Code    string `json:"code"`
				} `json:"last_payment_error"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	event := &services.ProviderEvent{
		ID:   raw.ID,
		Type: raw.Type,
	}

	obj := raw.Data.Object
	switch {
	case strings.HasPrefix(raw.Type, "payment_intent."):
		event.PaymentIntentID = obj.ID
		if len(obj.PaymentMethodTypes) > 0 {
			event.PaymentMethodType = obj.PaymentMethodTypes[0]
		}
		if obj.LastPaymentError != nil {
			event.FailureMessage = obj.LastPaymentError.Message
			event.FailureCode = obj.LastPaymentError.Code
		}
	case strings.HasPrefix(raw.Type, "checkout.session."):
		event.CheckoutSessionID = obj.ID
		event.PaymentIntentID = obj.PaymentIntent
	case strings.HasPrefix(raw.Type, "charge."):
		event.PaymentIntentID = obj.PaymentIntent
		event.AmountRefunded = float64(obj.AmountRefunded) / 100
	}

	return event, nil
}

// parseSignatureHeader splits "t=...,v1=...,v1=..." into its parts.
func parseSignatureHeader(header string) (timestamp string, signatures []string) {
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	return timestamp, signatures
}
