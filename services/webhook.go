package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// Provider event types handled by the reconciler.
const (
	EventPaymentIntentSucceeded  = "payment_intent.succeeded"
	EventPaymentIntentFailed     = "payment_intent.payment_failed"
	EventPaymentIntentCapturable = "payment_intent.amount_capturable_updated"
	EventCheckoutSessionComplete = "checkout.session.completed"
	EventChargeRefunded          = "charge.refunded"
	EventChargeRefundUpdated     = "charge.refund.updated"
)

// ProviderEvent is the provider-agnostic view of one webhook delivery.
type ProviderEvent struct {
	ID                string
	Type              string
	PaymentIntentID   string
	CheckoutSessionID string
	PaymentMethodType string
	AmountRefunded    float64 // absolute total-to-date, major units
	FailureMessage    string
	FailureCode       string
}

// WebhookService translates provider-pushed events into payment state machine
// calls. Handlers are idempotent and tolerant of duplicate, out-of-order, and
// unmatched deliveries: events referencing unknown payments are acknowledged
// and journaled, never retried forever by the provider.
type WebhookService struct {
	DB       *gorm.DB
	Now      func() time.Time
	Payments *PaymentService
}

func NewWebhookService(db *gorm.DB, payments *PaymentService) *WebhookService {
	return &WebhookService{DB: db, Now: time.Now, Payments: payments}
}

// HandleEvent journals and dispatches one provider event. The returned error
// is infrastructural only (the caller answers non-2xx so the provider
// retries); all domain outcomes acknowledge the delivery.
func (s *WebhookService) HandleEvent(event ProviderEvent) error {
	journal, fresh, err := s.journal(event)
	if err != nil {
		return err
	}
	if !fresh {
		log.Printf("[WEBHOOK] Duplicate delivery of event %s (%s), ignoring", event.ID, event.Type)
		return nil
	}

	outcome, detail, err := s.dispatch(event)
	if err != nil {
		s.closeJournal(journal, models.WebhookErrored, err.Error())
		return err
	}

	s.closeJournal(journal, outcome, detail)
	return nil
}

func (s *WebhookService) dispatch(event ProviderEvent) (models.WebhookOutcome, string, error) {
	switch event.Type {
	case EventPaymentIntentSucceeded:
		return s.handleIntentSucceeded(event)
	case EventPaymentIntentFailed:
		return s.handleIntentFailed(event)
	case EventPaymentIntentCapturable:
		return s.handleIntentCapturable(event)
	case EventCheckoutSessionComplete:
		return s.handleCheckoutCompleted(event)
	case EventChargeRefunded:
		return s.handleChargeRefunded(event)
	case EventChargeRefundUpdated:
		// Status tracking only; the economic effect is applied by charge.refunded.
		return models.WebhookSkipped, "refund status tracking event", nil
	default:
		log.Printf("[WEBHOOK] Unrecognized event type %s, acknowledged", event.Type)
		return models.WebhookSkipped, "unrecognized event type", nil
	}
}

func (s *WebhookService) handleIntentSucceeded(event ProviderEvent) (models.WebhookOutcome, string, error) {
	payment, err := s.Payments.FindByPaymentIntent(event.PaymentIntentID)
	if err != nil {
		return s.notFound(err, "payment intent "+event.PaymentIntentID)
	}

	if payment.IsCompleted() {
		return models.WebhookSkipped, "payment already completed", nil
	}

	// Out-of-order delivery: a refund event for the same intent may land
	// first. The payment is economically settled, so the late success event
	// is acknowledged, not treated as a guard violation.
	if !payment.IsPending() && !payment.IsProcessing() {
		return models.WebhookSkipped, fmt.Sprintf("payment already settled as %s", payment.Status), nil
	}

	payment, err = s.Payments.MarkCompleted(payment.ID, event.PaymentMethodType)
	if err != nil {
		return "", "", err
	}

	// Explicit ordered side effect: record what was paid on the linked pending
	// enrollment. Activation stays a separate step.
	if err := s.recordEnrollmentPayment(payment, event.PaymentIntentID); err != nil {
		return "", "", err
	}

	return models.WebhookProcessed, "payment completed", nil
}

func (s *WebhookService) handleIntentFailed(event ProviderEvent) (models.WebhookOutcome, string, error) {
	payment, err := s.Payments.FindByPaymentIntent(event.PaymentIntentID)
	if err != nil {
		return s.notFound(err, "payment intent "+event.PaymentIntentID)
	}

	if payment.IsFailed() {
		return models.WebhookSkipped, "payment already failed", nil
	}

	// A failure event arriving after the payment settled is stale.
	if !payment.IsPending() && !payment.IsProcessing() {
		return models.WebhookSkipped, fmt.Sprintf("payment is %s, stale failure ignored", payment.Status), nil
	}

	reason := event.FailureMessage
	if reason == "" {
		reason = "Payment failed"
	}
	if _, err := s.Payments.MarkFailed(payment.ID, reason, event.FailureCode); err != nil {
		return "", "", err
	}

	return models.WebhookProcessed, "payment failed", nil
}

func (s *WebhookService) handleIntentCapturable(event ProviderEvent) (models.WebhookOutcome, string, error) {
	payment, err := s.Payments.FindByPaymentIntent(event.PaymentIntentID)
	if err != nil {
		return s.notFound(err, "payment intent "+event.PaymentIntentID)
	}

	// Pre-capture signal, not a completion.
	if !payment.IsPending() {
		return models.WebhookSkipped, fmt.Sprintf("payment is %s, not pending", payment.Status), nil
	}

	if _, err := s.Payments.MarkProcessing(payment.ID); err != nil {
		return "", "", err
	}

	return models.WebhookProcessed, "payment processing", nil
}

func (s *WebhookService) handleCheckoutCompleted(event ProviderEvent) (models.WebhookOutcome, string, error) {
	payment, err := s.Payments.FindByCheckoutSession(event.CheckoutSessionID)
	if err != nil {
		return s.notFound(err, "checkout session "+event.CheckoutSessionID)
	}

	// Backfill the payment-intent correlation if the session carried it. The
	// economic completion is driven by payment_intent.succeeded so that two
	// events describing the same fact cannot double-book it.
	if payment.StripePaymentIntentID == nil && event.PaymentIntentID != "" {
		intentID := event.PaymentIntentID
		err := s.DB.Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Update("stripe_payment_intent_id", &intentID).Error
		if err != nil {
			return "", "", err
		}
		return models.WebhookProcessed, "payment intent backfilled", nil
	}

	return models.WebhookSkipped, "checkout confirmed, no backfill needed", nil
}

func (s *WebhookService) handleChargeRefunded(event ProviderEvent) (models.WebhookOutcome, string, error) {
	payment, err := s.Payments.FindByPaymentIntent(event.PaymentIntentID)
	if err != nil {
		return s.notFound(err, "payment intent "+event.PaymentIntentID)
	}

	// The event carries the absolute refunded total; only the delta against
	// local bookkeeping is applied, so redelivery cannot re-add it.
	if _, err := s.Payments.ApplyProviderRefundTotal(payment.ID, event.AmountRefunded); err != nil {
		return "", "", err
	}

	return models.WebhookProcessed, "refund reconciled", nil
}

// recordEnrollmentPayment stores the paid amount and reference on the linked
// pending enrollment without driving its state machine.
func (s *WebhookService) recordEnrollmentPayment(payment *models.Payment, reference string) error {
	if payment.EnrollmentID == nil {
		return nil
	}

	var enrollment courseModels.Enrollment
	if err := s.DB.First(&enrollment, *payment.EnrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[WEBHOOK] Enrollment %d linked to payment %d not found", *payment.EnrollmentID, payment.ID)
			return nil
		}
		return err
	}

	if !enrollment.IsPending() {
		return nil
	}

	enrollment.AmountPaid = payment.Amount
	enrollment.PaymentReference = reference
	return s.DB.Save(&enrollment).Error
}

// notFound converts a missing local match into an acknowledged, journaled
// outcome. Anything else propagates.
func (s *WebhookService) notFound(err error, what string) (models.WebhookOutcome, string, error) {
	if errors.Is(err, ErrNotFound) {
		log.Printf("[WEBHOOK] No local payment for %s, acknowledged", what)
		return models.WebhookSkipped, "no local payment for " + what, nil
	}
	return "", "", err
}

// journal records the delivery. A duplicate provider event id reports
// fresh=false so the handler body runs at most once per event, with one
// exception: an earlier delivery that errored never finished its side
// effects, so its retry runs the handlers (they are idempotent) and the
// existing journal row is updated in place.
func (s *WebhookService) journal(event ProviderEvent) (*models.WebhookEvent, bool, error) {
	record := &models.WebhookEvent{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       event.Type,
	}
	if err := s.DB.Create(record).Error; err != nil {
		if isDuplicateKey(err) {
			var existing models.WebhookEvent
			lookupErr := s.DB.Where("provider = ? AND provider_event_id = ?", "stripe", event.ID).
				First(&existing).Error
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if existing.Outcome == models.WebhookErrored {
				return &existing, true, nil
			}
			return nil, false, nil
		}
		return nil, false, err
	}
	return record, true, nil
}

func (s *WebhookService) closeJournal(record *models.WebhookEvent, outcome models.WebhookOutcome, detail string) {
	now := s.Now()
	record.Outcome = outcome
	record.Detail = detail
	record.ProcessedAt = &now
	if err := s.DB.Save(record).Error; err != nil {
		log.Printf("[WEBHOOK] Failed to update event journal %s: %v", record.ProviderEventID, err)
	}
}
