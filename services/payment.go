package services

import (
	"errors"
	"fmt"
	"time"

	"lms/models"
	courseModels "lms/models/course"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentService owns the payment lifecycle:
// pending -> processing -> completed -> {refunded | partially_refunded},
// with pending|processing -> failed as the terminal failure branch.
// Every mutation runs under a per-payment row lock so concurrent webhook
// deliveries and user-initiated refunds cannot interleave.
type PaymentService struct {
	DB       *gorm.DB
	Now      func() time.Time
	Provider PaymentProvider
	Currency string
}

func NewPaymentService(db *gorm.DB, provider PaymentProvider, currency string) *PaymentService {
	return &PaymentService{DB: db, Now: time.Now, Provider: provider, Currency: currency}
}

// CheckoutResult pairs the created payment with the provider checkout URL.
type CheckoutResult struct {
	Payment     *models.Payment `json:"payment"`
	CheckoutURL string          `json:"checkout_url"`
}

// CreateForEnrollment creates a pending payment for a formation enrollment and
// opens a provider checkout session for it. Multiple payment attempts for the
// same pair are expected (retries), so no uniqueness applies here.
func (s *PaymentService) CreateForEnrollment(userID, formationID uint, enrollmentID *uint) (*CheckoutResult, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	var formation courseModels.Formation
	if err := s.DB.First(&formation, formationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("formation %d: %w", formationID, ErrNotFound)
		}
		return nil, err
	}

	payment := &models.Payment{
		UserID:       userID,
		EnrollmentID: enrollmentID,
		FormationID:  &formation.ID,
		Type:         models.PaymentTypeEnrollment,
		Status:       models.PaymentPending,
		Reference:    NewPaymentReference(),
		Amount:       formation.Price,
		Currency:     s.Currency,
		Description:  fmt.Sprintf("Enrollment: %s", formation.Title),
	}
	if err := s.DB.Create(payment).Error; err != nil {
		return nil, err
	}

	sessionID, checkoutURL, err := s.Provider.CreateCheckout(payment, &user, &formation)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	payment.StripeCheckoutSessionID = &sessionID
	if err := s.DB.Save(payment).Error; err != nil {
		return nil, err
	}

	return &CheckoutResult{Payment: payment, CheckoutURL: checkoutURL}, nil
}

// CreateDirectInput carries the fields for a payment created without checkout.
type CreateDirectInput struct {
	UserID       uint
	EnrollmentID *uint
	FormationID  *uint
	Type         models.PaymentType
	Amount       float64
	Currency     string
	Description  string
}

// CreateDirect creates a pending payment without opening a checkout session.
func (s *PaymentService) CreateDirect(input CreateDirectInput) (*models.Payment, error) {
	currency := input.Currency
	if currency == "" {
		currency = s.Currency
	}

	payment := &models.Payment{
		UserID:       input.UserID,
		EnrollmentID: input.EnrollmentID,
		FormationID:  input.FormationID,
		Type:         input.Type,
		Status:       models.PaymentPending,
		Reference:    NewPaymentReference(),
		Amount:       input.Amount,
		Currency:     currency,
		Description:  input.Description,
	}
	if err := s.DB.Create(payment).Error; err != nil {
		return nil, err
	}

	return payment, nil
}

// MarkProcessing transitions pending -> processing. Any other source state is
// a guard violation reported to the caller.
func (s *PaymentService) MarkProcessing(paymentID uint) (*models.Payment, error) {
	return s.mutate(paymentID, func(p *models.Payment) error {
		if !p.IsPending() {
			return fmt.Errorf("payment %d is %s, not pending: %w", p.ID, p.Status, ErrInvalidState)
		}
		p.MarkProcessing()
		return nil
	})
}

// MarkCompleted records a successful payment from pending or processing.
// Completing an already-completed payment is a safe no-op that returns the
// record unchanged, so duplicate success events cannot re-apply paid_at.
func (s *PaymentService) MarkCompleted(paymentID uint, paymentMethodType string) (*models.Payment, error) {
	return s.mutate(paymentID, func(p *models.Payment) error {
		if p.IsCompleted() {
			return nil
		}
		if !p.IsPending() && !p.IsProcessing() {
			return fmt.Errorf("payment %d is %s: %w", p.ID, p.Status, ErrInvalidState)
		}
		p.MarkCompleted(paymentMethodType, s.Now())
		return nil
	})
}

// MarkFailed records a failed payment with diagnostic detail. Repeat failure
// events are no-ops.
func (s *PaymentService) MarkFailed(paymentID uint, reason, code string) (*models.Payment, error) {
	return s.mutate(paymentID, func(p *models.Payment) error {
		if p.IsFailed() {
			return nil
		}
		if !p.IsPending() && !p.IsProcessing() {
			return fmt.Errorf("payment %d is %s: %w", p.ID, p.Status, ErrInvalidState)
		}
		p.MarkFailed(reason, code, s.Now())
		return nil
	})
}

// Refund refunds part or all of a completed payment. The provider call happens
// first; local state only changes after the provider confirms, so a provider
// failure leaves the payment untouched. A nil amount refunds the remainder.
func (s *PaymentService) Refund(paymentID uint, amount *float64, reason string) (*models.Payment, error) {
	var result *models.Payment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := lockForUpdate(tx).First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
			}
			return err
		}

		if !payment.CanBeRefunded() {
			return fmt.Errorf("payment %d is %s with %.2f refundable: %w",
				payment.ID, payment.Status, payment.RefundableAmount(), ErrNotRefundable)
		}

		refundAmount := payment.RefundableAmount()
		if amount != nil {
			refundAmount = *amount
		}
		if refundAmount <= 0 {
			return fmt.Errorf("refund amount must be positive: %w", ErrNotRefundable)
		}
		if refundAmount > payment.RefundableAmount() {
			refundAmount = payment.RefundableAmount()
		}

		if _, err := s.Provider.CreateRefund(&payment, refundAmount, reason); err != nil {
			return fmt.Errorf("provider refund: %w", err)
		}

		payment.ApplyRefund(refundAmount, s.Now())
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		result = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ApplyProviderRefundTotal reconciles a provider-reported absolute refunded
// total against local state, applying only the positive delta. Repeated
// delivery of the same refund event is therefore harmless.
func (s *PaymentService) ApplyProviderRefundTotal(paymentID uint, providerTotal float64) (*models.Payment, error) {
	return s.mutate(paymentID, func(p *models.Payment) error {
		delta := providerTotal - p.AmountRefunded
		if delta <= 0 {
			return nil
		}
		p.ApplyRefund(delta, s.Now())
		return nil
	})
}

// FindByPaymentIntent looks a payment up by its provider payment-intent id.
func (s *PaymentService) FindByPaymentIntent(paymentIntentID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.DB.Where("stripe_payment_intent_id = ?", paymentIntentID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("payment intent %s: %w", paymentIntentID, ErrNotFound)
		}
		return nil, err
	}
	return &payment, nil
}

// FindByCheckoutSession looks a payment up by its checkout-session id.
func (s *PaymentService) FindByCheckoutSession(sessionID string) (*models.Payment, error) {
	var payment models.Payment
	err := s.DB.Where("stripe_checkout_session_id = ?", sessionID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("checkout session %s: %w", sessionID, ErrNotFound)
		}
		return nil, err
	}
	return &payment, nil
}

// NewPaymentReference returns an opaque reference for correlating a payment
// with an enrollment record.
func NewPaymentReference() string {
	return uuid.NewString()
}

// mutate runs fn against a row-locked payment inside a transaction and saves
// the result. This is the single-writer serialization point per payment id.
func (s *PaymentService) mutate(paymentID uint, fn func(*models.Payment) error) (*models.Payment, error) {
	var result *models.Payment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := lockForUpdate(tx).First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
			}
			return err
		}

		if err := fn(&payment); err != nil {
			return err
		}

		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		result = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
