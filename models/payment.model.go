package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentType defines what a payment pays for
type PaymentType string

const (
	PaymentTypeEnrollment   PaymentType = "enrollment"
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeRenewal      PaymentType = "renewal"
)

// PaymentStatus defines the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Payment represents one attempted or completed monetary transaction.
// Provider correlation ids are nullable and unique when present.
type Payment struct {
	gorm.Model
	UserID                  uint           `json:"user_id" gorm:"index;not null"`
	EnrollmentID            *uint          `json:"enrollment_id" gorm:"index"`
	FormationID             *uint          `json:"formation_id" gorm:"index"`
	Type                    PaymentType    `json:"type" gorm:"type:varchar(20);default:'enrollment'"`
	Status                  PaymentStatus  `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Reference               string         `json:"reference" gorm:"type:varchar(36);uniqueIndex"` // opaque internal correlation id
	StripePaymentIntentID   *string        `json:"stripe_payment_intent_id" gorm:"uniqueIndex"`
	StripeCheckoutSessionID *string        `json:"stripe_checkout_session_id" gorm:"uniqueIndex"`
	Amount                  float64        `json:"amount" gorm:"not null"`
	AmountRefunded          float64        `json:"amount_refunded" gorm:"default:0"` // never exceeds Amount
	Currency                string         `json:"currency" gorm:"type:varchar(3);default:'EUR'"`
	PaymentMethodType       string         `json:"payment_method_type"`
	Description             string         `json:"description"`
	FailureReason           string         `json:"failure_reason"`
	FailureCode             string         `json:"failure_code"`
	Metadata                datatypes.JSON `json:"metadata,omitempty"`
	PaidAt                  *time.Time     `json:"paid_at"`
	RefundedAt              *time.Time     `json:"refunded_at"`
	FailedAt                *time.Time     `json:"failed_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) IsPending() bool {
	return p.Status == PaymentPending
}

func (p *Payment) IsProcessing() bool {
	return p.Status == PaymentProcessing
}

func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentCompleted
}

func (p *Payment) IsFailed() bool {
	return p.Status == PaymentFailed
}

// RefundableAmount returns the remainder that can still be refunded.
func (p *Payment) RefundableAmount() float64 {
	if r := p.Amount - p.AmountRefunded; r > 0 {
		return r
	}
	return 0
}

// CanBeRefunded reports whether a refund may be attempted against this payment.
func (p *Payment) CanBeRefunded() bool {
	if p.Status != PaymentCompleted && p.Status != PaymentPartiallyRefunded {
		return false
	}
	return p.RefundableAmount() > 0
}

// MarkProcessing transitions pending -> processing.
func (p *Payment) MarkProcessing() {
	p.Status = PaymentProcessing
}

// MarkCompleted records a successful payment.
func (p *Payment) MarkCompleted(paymentMethodType string, at time.Time) {
	p.Status = PaymentCompleted
	p.PaidAt = &at
	p.PaymentMethodType = paymentMethodType
}

// MarkFailed records a failed payment with diagnostic detail.
func (p *Payment) MarkFailed(reason, code string, at time.Time) {
	p.Status = PaymentFailed
	p.FailedAt = &at
	p.FailureReason = reason
	p.FailureCode = code
}

// ApplyRefund adds a refund delta to the running total, clamped so the total
// never exceeds the paid amount, and derives the resulting status from it.
func (p *Payment) ApplyRefund(delta float64, at time.Time) {
	p.AmountRefunded += delta
	if p.AmountRefunded > p.Amount {
		p.AmountRefunded = p.Amount
	}
	if p.AmountRefunded < 0 {
		p.AmountRefunded = 0
	}

	if p.AmountRefunded >= p.Amount {
		p.Status = PaymentRefunded
	} else {
		p.Status = PaymentPartiallyRefunded
	}
	p.RefundedAt = &at
}
