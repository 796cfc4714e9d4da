package services

import (
	"errors"
	"strings"

	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentProvider is the narrow capability interface consumed from the
// payment processor. The concrete Stripe client lives in utils.
type PaymentProvider interface {
	// CreateCheckout opens a provider-hosted checkout flow for the payment and
	// returns the session id and the URL the customer is redirected to.
	CreateCheckout(payment *models.Payment, user *models.User, formation *courseModels.Formation) (sessionID, checkoutURL string, err error)
	// CreateRefund issues a refund on the provider side. Local state must only
	// change after this returns successfully.
	CreateRefund(payment *models.Payment, amount float64, reason string) (*ProviderRefund, error)
}

// ProviderRefund is the provider's record of an issued refund.
type ProviderRefund struct {
	ID     string
	Amount float64
	Status string
}

// CertificateRenderer produces and removes certificate artifacts.
type CertificateRenderer interface {
	Render(cert *courseModels.Certificate) (path string, sizeBytes int64, err error)
	Delete(cert *courseModels.Certificate) error
}

// lockForUpdate applies a row-level write lock where the dialect supports it.
// The sqlite test database serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// isDuplicateKey reports whether err is a unique-constraint violation.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
