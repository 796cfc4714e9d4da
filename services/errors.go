package services

import "errors"

// Engine error taxonomy. Controllers map these onto HTTP statuses with
// errors.Is; the webhook reconciler downgrades ErrNotFound to a logged
// acknowledgment so the provider does not retry forever.
var (
	ErrConflict             = errors.New("duplicate enrollment")
	ErrInvalidState         = errors.New("operation not valid for current status")
	ErrPaymentRequired      = errors.New("payment required")
	ErrNotEligible          = errors.New("enrollment not eligible for certificate")
	ErrAlreadyRevoked       = errors.New("certificate already revoked")
	ErrNotRefundable        = errors.New("payment not refundable")
	ErrCrossCourseReference = errors.New("lesson does not belong to the enrolled formation")
	ErrNotFound             = errors.New("record not found")
)
