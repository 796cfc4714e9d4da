package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnrollmentStatus defines the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
	EnrollmentRefunded  EnrollmentStatus = "refunded"
	EnrollmentSuspended EnrollmentStatus = "suspended"
)

// Enrollment tracks a user's registration in a formation with derived progress.
// At most one non-cancelled enrollment may exist per (user, formation) pair;
// a partial unique index enforces this at the database level.
type Enrollment struct {
	gorm.Model
	UserID             uint             `json:"user_id" gorm:"index;not null"`
	FormationID        uint             `json:"formation_id" gorm:"index;not null"`
	Status             EnrollmentStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	ProgressPercentage int              `json:"progress_percentage" gorm:"default:0"` // 0-100, derived from lesson completions
	EnrolledAt         *time.Time       `json:"enrolled_at"`
	StartedAt          *time.Time       `json:"started_at"`
	CompletedAt        *time.Time       `json:"completed_at"`
	CancelledAt        *time.Time       `json:"cancelled_at"`
	LastAccessedAt     *time.Time       `json:"last_accessed_at"`
	AccessCount        int              `json:"access_count" gorm:"default:0"`
	AmountPaid         float64          `json:"amount_paid" gorm:"default:0"`
	PaymentReference   string           `json:"payment_reference"`
	Metadata           datatypes.JSON   `json:"metadata,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) IsPending() bool {
	return e.Status == EnrollmentPending
}

func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentActive
}

func (e *Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentCompleted
}

// IsTerminal reports whether the enrollment can no longer be cancelled.
func (e *Enrollment) IsTerminal() bool {
	return e.Status == EnrollmentCancelled || e.Status == EnrollmentRefunded
}

// MarkActive transitions the enrollment to active. The activation timestamp is
// set on first activation only and never clobbered afterwards.
func (e *Enrollment) MarkActive(at time.Time) {
	e.Status = EnrollmentActive
	if e.StartedAt == nil {
		e.StartedAt = &at
	}
}

// MarkCompleted transitions the enrollment to completed and clamps progress to 100.
func (e *Enrollment) MarkCompleted(at time.Time) {
	e.Status = EnrollmentCompleted
	e.ProgressPercentage = 100
	e.CompletedAt = &at
}

// MarkCancelled transitions the enrollment to cancelled.
func (e *Enrollment) MarkCancelled(at time.Time) {
	e.Status = EnrollmentCancelled
	e.CancelledAt = &at
}

// RecordAccess bumps the access counter and last-access timestamp.
func (e *Enrollment) RecordAccess(at time.Time) {
	e.LastAccessedAt = &at
	e.AccessCount++
}

// ApplyProgress stores a recomputed progress percentage, clamped to [0,100],
// and completes the enrollment when it reaches 100. Completion through this
// path is the only way an enrollment becomes completed.
func (e *Enrollment) ApplyProgress(percentage int, at time.Time) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	e.ProgressPercentage = percentage
	if e.ProgressPercentage >= 100 && !e.IsCompleted() {
		e.MarkCompleted(at)
	}
}
