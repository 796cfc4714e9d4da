package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	courseModels "lms/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnrollmentService owns the enrollment lifecycle:
// pending -> active -> completed, with cancellation as a side branch.
type EnrollmentService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{DB: db, Now: time.Now}
}

// CreateEnrollmentInput carries optional initial data for a new enrollment.
type CreateEnrollmentInput struct {
	AmountPaid       float64
	PaymentReference string
	Metadata         datatypes.JSON
}

// Create enrolls a user in a formation. At most one non-cancelled enrollment
// may exist per (user, formation) pair; concurrent creation is closed off by
// a partial unique index, so two racing requests cannot both succeed.
func (s *EnrollmentService) Create(userID, formationID uint, input CreateEnrollmentInput) (*courseModels.Enrollment, error) {
	var formation courseModels.Formation
	if err := s.DB.First(&formation, formationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("formation %d: %w", formationID, ErrNotFound)
		}
		return nil, err
	}

	now := s.Now()
	enrollment := &courseModels.Enrollment{
		UserID:             userID,
		FormationID:        formationID,
		Status:             courseModels.EnrollmentPending,
		ProgressPercentage: 0,
		EnrolledAt:         &now,
		AccessCount:        0,
		AmountPaid:         input.AmountPaid,
		PaymentReference:   input.PaymentReference,
		Metadata:           input.Metadata,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing courseModels.Enrollment
		err := tx.Where("user_id = ? AND formation_id = ? AND status <> ?",
			userID, formationID, courseModels.EnrollmentCancelled).
			First(&existing).Error
		if err == nil {
			return fmt.Errorf("user %d already enrolled in formation %d: %w", userID, formationID, ErrConflict)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(enrollment).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("user %d already enrolled in formation %d: %w", userID, formationID, ErrConflict)
			}
			return err
		}

		// Keep the formation's denormalized counter in the same transaction.
		return tx.Model(&courseModels.Formation{}).
			Where("id = ?", formationID).
			UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return enrollment, nil
}

// Validate activates a pending enrollment. Activation requires the formation
// to be free (free tier or zero price) or the enrollment to be paid for.
func (s *EnrollmentService) Validate(enrollmentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := s.DB.First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}

	if !enrollment.IsPending() {
		return nil, fmt.Errorf("enrollment %d is %s, not pending: %w", enrollmentID, enrollment.Status, ErrInvalidState)
	}

	var formation courseModels.Formation
	if err := s.DB.First(&formation, enrollment.FormationID).Error; err != nil {
		return nil, err
	}

	if !formation.IsFree() && enrollment.AmountPaid <= 0 {
		return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrPaymentRequired)
	}

	enrollment.MarkActive(s.Now())
	if err := s.DB.Save(&enrollment).Error; err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// RecordAccess updates the enrollment's access bookkeeping. No state gating.
func (s *EnrollmentService) RecordAccess(enrollmentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := s.DB.First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}

	enrollment.RecordAccess(s.Now())
	if err := s.DB.Save(&enrollment).Error; err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// RefreshProgress recomputes the enrollment's progress percentage from its
// lesson completions. Reaching 100 completes the enrollment; this is the sole
// path to the completed status.
func (s *EnrollmentService) RefreshProgress(enrollmentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := s.DB.First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}

	percentage, err := s.calculateProgress(&enrollment)
	if err != nil {
		return nil, err
	}

	enrollment.ApplyProgress(percentage, s.Now())
	if err := s.DB.Save(&enrollment).Error; err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// Cancel cancels an enrollment from any non-terminal state, freeing the
// (user, formation) pair for a new enrollment.
func (s *EnrollmentService) Cancel(enrollmentID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := s.DB.First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}

	if enrollment.IsTerminal() {
		return nil, fmt.Errorf("enrollment %d is already %s: %w", enrollmentID, enrollment.Status, ErrInvalidState)
	}

	enrollment.MarkCancelled(s.Now())
	if err := s.DB.Save(&enrollment).Error; err != nil {
		return nil, err
	}

	return &enrollment, nil
}

// calculateProgress returns round(100 * completedLessons / totalLessons),
// or 0 for a formation with no lessons.
func (s *EnrollmentService) calculateProgress(enrollment *courseModels.Enrollment) (int, error) {
	var totalLessons int64
	if err := s.DB.Model(&courseModels.Lesson{}).
		Where("formation_id = ?", enrollment.FormationID).
		Count(&totalLessons).Error; err != nil {
		return 0, err
	}
	if totalLessons == 0 {
		return 0, nil
	}

	var completedLessons int64
	if err := s.DB.Model(&courseModels.LessonProgress{}).
		Where("enrollment_id = ? AND status = ?", enrollment.ID, courseModels.LessonCompleted).
		Count(&completedLessons).Error; err != nil {
		return 0, err
	}

	return int(math.Round(float64(completedLessons) / float64(totalLessons) * 100)), nil
}
