package services

import (
	"errors"
	"fmt"
	"time"

	courseModels "lms/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressService owns per-lesson completion and progress records for an
// enrollment. Rows are created lazily on first touch; every operation first
// verifies the lesson belongs to the enrolled formation.
type ProgressService struct {
	DB          *gorm.DB
	Now         func() time.Time
	Enrollments *EnrollmentService
}

func NewProgressService(db *gorm.DB, enrollments *EnrollmentService) *ProgressService {
	return &ProgressService{DB: db, Now: time.Now, Enrollments: enrollments}
}

// Start registers an access to a lesson, transitioning a fresh record to
// in_progress and bumping the enrollment's access bookkeeping.
func (s *ProgressService) Start(enrollmentID, lessonID uint, position *int) (*courseModels.LessonProgress, error) {
	enrollment, _, err := s.guardPair(enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}

	progress, err := s.getOrCreate(enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	progress.RecordAccess(position, now)
	if err := s.DB.Save(progress).Error; err != nil {
		return nil, err
	}

	enrollment.RecordAccess(now)
	if err := s.DB.Save(enrollment).Error; err != nil {
		return nil, err
	}

	return progress, nil
}

// UpdateProgressInput carries a progress update for one lesson.
type UpdateProgressInput struct {
	ProgressPercentage int
	CurrentPosition    *int
	TimeSpentSeconds   *int
}

// UpdateProgress applies a clamped progress percentage, accumulates optional
// watch time, and recomputes the owning enrollment's aggregate progress.
func (s *ProgressService) UpdateProgress(enrollmentID, lessonID uint, input UpdateProgressInput) (*courseModels.LessonProgress, error) {
	if _, _, err := s.guardPair(enrollmentID, lessonID); err != nil {
		return nil, err
	}

	progress, err := s.getOrCreate(enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}

	progress.UpdateProgress(input.ProgressPercentage, input.CurrentPosition, s.Now())
	if input.TimeSpentSeconds != nil {
		progress.AddTimeSpent(*input.TimeSpentSeconds)
	}
	if err := s.DB.Save(progress).Error; err != nil {
		return nil, err
	}

	if _, err := s.Enrollments.RefreshProgress(enrollmentID); err != nil {
		return nil, err
	}

	return progress, nil
}

// Complete force-completes a lesson. The first completion timestamp wins;
// repeat calls leave it untouched. Always refreshes the enrollment aggregate.
func (s *ProgressService) Complete(enrollmentID, lessonID uint) (*courseModels.LessonProgress, error) {
	if _, _, err := s.guardPair(enrollmentID, lessonID); err != nil {
		return nil, err
	}

	progress, err := s.getOrCreate(enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}

	progress.MarkCompleted(s.Now())
	if err := s.DB.Save(progress).Error; err != nil {
		return nil, err
	}

	if _, err := s.Enrollments.RefreshProgress(enrollmentID); err != nil {
		return nil, err
	}

	return progress, nil
}

// AddTimeSpent accumulates watch time onto the lesson's counter.
func (s *ProgressService) AddTimeSpent(enrollmentID, lessonID uint, seconds int) (*courseModels.LessonProgress, error) {
	if seconds < 0 {
		return nil, fmt.Errorf("time spent must be non-negative: %w", ErrInvalidState)
	}

	if _, _, err := s.guardPair(enrollmentID, lessonID); err != nil {
		return nil, err
	}

	progress, err := s.getOrCreate(enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}

	progress.AddTimeSpent(seconds)
	if err := s.DB.Save(progress).Error; err != nil {
		return nil, err
	}

	return progress, nil
}

// ToggleFavorite flips the favorite flag on the lesson.
func (s *ProgressService) ToggleFavorite(enrollmentID, lessonID uint) (*courseModels.LessonProgress, error) {
	if _, _, err := s.guardPair(enrollmentID, lessonID); err != nil {
		return nil, err
	}

	progress, err := s.getOrCreate(enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}

	progress.IsFavorite = !progress.IsFavorite
	if err := s.DB.Save(progress).Error; err != nil {
		return nil, err
	}

	return progress, nil
}

// UpdateNotes replaces the structured notes (highlights, bookmarks, text).
func (s *ProgressService) UpdateNotes(enrollmentID, lessonID uint, notes datatypes.JSON) (*courseModels.LessonProgress, error) {
	if _, _, err := s.guardPair(enrollmentID, lessonID); err != nil {
		return nil, err
	}

	progress, err := s.getOrCreate(enrollmentID, lessonID)
	if err != nil {
		return nil, err
	}

	progress.Notes = notes
	if err := s.DB.Save(progress).Error; err != nil {
		return nil, err
	}

	return progress, nil
}

// guardPair loads the enrollment and lesson and rejects lessons outside the
// enrolled formation.
func (s *ProgressService) guardPair(enrollmentID, lessonID uint) (*courseModels.Enrollment, *courseModels.Lesson, error) {
	var enrollment courseModels.Enrollment
	if err := s.DB.First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, nil, err
	}

	var lesson courseModels.Lesson
	if err := s.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
		}
		return nil, nil, err
	}

	if lesson.FormationID != enrollment.FormationID {
		return nil, nil, fmt.Errorf("lesson %d, enrollment %d: %w", lessonID, enrollmentID, ErrCrossCourseReference)
	}

	return &enrollment, &lesson, nil
}

// getOrCreate fetches the progress row for the pair, creating it lazily.
func (s *ProgressService) getOrCreate(enrollmentID, lessonID uint) (*courseModels.LessonProgress, error) {
	var progress courseModels.LessonProgress
	err := s.DB.Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = courseModels.LessonProgress{
		EnrollmentID: enrollmentID,
		LessonID:     lessonID,
		Status:       courseModels.LessonNotStarted,
	}
	if err := s.DB.Create(&progress).Error; err != nil {
		if isDuplicateKey(err) {
			// Lost a creation race; the row exists now.
			if err := s.DB.Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).First(&progress).Error; err != nil {
				return nil, err
			}
			return &progress, nil
		}
		return nil, err
	}

	return &progress, nil
}
