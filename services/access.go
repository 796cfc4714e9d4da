package services

import (
	"errors"
	"fmt"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// AccessService is a read-only policy evaluator deciding whether an enrolled
// user may open a lesson. It never mutates anything.
type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// AccessDecision is the outcome of a lesson access check.
type AccessDecision struct {
	Accessible bool   `json:"accessible"`
	Reason     string `json:"reason,omitempty"`
	BlockedBy  string `json:"blocked_by,omitempty"` // title of the incomplete module, when relevant
}

// CanAccessLesson evaluates the access policy for one (enrollment, lesson)
// pair: active enrollment, lesson inside the enrolled formation and published,
// and every module ordered before the lesson's module fully completed.
// Preview lessons go through the same gate; preview affects catalog
// visibility elsewhere, not access.
func (s *AccessService) CanAccessLesson(enrollmentID, lessonID uint) (*AccessDecision, error) {
	var enrollment courseModels.Enrollment
	if err := s.DB.First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
		}
		return nil, err
	}

	var lesson courseModels.Lesson
	if err := s.DB.First(&lesson, lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
		}
		return nil, err
	}

	if !enrollment.IsActive() {
		switch enrollment.Status {
		case courseModels.EnrollmentPending:
			return &AccessDecision{Accessible: false, Reason: "Enrollment is pending activation"}, nil
		case courseModels.EnrollmentCancelled:
			return &AccessDecision{Accessible: false, Reason: "Enrollment has been cancelled"}, nil
		case courseModels.EnrollmentSuspended:
			return &AccessDecision{Accessible: false, Reason: "Enrollment has been suspended"}, nil
		default:
			return &AccessDecision{Accessible: false, Reason: "Enrollment is not active"}, nil
		}
	}

	if lesson.FormationID != enrollment.FormationID {
		return &AccessDecision{Accessible: false, Reason: "Lesson does not belong to the enrolled formation"}, nil
	}

	if !lesson.IsPublished {
		return &AccessDecision{Accessible: false, Reason: "Lesson is not published"}, nil
	}

	var modules []courseModels.Module
	err := s.DB.Where("formation_id = ?", enrollment.FormationID).
		Order("order_index asc, id asc").
		Find(&modules).Error
	if err != nil {
		return nil, err
	}

	lessonModuleIndex := -1
	for i, m := range modules {
		if m.ID == lesson.ModuleID {
			lessonModuleIndex = i
			break
		}
	}
	if lessonModuleIndex == -1 {
		return &AccessDecision{Accessible: false, Reason: "Lesson is not assigned to a module of this formation"}, nil
	}

	// Every module strictly before the lesson's module must be completed.
	for i := 0; i < lessonModuleIndex; i++ {
		completed, err := s.isModuleCompleted(&enrollment, &modules[i])
		if err != nil {
			return nil, err
		}
		if !completed {
			return &AccessDecision{
				Accessible: false,
				Reason:     "Previous modules must be completed first",
				BlockedBy:  modules[i].Title,
			}, nil
		}
	}

	return &AccessDecision{Accessible: true}, nil
}

// isModuleCompleted reports whether every lesson of the module has a completed
// progress row for this enrollment. A module with no lessons counts as
// completed.
func (s *AccessService) isModuleCompleted(enrollment *courseModels.Enrollment, module *courseModels.Module) (bool, error) {
	var lessonIDs []uint
	err := s.DB.Model(&courseModels.Lesson{}).
		Where("module_id = ?", module.ID).
		Pluck("id", &lessonIDs).Error
	if err != nil {
		return false, err
	}
	if len(lessonIDs) == 0 {
		return true, nil
	}

	var completed int64
	err = s.DB.Model(&courseModels.LessonProgress{}).
		Where("enrollment_id = ? AND lesson_id IN ? AND status = ?",
			enrollment.ID, lessonIDs, courseModels.LessonCompleted).
		Count(&completed).Error
	if err != nil {
		return false, err
	}

	return completed == int64(len(lessonIDs)), nil
}
