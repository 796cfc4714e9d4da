package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LessonProgressStatus defines the lifecycle state of a lesson progress record
type LessonProgressStatus string

const (
	LessonNotStarted LessonProgressStatus = "not_started"
	LessonInProgress LessonProgressStatus = "in_progress"
	LessonCompleted  LessonProgressStatus = "completed"
)

// LessonProgress tracks one user's progress through one lesson. Rows are
// created lazily on first access and are unique per (enrollment, lesson).
type LessonProgress struct {
	gorm.Model
	EnrollmentID       uint                 `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_enrollment_lesson"`
	LessonID           uint                 `json:"lesson_id" gorm:"not null;uniqueIndex:idx_enrollment_lesson"`
	Status             LessonProgressStatus `json:"status" gorm:"type:varchar(20);default:'not_started'"`
	ProgressPercentage int                  `json:"progress_percentage" gorm:"default:0"`
	StartedAt          *time.Time           `json:"started_at"`
	CompletedAt        *time.Time           `json:"completed_at"`
	LastAccessedAt     *time.Time           `json:"last_accessed_at"`
	TimeSpentSeconds   int                  `json:"time_spent_seconds" gorm:"default:0"`
	AccessCount        int                  `json:"access_count" gorm:"default:0"`
	CurrentPosition    *int                 `json:"current_position"` // playback offset, seconds
	IsFavorite         bool                 `json:"is_favorite" gorm:"default:false"`
	Notes              datatypes.JSON       `json:"notes,omitempty"` // highlights, bookmarks, free text
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

func (p *LessonProgress) IsNotStarted() bool {
	return p.Status == "" || p.Status == LessonNotStarted
}

func (p *LessonProgress) IsCompleted() bool {
	return p.Status == LessonCompleted
}

// MarkInProgress transitions to in_progress, setting the start timestamp once.
func (p *LessonProgress) MarkInProgress(at time.Time) {
	p.Status = LessonInProgress
	if p.StartedAt == nil {
		p.StartedAt = &at
	}
	p.LastAccessedAt = &at
	p.AccessCount++
}

// MarkCompleted force-transitions to completed with full progress. The first
// completion timestamp wins; repeat calls never overwrite it.
func (p *LessonProgress) MarkCompleted(at time.Time) {
	p.Status = LessonCompleted
	p.ProgressPercentage = 100
	if p.CompletedAt == nil {
		p.CompletedAt = &at
	}
	p.LastAccessedAt = &at
}

// UpdateProgress applies a clamped progress percentage, starting the lesson if
// needed and completing it when the percentage reaches 100.
func (p *LessonProgress) UpdateProgress(percentage int, position *int, at time.Time) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	p.ProgressPercentage = percentage

	if p.IsNotStarted() && percentage > 0 {
		p.Status = LessonInProgress
		if p.StartedAt == nil {
			p.StartedAt = &at
		}
	}

	if position != nil {
		p.CurrentPosition = position
	}

	if p.ProgressPercentage >= 100 && !p.IsCompleted() {
		p.MarkCompleted(at)
	} else {
		p.LastAccessedAt = &at
	}
}

// RecordAccess registers an access to the lesson, transitioning a fresh record
// to in_progress. The first start counts once; every later access increments
// the counter.
func (p *LessonProgress) RecordAccess(position *int, at time.Time) {
	p.LastAccessedAt = &at

	if position != nil {
		p.CurrentPosition = position
	}

	if p.IsNotStarted() {
		p.MarkInProgress(at)
	} else {
		p.AccessCount++
	}
}

// AddTimeSpent accumulates watch time. Negative values are ignored.
func (p *LessonProgress) AddTimeSpent(seconds int) {
	if seconds <= 0 {
		return
	}
	p.TimeSpentSeconds += seconds
}
