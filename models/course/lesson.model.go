package course

import (
	"gorm.io/gorm"
)

// Lesson represents a single lesson within a module
type Lesson struct {
	gorm.Model
	ModuleID        uint   `json:"module_id" gorm:"index;not null"`
	FormationID     uint   `json:"formation_id" gorm:"index;not null"`
	Title           string `json:"title" gorm:"not null"`
	Summary         string `json:"summary"`
	Content         string `json:"content" gorm:"type:text"`
	VideoURL        string `json:"video_url"`
	DurationSeconds int    `json:"duration_seconds" gorm:"default:0"`
	IsPreview       bool   `json:"is_preview" gorm:"default:false"`
	IsPublished     bool   `json:"is_published" gorm:"default:false"`
	OrderIndex      int    `json:"order_index" gorm:"default:0"` // Lesson order within module
}

func (Lesson) TableName() string {
	return "lessons"
}
