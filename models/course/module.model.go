package course

import (
	"time"

	"gorm.io/gorm"
)

// Module represents a section within a formation
type Module struct {
	gorm.Model
	FormationID uint       `json:"formation_id" gorm:"index;not null"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	OrderIndex  int        `json:"order_index" gorm:"default:0"` // Module order in formation
	IsPublished bool       `json:"is_published" gorm:"default:false"`
	PublishedAt *time.Time `json:"published_at"`
}

func (Module) TableName() string {
	return "modules"
}
