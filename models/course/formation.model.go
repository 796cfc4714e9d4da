package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PricingTier defines the commercial tier of a formation
type PricingTier string

const (
	PricingTierFree       PricingTier = "free"
	PricingTierBasic      PricingTier = "basic"
	PricingTierStandard   PricingTier = "standard"
	PricingTierPremium    PricingTier = "premium"
	PricingTierEnterprise PricingTier = "enterprise"
)

// Formation represents a course product composed of ordered modules and lessons
type Formation struct {
	gorm.Model
	Title           string         `json:"title" gorm:"not null"`
	Slug            string         `json:"slug" gorm:"uniqueIndex"`
	Summary         string         `json:"summary"`
	Description     string         `json:"description" gorm:"type:text"`
	PricingTier     PricingTier    `json:"pricing_tier" gorm:"type:varchar(20);default:'standard'"`
	Price           float64        `json:"price" gorm:"default:0"`
	Language        string         `json:"language" gorm:"default:'fr'"`
	DifficultyLevel string         `json:"difficulty_level"`
	InstructorName  string         `json:"instructor_name"`
	InstructorTitle string         `json:"instructor_title"`
	IsPublished     bool           `json:"is_published" gorm:"default:false"`
	PublishedAt     *time.Time     `json:"published_at"`
	EnrollmentCount int            `json:"enrollment_count" gorm:"default:0"`
	Metadata        datatypes.JSON `json:"metadata,omitempty"`
}

func (Formation) TableName() string {
	return "formations"
}

// IsFree reports whether enrolling requires no payment.
func (f *Formation) IsFree() bool {
	return f.PricingTier == PricingTierFree || f.Price == 0
}
