package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName    string     `json:"first_name" gorm:"default:''"`
	LastName     string     `json:"last_name" gorm:"default:''"`
	Email        string     `json:"email" gorm:"unique;not null"`
	Phone        string     `json:"phone" gorm:"default:''"`
	Role         string     `json:"role" gorm:"default:'STUDENT'"` // STUDENT, ADMIN
	Password     string     `json:"-" gorm:"not null"`
	CompanyName  string     `json:"company_name"`
	LastLogin    *time.Time `json:"last_login"`
	IsDeleted    bool       `json:"is_deleted" gorm:"default:false"`
}

// FullName returns the display name used on certificates and emails.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
