package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the credential-store identity shared by every enrollment service.
// Password material (hash, history, security answer) never serializes to JSON.
type User struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Email     string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName string `gorm:"size:255;not null" json:"first_name"`
	LastName  string `gorm:"size:255;not null" json:"last_name"`
	Role      string `gorm:"size:32;not null;index:idx_users_role" json:"role"`

	PasswordHash      string          `gorm:"size:1024;not null" json:"-"`
	PasswordHistory   PasswordHistory `gorm:"type:text" json:"-"`
	PasswordChangedAt time.Time       `json:"-"`

	SecurityQuestion   string `gorm:"size:255" json:"-"`
	SecurityAnswerHash string `gorm:"size:1024" json:"-"`

	LastLoginAt     *time.Time `json:"-"`
	LastLoginIP     string     `gorm:"size:64" json:"-"`
	PreviousLoginAt *time.Time `json:"-"`
	PreviousLoginIP string     `gorm:"size:64" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleFaculty    = "faculty"
	RoleAdmin      = "admin"
)

// ValidRole reports whether role is one of the registerable roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleFaculty, RoleAdmin:
		return true
	default:
		return false
	}
}
