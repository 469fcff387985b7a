package model

import "time"

// Lifecycle status values shared by users and organizations.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
)

// User represents the user model stored in the database
type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Email          string     `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password       string     `json:"-" gorm:"type:varchar(255)"`
	FirstName      string     `json:"first_name" gorm:"type:varchar(100)"`
	LastName       string     `json:"last_name" gorm:"type:varchar(100)"`
	OrganizationID *uint      `json:"organization_id,omitempty" gorm:"index"` // default organization
	Status         string     `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	SuspendedAt    *time.Time `json:"suspended_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	Roles []UserRole `json:"roles,omitempty" gorm:"foreignKey:UserID"`
}
