package model

import "time"

// Organization represents a tenant. Every user and every role assignment is
// scoped to one of these.
type Organization struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"type:varchar(100);not null"`
	Slug        string     `json:"slug" gorm:"type:varchar(120);uniqueIndex"`
	Status      string     `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	SuspendedAt *time.Time `json:"suspended_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
