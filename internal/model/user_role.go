package model

import "time"

// UserRole represents "user U holds role R within organization C".
// The (user, role, organization) triple is unique.
type UserRole struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_role_org"`
	RoleID         uint      `json:"role_id" gorm:"not null;uniqueIndex:idx_user_role_org"`
	OrganizationID uint      `json:"organization_id" gorm:"not null;uniqueIndex:idx_user_role_org"`
	CreatedAt      time.Time `json:"created_at"`

	// Relations
	Role Role `json:"role,omitempty" gorm:"foreignKey:RoleID"`
}
