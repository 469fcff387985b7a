package model

import "time"

// RolePermission links a role to a permission it grants. The pair is unique.
type RolePermission struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RoleID       uint      `json:"role_id" gorm:"not null;uniqueIndex:idx_role_permission"`
	PermissionID uint      `json:"permission_id" gorm:"not null;uniqueIndex:idx_role_permission"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Permission Permission `json:"permission,omitempty" gorm:"foreignKey:PermissionID"`
}
