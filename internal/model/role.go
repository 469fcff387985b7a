package model

import "time"

// Codes of the system roles created by the service itself. They carry the
// Protected flag and may not be deleted.
const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// IsSystemRole reports whether code is one of the system role codes.
func IsSystemRole(code string) bool {
	switch code {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Role is a named bundle of permissions. Roles are global, not per-tenant.
type Role struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"type:varchar(50);uniqueIndex"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Protected   bool      `json:"protected" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Permissions []RolePermission `json:"permissions,omitempty" gorm:"foreignKey:RoleID"`
}
