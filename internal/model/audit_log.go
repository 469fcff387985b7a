package model

import "time"

// Audit actions recorded on lifecycle transitions.
const (
	AuditSuspend         = "SUSPEND"
	AuditRestore         = "RESTORE"
	AuditPermanentDelete = "PERMANENT_DELETE"
)

// Entity types the lifecycle service operates on.
const (
	EntityUser         = "USER"
	EntityOrganization = "ORGANIZATION"
)

// AuditLogEntry is an append-only record of a lifecycle transition. Entries
// are never updated or deleted. A nil ActorID means the action was
// system-initiated.
type AuditLogEntry struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Action     string    `json:"action" gorm:"type:varchar(30);not null"`
	EntityType string    `json:"entity_type" gorm:"type:varchar(20);not null"`
	EntityID   uint      `json:"entity_id" gorm:"not null;index"`
	ActorID    *uint     `json:"actor_id,omitempty"`
	Reason     string    `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}
