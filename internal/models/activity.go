package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is one audit trail entry. CorrelationID links it to the HTTP request
// that caused it.
type ActivityLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ActorID       uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole     string            `gorm:"size:32;not null" json:"actor_role"`
	Action        string            `gorm:"size:64;not null;index" json:"action"`
	EntityType    string            `gorm:"size:64;not null;index:idx_activity_entity" json:"entity_type"`
	EntityID      *uint             `gorm:"index:idx_activity_entity" json:"entity_id"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CorrelationID string            `gorm:"size:128;index" json:"correlation_id,omitempty"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
}
