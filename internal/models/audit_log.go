package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventType categorises auditable actions. The enumeration is closed.
type EventType string

const (
	EventUserRegister    EventType = "USER_REGISTER"
	EventUserLogin       EventType = "USER_LOGIN"
	EventUserLogout      EventType = "USER_LOGOUT"
	EventUserLoginFailed EventType = "USER_LOGIN_FAILED"
	EventTaskCreate      EventType = "TASK_CREATE"
	EventTaskUpdate      EventType = "TASK_UPDATE"
	EventTaskDelete      EventType = "TASK_DELETE"
	EventTaskAssign      EventType = "TASK_ASSIGN"
)

// Valid reports whether the event type is one of the known values.
func (e EventType) Valid() bool {
	switch e {
	case EventUserRegister, EventUserLogin, EventUserLogout, EventUserLoginFailed,
		EventTaskCreate, EventTaskUpdate, EventTaskDelete, EventTaskAssign:
		return true
	default:
		return false
	}
}

// Audit outcome statuses.
const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
)

// AuditLog is an immutable record of a security-relevant action. The table
// is append-only: no update or delete path exists anywhere in the
// repository layer. ActorEmail is a snapshot so that later changes to the
// account never rewrite history.
type AuditLog struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Timestamp    time.Time         `gorm:"not null;index" json:"timestamp"`
	ActorID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorEmail   string            `gorm:"size:255;not null" json:"actor_email"`
	UserIP       string            `gorm:"size:64" json:"user_ip,omitempty"`
	UserAgent    string            `gorm:"size:500" json:"user_agent,omitempty"`
	EventType    EventType         `gorm:"size:32;not null;index" json:"event_type"`
	ResourceType string            `gorm:"size:50" json:"resource_type,omitempty"`
	ResourceID   *uuid.UUID        `gorm:"type:uuid;index" json:"resource_id,omitempty"`
	Action       string            `gorm:"size:255;not null" json:"action"`
	Changes      datatypes.JSONMap `gorm:"type:json" json:"changes,omitempty"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	Status       string            `gorm:"size:16;not null;default:success" json:"status"`
}

// BeforeCreate assigns the primary key and the server-side timestamp.
// Callers never supply either; the persisted time is authoritative.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return nil
}
