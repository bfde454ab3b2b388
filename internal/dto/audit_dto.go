package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/repository"
)

// AuditLogResponse is the serialized audit ledger entry.
type AuditLogResponse struct {
	ID           uuid.UUID              `json:"id"`
	Timestamp    time.Time              `json:"timestamp"`
	ActorID      uuid.UUID              `json:"actor_id"`
	ActorEmail   string                 `json:"actor_email"`
	UserIP       string                 `json:"user_ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	EventType    models.EventType       `json:"event_type"`
	ResourceType string                 `json:"resource_type,omitempty"`
	ResourceID   *uuid.UUID             `json:"resource_id,omitempty"`
	Action       string                 `json:"action"`
	Changes      map[string]interface{} `json:"changes,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Status       string                 `json:"status"`
}

// NewAuditLogResponse converts a model into a DTO.
func NewAuditLogResponse(model models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:           model.ID,
		Timestamp:    model.Timestamp,
		ActorID:      model.ActorID,
		ActorEmail:   model.ActorEmail,
		UserIP:       model.UserIP,
		UserAgent:    model.UserAgent,
		EventType:    model.EventType,
		ResourceType: model.ResourceType,
		ResourceID:   model.ResourceID,
		Action:       model.Action,
		Changes:      model.Changes,
		Metadata:     model.Metadata,
		Status:       model.Status,
	}
}

// NewAuditLogResponseSlice converts a slice of models into DTOs.
func NewAuditLogResponseSlice(entries []models.AuditLog) []AuditLogResponse {
	responses := make([]AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewAuditLogResponse(entry))
	}
	return responses
}

// AuditLogListRequest describes the ledger query surface: page >= 1,
// page_size clamped to the configured maximum, optional actor/event/time
// filters, all AND-combined.
type AuditLogListRequest struct {
	Page      int        `query:"page"`
	PageSize  int        `query:"page_size"`
	ActorID   *uuid.UUID `query:"actor_id"`
	EventType string     `query:"event_type"`
	From      *time.Time `query:"start_date"`
	To        *time.Time `query:"end_date"`
}

// AuditLogListResponse is the paginated ledger payload.
type AuditLogListResponse struct {
	Logs     []AuditLogResponse `json:"logs"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// AuditStatsResponse carries the admin aggregation counters.
type AuditStatsResponse struct {
	repository.AuditStats
	CacheHit bool `json:"cache_hit,omitempty"`
}
