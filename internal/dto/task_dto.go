package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskledger/taskledger-api/internal/models"
)

// TaskCreateRequest describes the payload for creating a task.
type TaskCreateRequest struct {
	Title        string     `json:"title" validate:"required,min=1,max=200"`
	Description  string     `json:"description" validate:"max=5000"`
	Status       string     `json:"status" validate:"omitempty,oneof=todo in_progress done bug"`
	Priority     string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedToID *uuid.UUID `json:"assigned_to_id"`
}

// TaskUpdateRequest describes a partial task update. Nil fields are left
// untouched; the audit diff only records fields that actually changed.
type TaskUpdateRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=5000"`
	Status       *string    `json:"status" validate:"omitempty,oneof=todo in_progress done bug"`
	Priority     *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedToID *uuid.UUID `json:"assigned_to_id"`
	// ClearAssignee distinguishes "unassign" from "leave unchanged".
	ClearAssignee bool `json:"clear_assignee"`
}

// TaskListRequest describes the task listing query.
type TaskListRequest struct {
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
	Status   string `query:"status"`
	Priority string `query:"priority"`
}

// TaskResponse is the serialized task representation.
type TaskResponse struct {
	ID           uuid.UUID           `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	CreatedByID  uuid.UUID           `json:"created_by_id"`
	AssignedToID *uuid.UUID          `json:"assigned_to_id"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// NewTaskResponse converts a model into a DTO.
func NewTaskResponse(model models.Task) TaskResponse {
	return TaskResponse{
		ID:           model.ID,
		Title:        model.Title,
		Description:  model.Description,
		Status:       model.Status,
		Priority:     model.Priority,
		CreatedByID:  model.CreatedByID,
		AssignedToID: model.AssignedToID,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewTaskResponseSlice converts a slice of models into DTOs.
func NewTaskResponseSlice(tasks []models.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewTaskResponse(task))
	}
	return responses
}

// TaskListResponse is the paginated task listing payload.
type TaskListResponse struct {
	Tasks    []TaskResponse `json:"tasks"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}
