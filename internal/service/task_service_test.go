package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/taskledger/taskledger-api/internal/dto"
	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/repository"
)

type taskServiceFixture struct {
	service  TaskService
	db       *gorm.DB
	creator  models.User
	assignee models.User
	outsider models.User
	admin    models.User
}

func setupTaskService(t *testing.T) taskServiceFixture {
	t.Helper()

	db := setupServiceDB(t)
	audits := NewAuditService(repository.NewAuditLogRepository(db), nil, time.Minute, 50, 100, testLogger())
	tasks := NewTaskService(db, repository.NewTaskRepository(db), repository.NewAuditLogRepository(db), audits, testValidator(), 50, 100, testLogger())

	return taskServiceFixture{
		service:  tasks,
		db:       db,
		creator:  createTestUser(t, db, "creator@example.com", models.RoleUser),
		assignee: createTestUser(t, db, "assignee@example.com", models.RoleUser),
		outsider: createTestUser(t, db, "outsider@example.com", models.RoleUser),
		admin:    createTestUser(t, db, "admin@example.com", models.RoleAdmin),
	}
}

func (f taskServiceFixture) createTask(t *testing.T, assignee *uuid.UUID) dto.TaskResponse {
	t.Helper()

	task, err := f.service.Create(context.Background(), f.creator, dto.TaskCreateRequest{
		Title:        "Fix bug",
		Description:  "Login page throws 500",
		AssignedToID: assignee,
	}, RequestMeta{IP: "203.0.113.7"})
	require.NoError(t, err)
	return task
}

func TestTaskServiceCreateDefaultsAndAudit(t *testing.T) {
	f := setupTaskService(t)

	task := f.createTask(t, nil)
	require.Equal(t, models.TaskStatusTodo, task.Status)
	require.Equal(t, models.TaskPriorityMedium, task.Priority)
	require.Equal(t, f.creator.ID, task.CreatedByID)

	rows := auditRowsByType(t, f.db, models.EventTaskCreate)
	require.Len(t, rows, 1)
	require.Equal(t, f.creator.Email, rows[0].ActorEmail)
	require.NotNil(t, rows[0].ResourceID)
	require.Equal(t, task.ID, *rows[0].ResourceID)
	require.Equal(t, "task", rows[0].ResourceType)
}

func TestTaskServiceGetEnforcesVisibility(t *testing.T) {
	f := setupTaskService(t)
	assigneeID := f.assignee.ID
	task := f.createTask(t, &assigneeID)

	for _, viewer := range []models.User{f.creator, f.assignee, f.admin} {
		_, err := f.service.Get(context.Background(), viewer, task.ID)
		require.NoError(t, err)
	}

	_, err := f.service.Get(context.Background(), f.outsider, task.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.service.Get(context.Background(), f.creator, uuid.New())
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskServiceListScopesNonAdmins(t *testing.T) {
	f := setupTaskService(t)
	assigneeID := f.assignee.ID
	f.createTask(t, &assigneeID)
	f.createTask(t, nil)

	own, err := f.service.List(context.Background(), f.assignee, dto.TaskListRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(1), own.Total)

	none, err := f.service.List(context.Background(), f.outsider, dto.TaskListRequest{})
	require.NoError(t, err)
	require.Zero(t, none.Total)

	all, err := f.service.List(context.Background(), f.admin, dto.TaskListRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(2), all.Total)
}

func TestTaskServiceUpdateRecordsOnlyChangedFields(t *testing.T) {
	f := setupTaskService(t)
	task := f.createTask(t, nil)

	title := "Fix login bug"
	status := "in_progress"
	updated, err := f.service.Update(context.Background(), f.creator, task.ID, dto.TaskUpdateRequest{
		Title:  &title,
		Status: &status,
	}, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, models.TaskStatusInProgress, updated.Status)

	rows := auditRowsByType(t, f.db, models.EventTaskUpdate)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Changes, 2)

	titleChange, ok := rows[0].Changes["title"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "Fix bug", titleChange["old"])
	require.Equal(t, "Fix login bug", titleChange["new"])

	statusChange, ok := rows[0].Changes["status"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "todo", statusChange["old"])
	require.Equal(t, "in_progress", statusChange["new"])
}

func TestTaskServiceNoOpUpdateWritesNothing(t *testing.T) {
	f := setupTaskService(t)
	task := f.createTask(t, nil)

	sameTitle := "Fix bug"
	_, err := f.service.Update(context.Background(), f.creator, task.ID, dto.TaskUpdateRequest{
		Title: &sameTitle,
	}, RequestMeta{})
	require.NoError(t, err)

	require.Empty(t, auditRowsByType(t, f.db, models.EventTaskUpdate))
}

func TestTaskServiceAssignmentEmitsAssignEvent(t *testing.T) {
	f := setupTaskService(t)
	task := f.createTask(t, nil)

	assigneeID := f.assignee.ID
	updated, err := f.service.Update(context.Background(), f.creator, task.ID, dto.TaskUpdateRequest{
		AssignedToID: &assigneeID,
	}, RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedToID)
	require.Equal(t, assigneeID, *updated.AssignedToID)

	require.Len(t, auditRowsByType(t, f.db, models.EventTaskUpdate), 1)
	assigns := auditRowsByType(t, f.db, models.EventTaskAssign)
	require.Len(t, assigns, 1)
	require.Equal(t, assigneeID.String(), assigns[0].Metadata["assigned_to_id"])
}

func TestTaskServiceClearAssigneeSkipsAssignEvent(t *testing.T) {
	f := setupTaskService(t)
	assigneeID := f.assignee.ID
	task := f.createTask(t, &assigneeID)

	updated, err := f.service.Update(context.Background(), f.creator, task.ID, dto.TaskUpdateRequest{
		ClearAssignee: true,
	}, RequestMeta{})
	require.NoError(t, err)
	require.Nil(t, updated.AssignedToID)

	require.Len(t, auditRowsByType(t, f.db, models.EventTaskUpdate), 1)
	require.Empty(t, auditRowsByType(t, f.db, models.EventTaskAssign))
}

func TestTaskServiceDeleteStricterThanUpdate(t *testing.T) {
	f := setupTaskService(t)
	assigneeID := f.assignee.ID
	task := f.createTask(t, &assigneeID)

	// The assignee may work the task but not remove it.
	status := "done"
	_, err := f.service.Update(context.Background(), f.assignee, task.ID, dto.TaskUpdateRequest{Status: &status}, RequestMeta{})
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), f.assignee, task.ID, RequestMeta{})
	require.ErrorIs(t, err, ErrForbidden)

	err = f.service.Delete(context.Background(), f.outsider, task.ID, RequestMeta{})
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.service.Delete(context.Background(), f.creator, task.ID, RequestMeta{}))

	_, err = f.service.Get(context.Background(), f.creator, task.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)

	deletes := auditRowsByType(t, f.db, models.EventTaskDelete)
	require.Len(t, deletes, 1)
	require.Equal(t, f.creator.Email, deletes[0].ActorEmail)
}

type failingAuditor struct {
	AuditService
}

func (failingAuditor) RecordWith(ctx context.Context, repo repository.AuditLogRepository, entry AuditEntry) (dto.AuditLogResponse, error) {
	return dto.AuditLogResponse{}, context.DeadlineExceeded
}

func TestTaskServiceAuditFailureAbortsMutation(t *testing.T) {
	db := setupServiceDB(t)
	creator := createTestUser(t, db, "creator@example.com", models.RoleUser)

	tasks := NewTaskService(db, repository.NewTaskRepository(db), repository.NewAuditLogRepository(db), failingAuditor{}, testValidator(), 50, 100, testLogger())

	_, err := tasks.Create(context.Background(), creator, dto.TaskCreateRequest{Title: "Fix bug"}, RequestMeta{})
	require.Error(t, err)

	var total int64
	require.NoError(t, db.Model(&models.Task{}).Count(&total).Error)
	require.Zero(t, total)
}
