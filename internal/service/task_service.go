package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/taskledger/taskledger-api/internal/dto"
	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/repository"
)

// TaskService implements task CRUD under the ownership policy. Every
// mutation writes its audit row inside the same transaction: task and
// audit entry land together or not at all, and an audit write failure
// aborts the mutation.
type TaskService interface {
	Create(ctx context.Context, actor models.User, req dto.TaskCreateRequest, meta RequestMeta) (dto.TaskResponse, error)
	Get(ctx context.Context, actor models.User, id uuid.UUID) (dto.TaskResponse, error)
	List(ctx context.Context, actor models.User, req dto.TaskListRequest) (dto.TaskListResponse, error)
	Update(ctx context.Context, actor models.User, id uuid.UUID, req dto.TaskUpdateRequest, meta RequestMeta) (dto.TaskResponse, error)
	Delete(ctx context.Context, actor models.User, id uuid.UUID, meta RequestMeta) error
}

type taskService struct {
	db              *gorm.DB
	tasks           repository.TaskRepository
	audits          repository.AuditLogRepository
	auditor         AuditService
	validator       *validator.Validate
	defaultPageSize int
	maxPageSize     int
	logger          zerolog.Logger
}

// NewTaskService constructs the task service.
func NewTaskService(db *gorm.DB, tasks repository.TaskRepository, audits repository.AuditLogRepository, auditor AuditService, validate *validator.Validate, defaultPageSize, maxPageSize int, logger zerolog.Logger) TaskService {
	if defaultPageSize <= 0 {
		defaultPageSize = 50
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}

	return &taskService{
		db:              db,
		tasks:           tasks,
		audits:          audits,
		auditor:         auditor,
		validator:       validate,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger.With().Str("component", "task_service").Logger(),
	}
}

func (s *taskService) Create(ctx context.Context, actor models.User, req dto.TaskCreateRequest, meta RequestMeta) (dto.TaskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TaskResponse{}, err
	}

	task := models.Task{
		Title:        req.Title,
		Description:  req.Description,
		Status:       models.TaskStatusTodo,
		Priority:     models.TaskPriorityMedium,
		CreatedByID:  actor.ID,
		AssignedToID: req.AssignedToID,
	}
	if req.Status != "" {
		task.Status = models.TaskStatus(req.Status)
	}
	if req.Priority != "" {
		task.Priority = models.TaskPriority(req.Priority)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tasks.WithTx(tx).Create(ctx, &task); err != nil {
			return err
		}
		_, err := s.auditor.RecordWith(ctx, s.audits.WithTx(tx), NewTaskCreateEntry(actor, task, meta))
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("title", req.Title).Msg("task create failed")
		return dto.TaskResponse{}, err
	}

	return dto.NewTaskResponse(task), nil
}

func (s *taskService) Get(ctx context.Context, actor models.User, id uuid.UUID) (dto.TaskResponse, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	if !CanViewTask(actor, task) {
		return dto.TaskResponse{}, ErrForbidden
	}

	return dto.NewTaskResponse(task), nil
}

func (s *taskService) List(ctx context.Context, actor models.User, req dto.TaskListRequest) (dto.TaskListResponse, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	filter := repository.TaskFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   models.TaskStatus(req.Status),
		Priority: models.TaskPriority(req.Priority),
	}
	// Non-admins only see tasks they created or are assigned to.
	if !IsAdmin(actor) {
		self := actor.ID
		filter.VisibleTo = &self
	}

	tasks, total, err := s.tasks.List(ctx, filter)
	if err != nil {
		return dto.TaskListResponse{}, err
	}

	return dto.TaskListResponse{
		Tasks:    dto.NewTaskResponseSlice(tasks),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *taskService) Update(ctx context.Context, actor models.User, id uuid.UUID, req dto.TaskUpdateRequest, meta RequestMeta) (dto.TaskResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TaskResponse{}, err
	}

	task, err := s.load(ctx, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	if !CanUpdateTask(actor, task) {
		return dto.TaskResponse{}, ErrForbidden
	}

	before := task
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = models.TaskStatus(*req.Status)
	}
	if req.Priority != nil {
		task.Priority = models.TaskPriority(*req.Priority)
	}
	if req.ClearAssignee {
		task.AssignedToID = nil
	} else if req.AssignedToID != nil {
		task.AssignedToID = req.AssignedToID
	}

	changes := TaskChanges(before, task)
	if len(changes) == 0 {
		return dto.NewTaskResponse(task), nil
	}

	_, assigneeChanged := changes["assigned_to_id"]

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tasks.WithTx(tx).Update(ctx, &task); err != nil {
			return err
		}

		auditRepo := s.audits.WithTx(tx)
		if _, err := s.auditor.RecordWith(ctx, auditRepo, NewTaskUpdateEntry(actor, task, changes, meta)); err != nil {
			return err
		}
		if assigneeChanged && task.AssignedToID != nil {
			if _, err := s.auditor.RecordWith(ctx, auditRepo, NewTaskAssignEntry(actor, task, meta)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("task_id", id.String()).Msg("task update failed")
		return dto.TaskResponse{}, err
	}

	return dto.NewTaskResponse(task), nil
}

func (s *taskService) Delete(ctx context.Context, actor models.User, id uuid.UUID, meta RequestMeta) error {
	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if !CanDeleteTask(actor, task) {
		return ErrForbidden
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tasks.WithTx(tx).Delete(ctx, task.ID); err != nil {
			return err
		}
		_, err := s.auditor.RecordWith(ctx, s.audits.WithTx(tx), NewTaskDeleteEntry(actor, task, meta))
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("task_id", id.String()).Msg("task delete failed")
		return err
	}

	return nil
}

func (s *taskService) load(ctx context.Context, id uuid.UUID) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}
