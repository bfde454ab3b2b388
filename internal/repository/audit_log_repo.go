package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskledger/taskledger-api/internal/models"
)

// AuditLogFilter narrows ledger queries. All filters combine with AND.
type AuditLogFilter struct {
	Page      int
	PageSize  int
	ActorID   *uuid.UUID
	EventType models.EventType
	From      *time.Time
	To        *time.Time
}

// AuditStats aggregates ledger counters for the admin dashboard.
type AuditStats struct {
	TotalEvents       int64 `json:"total_events"`
	EventsToday       int64 `json:"events_today"`
	FailedLogins      int64 `json:"failed_logins"`
	TotalUsers        int64 `json:"total_users"`
	TotalTasksCreated int64 `json:"total_tasks_created"`
	TotalTasksUpdated int64 `json:"total_tasks_updated"`
	TotalTasksDeleted int64 `json:"total_tasks_deleted"`
}

// AuditLogRepository is the append-only ledger store. Append is the only
// write; no update or delete is defined on audit rows, which is the
// load-bearing guarantee of the subsystem.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	Get(ctx context.Context, id uuid.UUID) (models.AuditLog, error)
	List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error)
	Stats(ctx context.Context, dayStart time.Time) (AuditStats, error)
	// WithTx returns a repository bound to the given transaction so an
	// audit row can commit atomically with the mutation it records.
	WithTx(tx *gorm.DB) AuditLogRepository
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository constructs the audit ledger repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) WithTx(tx *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: tx}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) Get(ctx context.Context, id uuid.UUID) (models.AuditLog, error) {
	var entry models.AuditLog
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	return entry, err
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}

	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}

	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var entries []models.AuditLog
	if err := query.Order("timestamp DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *auditLogRepository) Stats(ctx context.Context, dayStart time.Time) (AuditStats, error) {
	var stats AuditStats
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.AuditLog{})
	}

	if err := base().Count(&stats.TotalEvents).Error; err != nil {
		return AuditStats{}, err
	}

	if err := base().Where("timestamp >= ?", dayStart).Count(&stats.EventsToday).Error; err != nil {
		return AuditStats{}, err
	}

	if err := base().Where("event_type = ?", models.EventUserLoginFailed).Count(&stats.FailedLogins).Error; err != nil {
		return AuditStats{}, err
	}

	if err := base().Distinct("actor_id").Count(&stats.TotalUsers).Error; err != nil {
		return AuditStats{}, err
	}

	if err := base().Where("event_type = ?", models.EventTaskCreate).Count(&stats.TotalTasksCreated).Error; err != nil {
		return AuditStats{}, err
	}

	if err := base().Where("event_type = ?", models.EventTaskUpdate).Count(&stats.TotalTasksUpdated).Error; err != nil {
		return AuditStats{}, err
	}

	if err := base().Where("event_type = ?", models.EventTaskDelete).Count(&stats.TotalTasksDeleted).Error; err != nil {
		return AuditStats{}, err
	}

	return stats, nil
}
