package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/taskledger/taskledger-api/internal/dto"
	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/observability"
	"github.com/taskledger/taskledger-api/internal/repository"
)

const statsCacheKey = "audit:stats"

// AuditRecorder is the narrow capability business operations depend on to
// emit ledger rows; they never see the storage behind it.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) (dto.AuditLogResponse, error)
}

// AuditService exposes the ledger: recording, scoped queries and the
// admin aggregation.
type AuditService interface {
	AuditRecorder
	// RecordWith appends through the given repository, letting callers
	// bind the write to a transaction shared with a business mutation.
	RecordWith(ctx context.Context, repo repository.AuditLogRepository, entry AuditEntry) (dto.AuditLogResponse, error)
	List(ctx context.Context, requester models.User, req dto.AuditLogListRequest) (dto.AuditLogListResponse, error)
	Get(ctx context.Context, requester models.User, id uuid.UUID) (dto.AuditLogResponse, error)
	MyHistory(ctx context.Context, requester models.User, req dto.AuditLogListRequest) (dto.AuditLogListResponse, error)
	Stats(ctx context.Context, requester models.User) (dto.AuditStatsResponse, error)
}

type auditService struct {
	repo            repository.AuditLogRepository
	cache           *redis.Client
	cacheTTL        time.Duration
	defaultPageSize int
	maxPageSize     int
	logger          zerolog.Logger
	now             func() time.Time
}

// NewAuditService constructs the audit ledger service.
func NewAuditService(repo repository.AuditLogRepository, cache *redis.Client, cacheTTL time.Duration, defaultPageSize, maxPageSize int, logger zerolog.Logger) AuditService {
	if defaultPageSize <= 0 {
		defaultPageSize = 50
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}

	return &auditService{
		repo:            repo,
		cache:           cache,
		cacheTTL:        cacheTTL,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger.With().Str("component", "audit_service").Logger(),
		now:             time.Now,
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) (dto.AuditLogResponse, error) {
	return s.RecordWith(ctx, s.repo, entry)
}

func (s *auditService) RecordWith(ctx context.Context, repo repository.AuditLogRepository, entry AuditEntry) (dto.AuditLogResponse, error) {
	if !entry.EventType.Valid() {
		return dto.AuditLogResponse{}, fmt.Errorf("unknown event type %q", entry.EventType)
	}

	status := entry.Status
	if status == "" {
		status = models.AuditStatusSuccess
	}

	row := models.AuditLog{
		ActorID:      entry.Actor.ID,
		ActorEmail:   entry.Actor.Email,
		UserIP:       entry.Meta.IP,
		UserAgent:    entry.Meta.UserAgent,
		EventType:    entry.EventType,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Action:       entry.Action,
		Changes:      toJSONMap(entry.Changes),
		Metadata:     toJSONMap(entry.Metadata),
		Status:       status,
	}

	if err := repo.Append(ctx, &row); err != nil {
		s.logger.Error().Err(err).
			Str("event_type", string(entry.EventType)).
			Str("actor_email", entry.Actor.Email).
			Msg("failed to append audit log")
		return dto.AuditLogResponse{}, err
	}

	observability.AuditEvents().WithLabelValues(string(row.EventType), row.Status).Inc()
	s.logger.Info().
		Str("event_type", string(row.EventType)).
		Str("actor_email", row.ActorEmail).
		Str("status", row.Status).
		Msg("audit log recorded")

	return dto.NewAuditLogResponse(row), nil
}

func (s *auditService) List(ctx context.Context, requester models.User, req dto.AuditLogListRequest) (dto.AuditLogListResponse, error) {
	// Non-admins are forcibly scoped to their own records; asking for
	// another actor is an explicit Forbidden, not a silent ignore.
	if !IsAdmin(requester) {
		if req.ActorID != nil && *req.ActorID != requester.ID {
			return dto.AuditLogListResponse{}, ErrAuditScopeForbidden
		}
		self := requester.ID
		req.ActorID = &self
	}

	return s.list(ctx, req)
}

func (s *auditService) MyHistory(ctx context.Context, requester models.User, req dto.AuditLogListRequest) (dto.AuditLogListResponse, error) {
	self := requester.ID
	req.ActorID = &self
	return s.list(ctx, req)
}

func (s *auditService) list(ctx context.Context, req dto.AuditLogListRequest) (dto.AuditLogListResponse, error) {
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

	filter := repository.AuditLogFilter{
		Page:     page,
		PageSize: pageSize,
		ActorID:  req.ActorID,
		From:     req.From,
		To:       req.To,
	}
	if req.EventType != "" {
		eventType := models.EventType(req.EventType)
		if !eventType.Valid() {
			return dto.AuditLogListResponse{}, fmt.Errorf("unknown event type %q", req.EventType)
		}
		filter.EventType = eventType
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditLogListResponse{}, err
	}

	return dto.AuditLogListResponse{
		Logs:     dto.NewAuditLogResponseSlice(entries),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *auditService) Get(ctx context.Context, requester models.User, id uuid.UUID) (dto.AuditLogResponse, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuditLogResponse{}, ErrAuditLogNotFound
		}
		return dto.AuditLogResponse{}, err
	}

	// Uniform NotFound for records the requester does not own: existence
	// is never leaked to non-admins.
	if !IsAdmin(requester) && entry.ActorID != requester.ID {
		return dto.AuditLogResponse{}, ErrAuditLogNotFound
	}

	return dto.NewAuditLogResponse(entry), nil
}

func (s *auditService) Stats(ctx context.Context, requester models.User) (dto.AuditStatsResponse, error) {
	if err := RequireAdmin(requester); err != nil {
		return dto.AuditStatsResponse{}, err
	}

	tracer := otel.Tracer("github.com/taskledger/taskledger-api/internal/service/audit")
	ctx, span := tracer.Start(ctx, "audit.stats",
		trace.WithAttributes(attribute.String("audit.requester", requester.ID.String())))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, statsCacheKey).Result()
		if err == nil {
			var response dto.AuditStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("audit.stats_cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
			span.RecordError(err)
		}
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats, err := s.repo.Stats(ctx, dayStart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit_stats_failed")
		return dto.AuditStatsResponse{}, err
	}

	response := dto.AuditStatsResponse{AuditStats: stats}
	span.SetAttributes(attribute.Int64("audit.total_events", stats.TotalEvents))

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
			}
		}
	}

	return response, nil
}

func toJSONMap(values map[string]interface{}) datatypes.JSONMap {
	if len(values) == 0 {
		return nil
	}
	out := datatypes.JSONMap{}
	for key, value := range values {
		out[key] = value
	}
	return out
}
