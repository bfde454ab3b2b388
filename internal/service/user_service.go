package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/taskledger/taskledger-api/internal/dto"
	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/repository"
)

// UserService exposes the admin account-management surface. Accounts are
// soft-disabled, never deleted, so the audit trail keeps resolving.
type UserService interface {
	List(ctx context.Context, requester models.User, req dto.UserListRequest) (dto.UserListResponse, error)
	Get(ctx context.Context, requester models.User, id uuid.UUID) (dto.UserResponse, error)
	Deactivate(ctx context.Context, requester models.User, id uuid.UUID) (dto.UserResponse, error)
	Activate(ctx context.Context, requester models.User, id uuid.UUID) (dto.UserResponse, error)
}

type userService struct {
	users           repository.UserRepository
	defaultPageSize int
	maxPageSize     int
	logger          zerolog.Logger
}

// NewUserService constructs the user admin service.
func NewUserService(users repository.UserRepository, defaultPageSize, maxPageSize int, logger zerolog.Logger) UserService {
	if defaultPageSize <= 0 {
		defaultPageSize = 50
	}
	if maxPageSize <= 0 {
		maxPageSize = 100
	}

	return &userService{
		users:           users,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, requester models.User, req dto.UserListRequest) (dto.UserListResponse, error) {
	if err := RequireAdmin(requester); err != nil {
		return dto.UserListResponse{}, err
	}

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

	users, total, err := s.users.List(ctx, repository.UserFilter{
		Page:     page,
		PageSize: pageSize,
		IsActive: req.IsActive,
	})
	if err != nil {
		return dto.UserListResponse{}, err
	}

	return dto.UserListResponse{
		Users:    dto.NewUserResponseSlice(users),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *userService) Get(ctx context.Context, requester models.User, id uuid.UUID) (dto.UserResponse, error) {
	if err := RequireAdmin(requester); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) Deactivate(ctx context.Context, requester models.User, id uuid.UUID) (dto.UserResponse, error) {
	return s.setActive(ctx, requester, id, false)
}

func (s *userService) Activate(ctx context.Context, requester models.User, id uuid.UUID) (dto.UserResponse, error) {
	return s.setActive(ctx, requester, id, true)
}

func (s *userService) setActive(ctx context.Context, requester models.User, id uuid.UUID, active bool) (dto.UserResponse, error) {
	if err := RequireAdmin(requester); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	if err := RequireActivationToggle(user); err != nil {
		s.logger.Warn().Str("email", user.Email).Msg("attempted activation toggle on admin account")
		return dto.UserResponse{}, err
	}

	if user.IsActive == active {
		return dto.NewUserResponse(user), nil
	}

	if err := s.users.SetActive(ctx, user.ID, active); err != nil {
		return dto.UserResponse{}, err
	}
	user.IsActive = active

	s.logger.Info().Str("email", user.Email).Bool("active", active).Msg("account activation changed")
	return dto.NewUserResponse(user), nil
}

func (s *userService) load(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
