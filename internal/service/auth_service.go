package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/taskledger/taskledger-api/internal/dto"
	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/repository"
	"github.com/taskledger/taskledger-api/internal/security"
)

// AuthService handles registration, login and logout. Audit entries for
// these flows are best-effort: a failed audit write is logged and
// swallowed, never failing the primary action.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest, meta RequestMeta) (dto.TokenResponse, error)
	Login(ctx context.Context, req dto.LoginRequest, meta RequestMeta) (dto.TokenResponse, error)
	Logout(ctx context.Context, user models.User, meta RequestMeta) error
}

type authService struct {
	users     repository.UserRepository
	hasher    *security.PasswordHasher
	tokens    *security.TokenService
	recorder  AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthService constructs the authentication service.
func NewAuthService(users repository.UserRepository, hasher *security.PasswordHasher, tokens *security.TokenService, recorder AuditRecorder, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		recorder:  recorder,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest, meta RequestMeta) (dto.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TokenResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return dto.TokenResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TokenResponse{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.RoleUser,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, &user); err != nil {
		// The unique index is the arbiter under concurrent registration.
		// GORM translates driver unique violations; the string check covers
		// drivers without translation.
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return dto.TokenResponse{}, ErrEmailTaken
		}
		return dto.TokenResponse{}, err
	}

	s.logger.Info().Str("email", user.Email).Msg("user registered")
	s.recordBestEffort(ctx, NewRegistrationEntry(user, meta))

	return s.tokenResponse(user)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, meta RequestMeta) (dto.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TokenResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same signal as a wrong password: no email-existence oracle.
			return dto.TokenResponse{}, ErrInvalidCredentials
		}
		return dto.TokenResponse{}, err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.logger.Warn().Str("email", user.Email).Msg("failed login attempt")
		s.recordBestEffort(ctx, NewLoginEntry(user, meta, false))
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn().Str("email", user.Email).Msg("login blocked for inactive account")
		return dto.TokenResponse{}, ErrAccountInactive
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Login still succeeds when the timestamp update fails.
		s.logger.Error().Err(err).Str("email", user.Email).Msg("failed to update last login")
	} else {
		user.LastLogin = &now
	}

	response, err := s.tokenResponse(user)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	s.recordBestEffort(ctx, NewLoginEntry(user, meta, true))
	s.logger.Info().Str("email", user.Email).Msg("login successful")

	return response, nil
}

func (s *authService) Logout(ctx context.Context, user models.User, meta RequestMeta) error {
	// Tokens are stateless; there is nothing to invalidate server-side.
	// The audit row is the whole point of the operation.
	s.recordBestEffort(ctx, NewLogoutEntry(user, meta))
	s.logger.Info().Str("email", user.Email).Msg("user logged out")
	return nil
}

func (s *authService) tokenResponse(user models.User) (dto.TokenResponse, error) {
	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return dto.TokenResponse{}, err
	}

	return dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        dto.NewUserResponse(user),
	}, nil
}

func (s *authService) recordBestEffort(ctx context.Context, entry AuditEntry) {
	if _, err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("event_type", string(entry.EventType)).
			Msg("audit write failed for authentication event")
	}
}
