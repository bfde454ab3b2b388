package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/repository"
	"github.com/taskledger/taskledger-api/internal/security"
)

// IdentityResolver maps a bearer token to a live user record.
type IdentityResolver interface {
	// Resolve returns the identity behind the token. Bad tokens and
	// unknown subjects yield ErrUnauthenticated; a valid token for a
	// deactivated account yields ErrAccountInactive — the distinction
	// drives 401 vs 403 at the transport layer.
	Resolve(ctx context.Context, token string) (models.User, error)
	// ResolveOptional never fails: any break in the chain degrades to nil,
	// for endpoints that tolerate anonymous access.
	ResolveOptional(ctx context.Context, token string) *models.User
}

type identityService struct {
	tokens *security.TokenService
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewIdentityService constructs the identity resolver.
func NewIdentityService(tokens *security.TokenService, users repository.UserRepository, logger zerolog.Logger) IdentityResolver {
	return &identityService{
		tokens: tokens,
		users:  users,
		logger: logger.With().Str("component", "identity_service").Logger(),
	}
}

func (s *identityService) Resolve(ctx context.Context, token string) (models.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return models.User{}, ErrUnauthenticated
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return models.User{}, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Msg("failed to load identity")
		}
		return models.User{}, ErrUnauthenticated
	}

	if !user.IsActive {
		s.logger.Warn().Str("email", user.Email).Msg("inactive account attempted access")
		return models.User{}, ErrAccountInactive
	}

	return user, nil
}

func (s *identityService) ResolveOptional(ctx context.Context, token string) *models.User {
	if token == "" {
		return nil
	}

	user, err := s.Resolve(ctx, token)
	if err != nil {
		return nil
	}

	return &user
}
