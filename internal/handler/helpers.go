package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskledger/taskledger-api/internal/service"
	"github.com/taskledger/taskledger-api/internal/utils"
)

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := c.Params(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

// requestMeta captures the network origin of the request for the audit
// trail. The first X-Forwarded-For entry wins over the direct connection
// address; when neither is present the origin stays empty.
func requestMeta(c *fiber.Ctx) service.RequestMeta {
	meta := service.RequestMeta{
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}

	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		meta.IP = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	} else {
		meta.IP = c.IP()
	}

	return meta
}

// mapServiceError translates service sentinel errors into HTTP responses.
// Unknown errors are logged in full and surfaced as a generic 500 so no
// storage detail leaks to the client.
func mapServiceError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(validationErrs))
	}

	switch {
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrAuditScopeForbidden),
		errors.Is(err, service.ErrCannotToggleAdmin):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrAuditLogNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled service error")
		return utils.SendError(c, fiber.StatusInternalServerError, "an internal error occurred")
	}
}

func validationMessage(errs validator.ValidationErrors) string {
	fields := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		fields = append(fields, strings.ToLower(fieldErr.Field()))
	}
	return fmt.Sprintf("invalid request: %s", strings.Join(fields, ", "))
}
