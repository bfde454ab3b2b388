package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskledger/taskledger-api/internal/dto"
	"github.com/taskledger/taskledger-api/internal/middleware"
	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/service"
	"github.com/taskledger/taskledger-api/internal/utils"
)

// AuditHandler wires the audit ledger HTTP routes.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches audit endpoints to the router group. The stats route
// carries its own admin guard since the rest of the group is open to any
// authenticated user.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/logs", h.list)
	router.Get("/logs/:id", h.get)
	router.Get("/my-history", h.myHistory)
	router.Get("/stats", middleware.RequireAdmin(), h.stats)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	query, err := parseAuditListQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.List(c.Context(), identity, query)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "audit logs retrieved", response)
}

func (h *AuditHandler) get(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.Get(c.Context(), identity, id)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "audit log retrieved", response)
}

func (h *AuditHandler) myHistory(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	query, err := parseAuditListQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.service.MyHistory(c.Context(), identity, query)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "audit history retrieved", response)
}

func (h *AuditHandler) stats(c *fiber.Ctx) error {
	identity, ok := middleware.IdentityFromCtx(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	response, err := h.service.Stats(c.Context(), identity)
	if err != nil {
		return mapServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "audit stats retrieved", response)
}

// parseAuditListQuery reads the ledger filters by hand: the uuid and
// RFC 3339 timestamp fields are not covered by the generic query decoder,
// and the event kind is checked against the closed enumeration so bad
// input is refused before it reaches the service.
func parseAuditListQuery(c *fiber.Ctx) (dto.AuditLogListRequest, error) {
	query := dto.AuditLogListRequest{
		Page:     c.QueryInt("page"),
		PageSize: c.QueryInt("page_size"),
	}

	if raw := c.Query("event_type"); raw != "" {
		if !models.EventType(raw).Valid() {
			return dto.AuditLogListRequest{}, errors.New("invalid event_type parameter")
		}
		query.EventType = raw
	}

	if raw := c.Query("actor_id"); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			return dto.AuditLogListRequest{}, errors.New("invalid actor_id parameter")
		}
		query.ActorID = &actorID
	}

	if raw := c.Query("start_date"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return dto.AuditLogListRequest{}, errors.New("invalid start_date parameter")
		}
		query.From = &from
	}

	if raw := c.Query("end_date"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return dto.AuditLogListRequest{}, errors.New("invalid end_date parameter")
		}
		query.To = &to
	}

	return query, nil
}
