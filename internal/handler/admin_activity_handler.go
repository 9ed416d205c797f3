package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestion-box-api/internal/dto"
	"github.com/noah-isme/suggestion-box-api/internal/service"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

// AdminActivityHandler exposes activity log endpoints.
type AdminActivityHandler struct {
	service       service.ActivityService
	logger        zerolog.Logger
	exposeDetails bool
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger, exposeDetails bool) *AdminActivityHandler {
	return &AdminActivityHandler{
		service:       service,
		logger:        logger.With().Str("component", "admin_activity_handler").Logger(),
		exposeDetails: exposeDetails,
	}
}

// Register attaches activity log routes to the router group. privileged guards
// the maintenance routes.
func (h *AdminActivityHandler) Register(router fiber.Router, privileged fiber.Handler) {
	router.Get("", h.list)
	router.Get("/stats", h.stats)
	router.Get("/deprecated-count", privileged, h.deprecatedCount)
	router.Delete("/cleanup", privileged, h.cleanup)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	dateFrom, err := parseDateQuery(c, "dateFrom", false)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	dateTo, err := parseDateQuery(c, "dateTo", true)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.AdminActivityListRequest{
		Page:     page,
		Limit:    limit,
		Role:     c.Query("role"),
		Action:   c.Query("action"),
		Search:   c.Query("search"),
		DateFrom: dateFrom,
		DateTo:   dateTo,
	}

	response, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return internalError(c, h.logger, h.exposeDetails, err, "failed to list activity logs")
	}

	return utils.OK(c, response, "activity logs", fiber.Map{"pagination": response.Pagination})
}

func (h *AdminActivityHandler) stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return internalError(c, h.logger, h.exposeDetails, err, "failed to load activity statistics")
	}
	return utils.SendSuccess(c, "activity statistics", stats)
}

func (h *AdminActivityHandler) deprecatedCount(c *fiber.Ctx) error {
	count, err := h.service.DeprecatedCount(c.UserContext())
	if err != nil {
		return internalError(c, h.logger, h.exposeDetails, err, "failed to count deprecated entries")
	}
	return utils.SendSuccess(c, "deprecated activity entries", count)
}

func (h *AdminActivityHandler) cleanup(c *fiber.Ctx) error {
	result, err := h.service.CleanupDeprecated(c.UserContext())
	if err != nil {
		return internalError(c, h.logger, h.exposeDetails, err, "failed to clean up deprecated entries")
	}

	requestLogger(h.logger, c).Info().Int64("deleted", result.DeletedCount).Msg("deprecated activity entries removed")
	return utils.SendSuccess(c, "deprecated activity entries removed", result)
}
