package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestion-box-api/internal/dto"
	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/service"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

// AdminSuggestionHandler exposes staff triage endpoints.
type AdminSuggestionHandler struct {
	service       service.AdminSuggestionService
	activity      service.ActivityService
	logger        zerolog.Logger
	exposeDetails bool
}

// NewAdminSuggestionHandler constructs the handler.
func NewAdminSuggestionHandler(service service.AdminSuggestionService, activity service.ActivityService, logger zerolog.Logger, exposeDetails bool) *AdminSuggestionHandler {
	return &AdminSuggestionHandler{
		service:       service,
		activity:      activity,
		logger:        logger.With().Str("component", "admin_suggestion_handler").Logger(),
		exposeDetails: exposeDetails,
	}
}

// Register attaches routes. The router is expected to be behind staff auth.
func (h *AdminSuggestionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/bulk-delete", h.bulkDelete)
	router.Get("/:id", h.get)
	router.Put("/:id/status", h.updateStatus)
	router.Put("/:id/priority", h.updatePriority)
	router.Put("/:id/read", h.markRead)
	router.Put("/:id/archive", h.toggleArchive)
	router.Delete("/:id", h.delete)
}

// Stats serves the dashboard counters.
func (h *AdminSuggestionHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return internalError(c, h.logger, h.exposeDetails, err, "failed to load statistics")
	}
	return utils.SendSuccess(c, "suggestion statistics", stats)
}

func (h *AdminSuggestionHandler) list(c *fiber.Ctx) error {
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

	req := dto.AdminSuggestionListRequest{
		Page:     page,
		Limit:    limit,
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Sort:     c.Query("sort"),
		Archived: c.Query("archived"),
		Identity: c.Query("identity"),
	}

	result, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return internalError(c, h.logger, h.exposeDetails, err, "failed to list suggestions")
	}

	meta := fiber.Map{
		"pagination": result.Pagination,
		"filters": fiber.Map{
			"category": req.Category,
			"status":   req.Status,
			"search":   req.Search,
			"sort":     req.Sort,
			"archived": req.Archived,
			"identity": req.Identity,
		},
	}

	return utils.OK(c, result, "suggestions retrieved", meta)
}

func (h *AdminSuggestionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid suggestion id")
	}

	suggestion, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondSuggestionError(c, h.logger, h.exposeDetails, err, "failed to fetch suggestion")
	}

	return utils.SendSuccess(c, "suggestion retrieved", suggestion)
}

func (h *AdminSuggestionHandler) updateStatus(c *fiber.Ctx) error {
	identity, credential, ok := staffActor(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid suggestion id")
	}

	var payload dto.AdminStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	change, err := h.service.UpdateStatus(c.UserContext(), id, identity, payload)
	if err != nil {
		return respondSuggestionError(c, h.logger, h.exposeDetails, err, "failed to update status")
	}

	h.activity.Append(c.UserContext(), credential, activityEntry(c, models.ActionUpdateStatus, summaryOf(change.Suggestion), models.StatusChangeDetails{
		OldStatus: change.OldStatus,
		NewStatus: change.Applied.Status,
		Notes:     change.Applied.Notes,
	}))

	return utils.SendSuccess(c, "status updated", change.Suggestion)
}

func (h *AdminSuggestionHandler) updatePriority(c *fiber.Ctx) error {
	_, credential, ok := staffActor(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid suggestion id")
	}

	var payload dto.AdminPriorityUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	change, err := h.service.UpdatePriority(c.UserContext(), id, payload)
	if err != nil {
		return respondSuggestionError(c, h.logger, h.exposeDetails, err, "failed to update priority")
	}

	h.activity.Append(c.UserContext(), credential, activityEntry(c, models.ActionUpdatePriority, summaryOf(change.Suggestion), models.PriorityChangeDetails{
		OldPriority: change.OldPriority,
		NewPriority: models.SuggestionPriority(change.Suggestion.Priority),
	}))

	return utils.SendSuccess(c, "priority updated", change.Suggestion)
}

func (h *AdminSuggestionHandler) markRead(c *fiber.Ctx) error {
	identity, credential, ok := staffActor(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid suggestion id")
	}

	change, err := h.service.MarkRead(c.UserContext(), id, identity)
	if err != nil {
		return respondSuggestionError(c, h.logger, h.exposeDetails, err, "failed to mark suggestion as read")
	}

	if change.Changed && change.Suggestion.ReadAt != nil {
		h.activity.Append(c.UserContext(), credential, activityEntry(c, models.ActionMarkRead, summaryOf(change.Suggestion), models.ReadDetails{
			ReadAt: *change.Suggestion.ReadAt,
		}))
	}

	return utils.SendSuccess(c, "suggestion marked as read", change.Suggestion)
}

func (h *AdminSuggestionHandler) toggleArchive(c *fiber.Ctx) error {
	identity, credential, ok := staffActor(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid suggestion id")
	}

	change, err := h.service.ToggleArchive(c.UserContext(), id, identity)
	if err != nil {
		return respondSuggestionError(c, h.logger, h.exposeDetails, err, "failed to toggle archive")
	}

	action := models.ActionArchiveSuggestion
	message := "suggestion archived"
	if !change.Suggestion.IsArchived {
		action = models.ActionUnarchiveSuggestion
		message = "suggestion restored from archive"
	}
	h.activity.Append(c.UserContext(), credential, activityEntry(c, action, summaryOf(change.Suggestion), models.ArchiveDetails{
		WasArchived: change.WasArchived,
		IsArchived:  change.Suggestion.IsArchived,
	}))

	return utils.SendSuccess(c, message, change.Suggestion)
}

func (h *AdminSuggestionHandler) delete(c *fiber.Ctx) error {
	_, credential, ok := staffActor(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid suggestion id")
	}

	summary, err := h.service.Delete(c.UserContext(), id)
	if err != nil {
		return respondSuggestionError(c, h.logger, h.exposeDetails, err, "failed to delete suggestion")
	}

	h.activity.Append(c.UserContext(), credential, activityEntry(c, models.ActionDeleteSuggestion, &summary, models.DeletionDetails{
		Title:        summary.Title,
		TrackingCode: summary.TrackingCode,
	}))

	return utils.SendSuccess(c, "suggestion deleted", summary)
}

func (h *AdminSuggestionHandler) bulkDelete(c *fiber.Ctx) error {
	_, credential, ok := staffActor(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.AdminBulkDeleteRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.BulkDelete(c.UserContext(), payload)
	if err != nil {
		return respondSuggestionError(c, h.logger, h.exposeDetails, err, "failed to delete suggestions")
	}

	if result.DeletedCount > 0 {
		h.activity.Append(c.UserContext(), credential, activityEntry(c, models.ActionBulkDelete, nil, models.BulkDeleteDetails{
			Count:              int(result.DeletedCount),
			DeletedSuggestions: result.Deleted,
		}))
	}

	return utils.SendSuccess(c, "suggestions deleted", result)
}

func summaryOf(suggestion dto.AdminSuggestionResponse) *models.SuggestionSummary {
	return &models.SuggestionSummary{
		ID:           suggestion.ID,
		Title:        suggestion.Title,
		TrackingCode: suggestion.TrackingCode,
	}
}
