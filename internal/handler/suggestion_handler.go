package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestion-box-api/internal/dto"
	"github.com/noah-isme/suggestion-box-api/internal/service"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

// SuggestionHandler serves the public intake and tracking endpoints.
type SuggestionHandler struct {
	service       service.SuggestionService
	logger        zerolog.Logger
	exposeDetails bool
}

// NewSuggestionHandler constructs the public suggestion handler.
func NewSuggestionHandler(service service.SuggestionService, logger zerolog.Logger, exposeDetails bool) *SuggestionHandler {
	return &SuggestionHandler{
		service:       service,
		logger:        logger.With().Str("component", "suggestion_handler").Logger(),
		exposeDetails: exposeDetails,
	}
}

// Register attaches routes. intakeGuards run in front of the submit route only.
func (h *SuggestionHandler) Register(router fiber.Router, intakeGuards ...fiber.Handler) {
	submit := append(append([]fiber.Handler{}, intakeGuards...), h.create)
	router.Post("", submit...)
	router.Get("/track/:code", h.track)
}

func (h *SuggestionHandler) create(c *fiber.Ctx) error {
	var payload dto.SuggestionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	created, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		if isValidationError(err) {
			return validationFailed(c, err)
		}
		if errors.Is(err, service.ErrTrackingCodeExhausted) {
			requestLogger(h.logger, c).Error().Err(err).Msg("tracking code allocation exhausted")
		}
		return internalError(c, h.logger, h.exposeDetails, err, "failed to submit suggestion")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "suggestion submitted", created)
}

func (h *SuggestionHandler) track(c *fiber.Ctx) error {
	suggestion, err := h.service.Track(c.UserContext(), c.Params("code"))
	if err != nil {
		if errors.Is(err, service.ErrSuggestionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "suggestion not found")
		}
		return internalError(c, h.logger, h.exposeDetails, err, "failed to track suggestion")
	}

	return utils.SendSuccess(c, "suggestion retrieved", suggestion)
}
