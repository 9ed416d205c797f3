package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestion-box-api/internal/middleware"
	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/service"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

const dateLayout = "2006-01-02"

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Params(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(value), nil
}

// parseDateQuery accepts YYYY-MM-DD or RFC3339. A bare date used as an upper
// bound is widened to the last instant of that day.
func parseDateQuery(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}

	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

func validationFailed(c *fiber.Ctx, err error) error {
	return utils.Fail(c, fiber.StatusBadRequest, "validation failed", utils.ValidationDetails(err))
}

// internalError logs err and answers 500. The error text is only attached when
// the deployment runs in development mode.
func internalError(c *fiber.Ctx, logger zerolog.Logger, exposeDetails bool, err error, message string) error {
	requestLogger(logger, c).Error().Err(err).Str("route", c.Path()).Msg(message)

	var details interface{}
	if exposeDetails {
		details = fiber.Map{"error": err.Error()}
	}
	return utils.Fail(c, fiber.StatusInternalServerError, message, details)
}

// respondSuggestionError maps service errors shared by every suggestion endpoint.
func respondSuggestionError(c *fiber.Ctx, logger zerolog.Logger, exposeDetails bool, err error, message string) error {
	switch {
	case isValidationError(err):
		return validationFailed(c, err)
	case errors.Is(err, service.ErrSuggestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "suggestion not found")
	case errors.Is(err, service.ErrInvalidSuggestionID):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid suggestion id")
	case errors.Is(err, service.ErrEmptyBulkDelete):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return internalError(c, logger, exposeDetails, err, message)
	}
}

// staffActor returns the identity and credential bound by the staff auth middleware.
func staffActor(c *fiber.Ctx) (models.StaffIdentity, string, bool) {
	identity, ok := middleware.StaffIdentityFromContext(c)
	if !ok {
		return models.StaffIdentity{}, "", false
	}
	return identity, middleware.StaffCredentialFromContext(c), true
}

func activityEntry(c *fiber.Ctx, action models.ActivityAction, suggestion *models.SuggestionSummary, details models.ActivityDetails) service.ActivityEntry {
	return service.ActivityEntry{
		Action:     action,
		Suggestion: suggestion,
		Details:    details,
		IPAddress:  c.IP(),
		UserAgent:  string(c.Request().Header.UserAgent()),
	}
}
