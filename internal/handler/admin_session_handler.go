package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/suggestion-box-api/internal/dto"
	"github.com/noah-isme/suggestion-box-api/internal/middleware"
	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/service"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

const (
	logoutReasonManual     = "manual"
	sessionEndReasonClosed = "tab_closed"
)

type sessionEndRequest struct {
	Password string `json:"password"`
	Reason   string `json:"reason"`
}

// AdminSessionHandler handles staff sign-in, sign-out and presence.
type AdminSessionHandler struct {
	directory service.StaffDirectory
	presence  service.PresenceTracker
	activity  service.ActivityService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAdminSessionHandler constructs the session handler.
func NewAdminSessionHandler(directory service.StaffDirectory, presence service.PresenceTracker, activity service.ActivityService, validate *validator.Validate, logger zerolog.Logger) *AdminSessionHandler {
	return &AdminSessionHandler{
		directory: directory,
		presence:  presence,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "admin_session_handler").Logger(),
	}
}

// Register attaches session routes. auth guards every route except verify and
// session-end; verifyGuard throttles password attempts.
func (h *AdminSessionHandler) Register(router fiber.Router, auth fiber.Handler, verifyGuard fiber.Handler) {
	if verifyGuard != nil {
		router.Post("/verify", verifyGuard, h.verify)
	} else {
		router.Post("/verify", h.verify)
	}
	router.Post("/logout", auth, h.logout)
	router.Post("/heartbeat", auth, h.heartbeat)
	router.Get("/online", auth, h.online)
	router.Post("/session-end", h.sessionEnd)
}

func (h *AdminSessionHandler) verify(c *fiber.Ctx) error {
	var payload dto.AdminVerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return validationFailed(c, err)
	}

	identity, ok := h.directory.Lookup(payload.Password)
	if !ok {
		requestLogger(h.logger, c).Warn().Msg("staff verification rejected")
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	h.presence.MarkOnline(identity)
	h.activity.Append(c.UserContext(), payload.Password, activityEntry(c, models.ActionLogin, nil, models.SessionDetails{}))

	return utils.SendSuccess(c, "staff verified", identity)
}

func (h *AdminSessionHandler) logout(c *fiber.Ctx) error {
	identity, credential, ok := staffActor(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	h.presence.MarkOffline(identity.Label)
	h.activity.Append(c.UserContext(), credential, activityEntry(c, models.ActionLogout, nil, models.SessionDetails{Reason: logoutReasonManual}))

	return utils.SendSuccess(c, "logged out", nil)
}

func (h *AdminSessionHandler) heartbeat(c *fiber.Ctx) error {
	identity, _, ok := staffActor(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	h.presence.Heartbeat(identity.Label, identity)
	return utils.SendSuccess(c, "heartbeat recorded", nil)
}

func (h *AdminSessionHandler) online(c *fiber.Ctx) error {
	records := h.presence.ListOnline()
	return utils.OK(c, records, "online staff", fiber.Map{"count": len(records)})
}

// sessionEnd is hit by the dashboard's unload beacon, which cannot set custom
// headers, so the credential may also arrive in the body.
func (h *AdminSessionHandler) sessionEnd(c *fiber.Ctx) error {
	var payload sessionEndRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	credential := strings.TrimSpace(c.Get(middleware.StaffCredentialHeader))
	if credential == "" {
		credential = strings.TrimSpace(payload.Password)
	}

	identity, ok := h.directory.Lookup(credential)
	if credential == "" || !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	reason := strings.TrimSpace(payload.Reason)
	if reason == "" {
		reason = sessionEndReasonClosed
	}
	if len(reason) > 64 {
		reason = reason[:64]
	}

	h.presence.MarkOffline(identity.Label)
	h.activity.Append(c.UserContext(), credential, activityEntry(c, models.ActionSessionEnded, nil, models.SessionDetails{Reason: reason}))

	return utils.SendSuccess(c, "session ended", nil)
}
