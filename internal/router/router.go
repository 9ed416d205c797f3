package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/suggestion-box-api/internal/config"
	"github.com/noah-isme/suggestion-box-api/internal/handler"
	"github.com/noah-isme/suggestion-box-api/internal/middleware"
	"github.com/noah-isme/suggestion-box-api/internal/observability"
)

const (
	submitWindow = time.Minute
	verifyWindow = 15 * time.Minute
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SuggestionHandler      *handler.SuggestionHandler
	AdminSessionHandler    *handler.AdminSessionHandler
	AdminSuggestionHandler *handler.AdminSuggestionHandler
	AdminActivityHandler   *handler.AdminActivityHandler
	StaffResolver          middleware.StaffResolver
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Public intake
	if deps.SuggestionHandler != nil {
		suggestions := api.Group("/suggestions")
		deps.SuggestionHandler.Register(suggestions, middleware.RateLimit("suggestion-submit", cfg.SubmitRateLimit, submitWindow))
	}

	if deps.StaffResolver == nil {
		return
	}

	staffAuth := middleware.StaffAuth(deps.StaffResolver)
	admin := api.Group("/admin")

	// Sessions & presence
	if deps.AdminSessionHandler != nil {
		deps.AdminSessionHandler.Register(admin, staffAuth, middleware.RateLimit("staff-verify", cfg.VerifyRateLimit, verifyWindow))
	}

	// Triage
	if deps.AdminSuggestionHandler != nil {
		admin.Get("/stats", staffAuth, deps.AdminSuggestionHandler.Stats)
		deps.AdminSuggestionHandler.Register(admin.Group("/suggestions", staffAuth))
	}

	// Activity ledger
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activity-logs", staffAuth), middleware.RequireRole(cfg.PrivilegedRole))
	}
}
