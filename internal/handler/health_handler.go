package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/suggestion-box-api/internal/config"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Service        string    `json:"service"`
	Environment    string    `json:"environment"`
	Classification bool      `json:"classificationEnabled"`
	Attachments    bool      `json:"attachmentsEnabled"`
	StatsCache     bool      `json:"statsCacheEnabled"`
}

// HealthCheck reports liveness plus which optional collaborators are configured.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:         "ok",
			Timestamp:      time.Now().UTC(),
			Service:        cfg.AppName,
			Environment:    cfg.AppEnv,
			Classification: cfg.OpenAIAPIKey != "",
			Attachments:    cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "",
			StatsCache:     cfg.RedisURL != "",
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
