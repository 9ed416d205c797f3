package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

// RequireRole lets the request through only when the identity bound by
// StaffAuth holds one of the given roles. It must run after StaffAuth.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[models.StaffRole]struct{}, len(roles))
	for _, role := range roles {
		normalized := models.StaffRole(strings.ToLower(strings.TrimSpace(role)))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := StaffIdentityFromContext(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
		}
		if _, permitted := allowed[identity.Role]; !permitted {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
