package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/suggestion-box-api/internal/models"
	"github.com/noah-isme/suggestion-box-api/internal/utils"
)

// StaffCredentialHeader carries the shared staff secret.
const StaffCredentialHeader = "X-Admin-Password"

const (
	localStaffIdentity   = "staff_identity"
	localStaffCredential = "staff_credential"
)

// StaffResolver maps a shared secret to a staff identity.
type StaffResolver interface {
	Lookup(secret string) (models.StaffIdentity, bool)
}

// StaffAuth rejects requests whose credential header does not resolve to a staff identity.
// Missing and wrong credentials are indistinguishable to the caller.
func StaffAuth(resolver StaffResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		credential := strings.TrimSpace(c.Get(StaffCredentialHeader))
		if credential == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
		}

		identity, ok := resolver.Lookup(credential)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
		}

		c.Locals(localStaffIdentity, identity)
		c.Locals(localStaffCredential, credential)

		return c.Next()
	}
}

// StaffIdentityFromContext returns the identity bound by StaffAuth.
func StaffIdentityFromContext(c *fiber.Ctx) (models.StaffIdentity, bool) {
	if v := c.Locals(localStaffIdentity); v != nil {
		if identity, ok := v.(models.StaffIdentity); ok {
			return identity, true
		}
	}
	return models.StaffIdentity{}, false
}

// StaffCredentialFromContext returns the raw credential accepted by StaffAuth.
func StaffCredentialFromContext(c *fiber.Ctx) string {
	if v := c.Locals(localStaffCredential); v != nil {
		if credential, ok := v.(string); ok {
			return credential
		}
	}
	return ""
}
