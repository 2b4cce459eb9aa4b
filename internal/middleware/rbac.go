package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sekolah-api/internal/models"
	"github.com/noah-isme/sekolah-api/internal/utils"
)

// RequireRole rejects callers whose role is not in roles. Fine-grained ownership
// checks stay in the services.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := models.NormalizeRole(role); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role := normalizeRoleValue(c.Locals("user_role"))
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return models.NormalizeRole(v)
	case fmt.Stringer:
		return models.NormalizeRole(v.String())
	case nil:
		return ""
	default:
		return models.NormalizeRole(fmt.Sprintf("%v", value))
	}
}
