package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/campus-assoc/backend/internal/audit"
	"github.com/campus-assoc/backend/internal/auth"
	"github.com/campus-assoc/backend/internal/config"
	"github.com/campus-assoc/backend/internal/rbac"
)

const (
	CtxUserID   = "user_id"
	CtxUserName = "username"
	CtxRoles    = "roles"
)

// AuthMiddleware validates the bearer token and makes the caller the audit
// principal of every write made while serving the request.
func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxUserID, claims.UserID)
		c.Locals(CtxUserName, claims.UserName)
		c.Locals(CtxRoles, claims.Roles)
		c.SetUserContext(audit.WithPrincipal(c.UserContext(), audit.Principal{
			ID:   claims.UserID,
			Name: claims.UserName,
		}))

		return c.Next()
	}
}

// bearerToken reads the token from the Authorization header, or from the
// token query parameter for websocket upgrades.
func bearerToken(c *fiber.Ctx) (string, bool) {
	if h := c.Get("Authorization"); h != "" {
		tok := strings.TrimPrefix(h, "Bearer ")
		return tok, tok != h && tok != ""
	}
	if tok := c.Query("token"); tok != "" && strings.EqualFold(c.Get("Upgrade"), "websocket") {
		return tok, true
	}
	return "", false
}

func GetUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(CtxUserID).(string)
	return id
}

func GetUserName(c *fiber.Ctx) string {
	name, _ := c.Locals(CtxUserName).(string)
	return name
}

func GetRoles(c *fiber.Ctx) []string {
	roles, _ := c.Locals(CtxRoles).([]string)
	return roles
}

// RequirePermission rejects callers none of whose roles grant perm.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rbac.AnyHasPermission(GetRoles(c), perm) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient permissions"})
		}
		return c.Next()
	}
}
