package web

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/agentdash/agentdash/pkg/models"
)

const principalKey = "principal"

// TokenResolver maps a bearer token to an already-authenticated principal.
// Token issuance lives outside this service; the API only resolves
// provisioned tokens.
type TokenResolver interface {
	Resolve(token string) (models.Principal, bool)
}

// StaticTokens is a TokenResolver over a fixed provisioned token set.
type StaticTokens map[string]models.Principal

func (t StaticTokens) Resolve(token string) (models.Principal, bool) {
	principal, ok := t[token]

	return principal, ok
}

// Authenticate resolves the Authorization bearer token into a principal and
// stores it on the request context.
func Authenticate(resolver TokenResolver) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return unauthorized(c, "Missing or malformed bearer token")
		}

		principal, ok := resolver.Resolve(token)
		if !ok {
			return unauthorized(c, "Invalid bearer token")
		}

		c.Locals(principalKey, principal)

		return c.Next()
	}
}

// RequireRole rejects principals below the required role.
func RequireRole(required models.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		principal, ok := c.Locals(principalKey).(models.Principal)
		if !ok {
			return unauthorized(c, "Missing or malformed bearer token")
		}

		if !principal.Role.AtLeast(required) {
			return forbidden(c, "Insufficient permissions")
		}

		return c.Next()
	}
}

// principalID returns the authenticated caller's id, empty when the route
// runs without authentication.
func principalID(c fiber.Ctx) string {
	principal, ok := c.Locals(principalKey).(models.Principal)
	if !ok {
		return ""
	}

	return principal.ID
}
