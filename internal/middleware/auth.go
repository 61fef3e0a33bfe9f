// Package middleware provides HTTP middleware for the fiber app:
// JWT authentication and role gating.
package middleware

import (
	"strings"

	"catalyst/internal/models"
	"catalyst/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// Auth validates the Bearer token and stores the claims in the request
// context under "claims" and "userID".
func Auth(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return utils.Unauthorized(c, "invalid token")
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// AdminOnly requires Auth to have run first and rejects non-admin roles.
func AdminOnly(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "missing claims")
	}
	if !claims.IsAdmin() {
		return utils.Forbidden(c, "admin access required")
	}
	return c.Next()
}
