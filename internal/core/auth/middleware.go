package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	localUserID = "userID"
	localEmail  = "email"
	localRole   = "role"
	localClaims = "claims"
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func storeClaims(c *fiber.Ctx, claims *TokenClaims) {
	userID, _ := uuid.Parse(claims.UserID)
	c.Locals(localUserID, userID)
	c.Locals(localEmail, claims.Email)
	c.Locals(localRole, claims.Role)
	c.Locals(localClaims, claims)
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format. Use: Bearer <token>",
			})
		}

		claims, err := authService.ValidateToken(c.UserContext(), token)
		if errors.Is(err, ErrAccountDisabled) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Account is disabled",
			})
		}
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}
		if claims.Role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Session has no role",
			})
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth stores claims when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if claims, err := authService.ValidateToken(c.UserContext(), token); err == nil {
				storeClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// RequireRole creates a middleware that checks if user has required role
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleStr, ok := c.Locals(localRole).(string)
		if !ok || roleStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		for _, role := range roles {
			if roleStr == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}

// UserID returns the authenticated user's id from the request locals.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(localUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// Role returns the authenticated user's role, or "".
func Role(c *fiber.Ctx) string {
	role, _ := c.Locals(localRole).(string)
	return role
}

// Claims returns the validated token claims, or nil.
func Claims(c *fiber.Ctx) *TokenClaims {
	claims, _ := c.Locals(localClaims).(*TokenClaims)
	return claims
}
