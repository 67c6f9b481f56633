package middleware

import (
	"strings"

	"alumnet/internal/config"
	"alumnet/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes identity middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// IdentityRequired enforces a verified bearer token on protected routes.
// The token's "sub" claim carries the opaque member id and the remaining
// claims carry the member's display snapshot. Authentication flows (login,
// token issuance) live in an external service; this middleware only verifies.
func IdentityRequired(c *fiber.Ctx) error {
	snapshot, userID, err := identityFromHeader(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Locals("userID", userID)
	c.Locals("author", snapshot)
	return c.Next()
}

// IdentityOptional extracts identity when a valid token is present and
// passes the request through anonymously otherwise.
func IdentityOptional(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		return c.Next()
	}
	snapshot, userID, err := identityFromHeader(c)
	if err == nil {
		c.Locals("userID", userID)
		c.Locals("author", snapshot)
	}
	return c.Next()
}

func identityFromHeader(c *fiber.Ctx) (models.AuthorSnapshot, string, error) {
	var snapshot models.AuthorSnapshot

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return snapshot, "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header required")
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return snapshot, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return snapshot, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return snapshot, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return snapshot, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token structure - missing subject")
	}

	snapshot = models.AuthorSnapshot{
		Name:        claimString(claims, "name"),
		PhotoURL:    claimString(claims, "photo_url"),
		Batch:       claimString(claims, "batch"),
		Designation: claimString(claims, "designation"),
		Company:     claimString(claims, "company"),
	}
	if snapshot.Name == "" {
		return snapshot, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token structure - missing display name")
	}

	return snapshot, sub, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
