package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"launchpad/internal/auth"
	"launchpad/internal/config"
	"launchpad/internal/database"
)

const (
	AuthProviderJWT      = "jwt"
	AuthProviderAPIToken = "api_token"
)

const (
	HeaderXAPIKey = "X-API-Key"
)

func AuthMiddleware(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	xAPIKey := c.Get(HeaderXAPIKey)
	if xAPIKey != "" {
		var user database.User
		result := db.Joins("JOIN account.auth_key ON account.auth_key.user_id = account.user.id").
			Where("account.auth_key.key = ?", xAPIKey).
			Preload("Profile").
			Preload("Emails").
			First(&user)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "Unauthorized",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal server error",
			})
		}

		c.Locals("auth_provider", AuthProviderAPIToken)
		c.Locals("user", user)

		return c.Next()
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := auth.VerifyJWT(token, cfg.JWTSecret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	var user database.User
	result := db.Preload("Profile").Preload("Emails").First(&user, "id = ?", claims["id"])
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}

	c.Locals("auth_provider", AuthProviderJWT)
	c.Locals("user", user)

	return c.Next()
}
