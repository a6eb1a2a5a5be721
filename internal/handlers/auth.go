package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"launchpad/internal/auth"
	"launchpad/internal/config"
	"launchpad/internal/database"
	"launchpad/internal/mail"
	"launchpad/internal/platform/account"
	"launchpad/pkg/utils"
)

const accessTokenExp = 3600
const refreshTokenExp = 365

type AuthToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
}

func generateTokens(db *gorm.DB, cfg *config.Config, user *database.User) (AuthToken, error) {
	const tokenType = "Bearer"

	accessToken, err := auth.GenerateJWT(user.ID, user.Email, cfg.JWTSecret, accessTokenExp*time.Second)
	if err != nil {
		return AuthToken{}, err
	}

	refreshToken := database.AuthRefreshToken{
		Token:     fmt.Sprintf("lprt%s", utils.GenerateRandomString(40)),
		UserID:    user.ID,
		ExpiredAt: time.Now().AddDate(0, 0, refreshTokenExp),
	}
	if err := db.Create(&refreshToken).Error; err != nil {
		return AuthToken{}, err
	}

	return AuthToken{
		AccessToken:  accessToken,
		TokenType:    tokenType,
		ExpiresIn:    accessTokenExp,
		ExpiresAt:    time.Now().Add(accessTokenExp * time.Second),
		RefreshToken: refreshToken.Token,
	}, nil
}

func SigninWithPassword(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	type LoginInput struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))

	user, err := coordinator.Authenticate(input.Email, input.Password)
	if err != nil {
		return accountError(c, err)
	}

	authToken, err := generateTokens(db, cfg, user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	return c.JSON(authToken)
}

func RefreshToken(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	type RefreshInput struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	var input RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	var refreshToken database.AuthRefreshToken
	result := db.First(&refreshToken, "token = ? AND expired_at > ?", input.RefreshToken, time.Now())
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	accountService := account.NewService(db)

	user, err := accountService.GetUserByID(refreshToken.UserID)
	if err != nil {
		return accountError(c, err)
	}

	// The gate still applies on refresh: a deactivated account or an
	// unconfirmed primary email cannot mint new access tokens.
	primary := user.PrimaryEmail()
	if !user.IsActive || primary == nil || !primary.IsConfirmed() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	}

	// The delete is the consume: whoever removes the row wins, a replay
	// of the same token loses and gets no new pair.
	deleted := db.Delete(&database.AuthRefreshToken{}, "token = ?", refreshToken.Token)
	if deleted.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
	if deleted.RowsAffected == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	}

	authToken, err := generateTokens(db, cfg, user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	return c.JSON(authToken)
}
