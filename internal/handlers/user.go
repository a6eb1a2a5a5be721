package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"launchpad/internal/config"
	"launchpad/internal/database"
	"launchpad/internal/mail"
	"launchpad/internal/platform/account"
	"launchpad/internal/platform/storage"
)

func CreateUser(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	type RegisterInput struct {
		Email      string  `json:"email" validate:"required,email"`
		Password   string  `json:"password" validate:"required,min=6"`
		GivenName  *string `json:"given_name"`
		FamilyName *string `json:"family_name"`
	}

	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))

	user, err := coordinator.Register(account.CreateUserInput{
		Email:      input.Email,
		Password:   input.Password,
		GivenName:  input.GivenName,
		FamilyName: input.FamilyName,
	})
	if err != nil {
		return accountError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(database.User)

	return c.JSON(user)
}

func UpdateCurrentUser(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)
	user := c.Locals("user").(database.User)

	type UpdateInput struct {
		GivenName  *string `json:"given_name"`
		FamilyName *string `json:"family_name"`
	}

	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	accountService := account.NewService(db)
	if err := accountService.UpdateProfile(&user, input.GivenName, input.FamilyName); err != nil {
		return accountError(c, err)
	}

	return c.JSON(user)
}

func UploadAvatar(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)
	user := c.Locals("user").(database.User)

	file, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing avatar file"})
	}

	storageService := storage.NewService(cfg.Storage())
	if !storageService.IsImage(file.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "File type not allowed"})
	}

	key := storageService.AvatarKey(user.ID)
	if err := storageService.SaveFile(c, file, key); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	accountService := account.NewService(db)
	if err := accountService.UpdateAvatar(&user, key); err != nil {
		return accountError(c, err)
	}

	return c.JSON(user.Profile)
}

// RecoverPassword accepts a password recovery request. The response is
// accepted no matter whether the address belongs to an account.
func RecoverPassword(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	type RecoverInput struct {
		Email string `json:"email" validate:"required,email"`
	}

	var input RecoverInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))
	if err := coordinator.RequestPasswordRecovery(input.Email); err != nil {
		return accountError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func ResetPassword(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	type ResetInput struct {
		UserID     string `json:"user_id"`
		ResetToken string `json:"reset_token"`
		Password1  string `json:"password_1"`
		Password2  string `json:"password_2"`
	}

	var input ResetInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))

	user, err := coordinator.ResetPassword(input.UserID, input.ResetToken, input.Password1, input.Password2)
	if err != nil {
		return accountError(c, err)
	}

	return c.JSON(user)
}
