package mngmt

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"launchpad/internal/config"
	"launchpad/internal/database"
	"launchpad/internal/mail"
	"launchpad/internal/platform/account"
	"launchpad/pkg/utils"
)

func CreateUser(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	type UserInput struct {
		Email       string  `json:"email" validate:"required,email"`
		Password    string  `json:"password" validate:"required,min=6"`
		GivenName   *string `json:"given_name"`
		FamilyName  *string `json:"family_name"`
		IsStaff     bool    `json:"is_staff"`
		IsSuperuser bool    `json:"is_superuser"`
	}

	var input UserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))

	user, err := coordinator.Register(account.CreateUserInput{
		Email:       input.Email,
		Password:    input.Password,
		GivenName:   input.GivenName,
		FamilyName:  input.FamilyName,
		IsStaff:     input.IsStaff,
		IsSuperuser: input.IsSuperuser,
	})
	if err != nil {
		return accountError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func GetAllUsers(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	var users []database.User
	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)
	result := db.Preload("Profile").Limit(limit).Offset(offset).Find(&users)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	return c.JSON(users)
}

func GetUser(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	accountService := account.NewService(db)

	uid, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}
	user, err := accountService.GetUserByID(uid)
	if err != nil {
		return accountError(c, err)
	}

	return c.JSON(user)
}

// CreateUserEmail attaches an address to a user on their behalf. The
// address still has to be confirmed by its owner.
func CreateUserEmail(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	accountService := account.NewService(db)

	uid, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}
	user, err := accountService.GetUserByID(uid)
	if err != nil {
		return accountError(c, err)
	}

	type EmailInput struct {
		Address string `json:"address" validate:"required,email"`
	}

	var input EmailInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	email, err := accountService.AddEmail(user, input.Address, database.EmailOriginAdmin)
	if err != nil {
		return accountError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(email)
}

func ResetUserPassword(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	accountService := account.NewService(db)

	type ResetPasswordInput struct {
		Password string `json:"password" validate:"required,min=6"`
	}

	var input ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	uid, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid user ID"})
	}
	user, err := accountService.GetUserByID(uid)
	if err != nil {
		return accountError(c, err)
	}

	if err := accountService.UpdatePassword(user, input.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func CreateAuthKey(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	var user database.User
	result := db.First(&user, "id = ?", c.Params("user_id"))
	if result.Error != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "User not found"})
	}

	authKey := database.AuthKey{
		Key:    fmt.Sprintf("lpsk.%s", utils.GenerateRandomString(32)),
		UserID: user.ID,
	}

	result = db.Create(&authKey)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	return c.JSON(authKey)
}
