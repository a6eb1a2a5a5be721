package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"launchpad/internal/config"
	"launchpad/internal/database"
	"launchpad/internal/mail"
	"launchpad/internal/platform/account"
)

type emailResponse struct {
	ID          uuid.UUID  `json:"id"`
	Address     string     `json:"address"`
	Origin      string     `json:"origin"`
	IsPrimary   bool       `json:"is_primary"`
	IsConfirmed bool       `json:"is_confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
}

func newEmailResponse(email *database.Email, owner *database.User) emailResponse {
	return emailResponse{
		ID:          email.ID,
		Address:     email.Address,
		Origin:      email.Origin,
		IsPrimary:   email.IsPrimary(owner),
		IsConfirmed: email.IsConfirmed(),
		ConfirmedAt: email.ConfirmedAt,
	}
}

// ownEmailFromParams loads the email addressed by the :id parameter,
// refusing records that belong to another user. Foreign emails read as
// not found, not as forbidden.
func ownEmailFromParams(c *fiber.Ctx, db *gorm.DB, user *database.User) (*database.Email, error) {
	emailID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, account.ErrNotFound
	}

	email, err := account.NewService(db).GetEmailByID(emailID)
	if err != nil {
		return nil, err
	}
	if email.UserID != user.ID {
		return nil, account.ErrNotFound
	}

	return email, nil
}

func CreateEmail(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)
	user := c.Locals("user").(database.User)

	type CreateEmailInput struct {
		Address string `json:"address" validate:"required,email"`
	}

	var input CreateEmailInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))

	email, err := coordinator.AddEmail(&user, input.Address)
	if err != nil {
		return accountError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newEmailResponse(email, &user))
}

func ListEmails(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)
	user := c.Locals("user").(database.User)

	var emails []database.Email
	if err := db.Order("address").Find(&emails, "user_id = ?", user.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	response := make([]emailResponse, 0, len(emails))
	for i := range emails {
		response = append(response, newEmailResponse(&emails[i], &user))
	}

	return c.JSON(response)
}

// ConfirmEmail confirms an email against its confirmation code. The
// endpoint is unauthenticated: the code itself proves ownership.
func ConfirmEmail(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	emailID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	}

	type ConfirmInput struct {
		ConfirmationCode string `json:"confirmation_code"`
	}

	var input ConfirmInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))

	email, err := coordinator.ConfirmEmail(emailID, input.ConfirmationCode)
	if err != nil {
		return accountError(c, err)
	}

	var owner database.User
	if result := db.First(&owner, "id = ?", email.UserID); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	return c.JSON(newEmailResponse(email, &owner))
}

func RequestEmailConfirmation(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)
	user := c.Locals("user").(database.User)

	email, err := ownEmailFromParams(c, db, &user)
	if err != nil {
		return accountError(c, err)
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))
	if err := coordinator.RequestConfirmation(email); err != nil {
		return accountError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// UpdateEmail switches the primary email. Setting is_primary to false is
// rejected: make another email primary instead.
func UpdateEmail(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)
	user := c.Locals("user").(database.User)

	email, err := ownEmailFromParams(c, db, &user)
	if err != nil {
		return accountError(c, err)
	}

	type UpdateEmailInput struct {
		IsPrimary *bool `json:"is_primary"`
	}

	var input UpdateEmailInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid input"})
	}

	if input.IsPrimary == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fiber.Map{"is_primary": "this field is required"}})
	}
	if !*input.IsPrimary {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"non_field_errors": "you cannot directly make an email not primary, set another email as primary instead",
		})
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))
	if err := coordinator.SetPrimaryEmail(&user, email); err != nil {
		return accountError(c, err)
	}

	return c.JSON(newEmailResponse(email, &user))
}

func DeleteEmail(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)
	user := c.Locals("user").(database.User)

	email, err := ownEmailFromParams(c, db, &user)
	if err != nil {
		return accountError(c, err)
	}

	coordinator := account.NewCoordinator(db, cfg, mail.NewService(cfg))
	if err := coordinator.DeleteEmail(&user, email); err != nil {
		return accountError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
