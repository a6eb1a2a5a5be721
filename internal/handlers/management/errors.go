package mngmt

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"launchpad/internal/platform/account"
)

func accountError(c *fiber.Ctx, err error) error {
	var validationErr *account.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": validationErr.Fields})
	}

	var conflictErr *account.ConflictError
	if errors.As(err, &conflictErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": conflictErr.Error()})
	}

	var policyErr *account.PolicyViolation
	if errors.As(err, &policyErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"non_field_errors": policyErr.Reason})
	}

	if errors.Is(err, account.ErrNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "User not found"})
	}

	log.Errorf("unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
}
