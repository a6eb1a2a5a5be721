package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"launchpad/internal/platform/account"
)

// accountError maps the account error taxonomy to transport status codes.
// Token failures map to forbidden rather than bad request: the request
// shape was valid, the credential is stale or wrong.
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

	switch {
	case errors.Is(err, account.ErrInvalidOrExpiredToken):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "The token is invalid or has expired"})
	case errors.Is(err, account.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	case errors.Is(err, account.ErrAuthenticationDenied):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	}

	log.Errorf("unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
}
