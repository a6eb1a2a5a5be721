package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"launchpad/internal/config"
	"launchpad/internal/database"
	"launchpad/internal/handlers"
	mngmt "launchpad/internal/handlers/management"
	"launchpad/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New()

	app.Use(compress.New())
	app.Use(helmet.New())
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(healthcheck.New())

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("db", db)
		return c.Next()
	})

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signin", handlers.SigninWithPassword)
	auth.Post("/token-refresh", handlers.RefreshToken)

	api.Post("/user", handlers.CreateUser)
	api.Post("/user/recover-password", handlers.RecoverPassword)
	api.Post("/user/reset-password", handlers.ResetPassword)

	user := api.Group("/user", middleware.AuthMiddleware)
	user.Get("/me", handlers.GetCurrentUser)
	user.Patch("/me", handlers.UpdateCurrentUser)
	user.Put("/me/avatar", handlers.UploadAvatar)

	// Confirmation does not require authentication: the code itself
	// proves ownership of the address.
	api.Post("/email/:id/confirm", handlers.ConfirmEmail)

	email := api.Group("/email", middleware.AuthMiddleware)
	email.Post("/", handlers.CreateEmail)
	email.Get("/", handlers.ListEmails)
	email.Post("/:id/request-confirmation", handlers.RequestEmailConfirmation)
	email.Patch("/:id", handlers.UpdateEmail)
	email.Delete("/:id", handlers.DeleteEmail)

	management := api.Group("/management", middleware.AuthMiddleware, middleware.AdminMiddleware)
	management.Post("/user", mngmt.CreateUser)
	management.Get("/user", mngmt.GetAllUsers)
	management.Get("/user/:user_id", mngmt.GetUser)
	management.Post("/user/:user_id/email", mngmt.CreateUserEmail)
	management.Post("/user/:user_id/reset-password", mngmt.ResetUserPassword)
	management.Post("/user/:user_id/auth-key", mngmt.CreateAuthKey)

	app.Use(func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})

	log.Fatal(app.Listen(fmt.Sprintf(":%d", cfg.ServerPort)))
}
