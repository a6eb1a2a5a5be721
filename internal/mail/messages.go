package mail

import (
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2/log"

	"launchpad/internal/config"
	"launchpad/internal/database"
)

// Service builds and sends the account notification messages. Without a
// configured mailgun domain the messages are logged instead of sent, so
// local development works without credentials.
type Service struct {
	cfg    *config.Config
	mailer Mailer
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:    cfg,
		mailer: NewMailer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase),
	}
}

func (s *Service) confirmationURL(email *database.Email) string {
	params := url.Values{}
	params.Set("id", email.ID.String())
	if email.ConfirmationCode != nil {
		params.Set("confirmation_code", *email.ConfirmationCode)
	}
	return fmt.Sprintf("%s/confirm-email?%s", s.cfg.FrontendURL, params.Encode())
}

func (s *Service) resetURL(user *database.User) string {
	params := url.Values{}
	params.Set("id", user.ID.String())
	if user.ResetToken != nil {
		params.Set("reset_token", *user.ResetToken)
	}
	return fmt.Sprintf("%s/reset-password?%s", s.cfg.FrontendURL, params.Encode())
}

func (s *Service) SendConfirmation(email *database.Email) error {
	confirmationURL := s.confirmationURL(email)

	if s.cfg.MailgunDomain == "" {
		log.Infof("verification email for %s: %s", email.Address, confirmationURL)
		return nil
	}

	message := Email{
		Subject:  "Just one more step: verify your email address",
		From:     fmt.Sprintf("Launchpad <no-reply@%s>", s.cfg.MailgunDomain),
		To:       []string{email.Address},
		Template: "verify-email",
		TemplateVars: map[string]any{
			"confirmationUrl": confirmationURL,
		},
	}

	return s.mailer.SendTemplatedMail(&message)
}

func (s *Service) SendPasswordReset(user *database.User) error {
	resetURL := s.resetURL(user)

	if s.cfg.MailgunDomain == "" {
		log.Infof("password reset email for %s: %s", user.Email, resetURL)
		return nil
	}

	message := Email{
		Subject:  "Set a new password",
		From:     fmt.Sprintf("Launchpad <no-reply@%s>", s.cfg.MailgunDomain),
		To:       []string{user.Email},
		Template: "reset-password",
		TemplateVars: map[string]any{
			"recipientName": user.Profile.FullName(),
			"resetUrl":      resetURL,
		},
	}

	return s.mailer.SendTemplatedMail(&message)
}
