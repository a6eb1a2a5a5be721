package account

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"launchpad/internal/config"
	"launchpad/internal/database"
	"launchpad/pkg/utils"
)

// Notifier delivers verification and recovery messages out of band.
// Delivery failures are logged, never surfaced to the caller.
type Notifier interface {
	SendConfirmation(email *database.Email) error
	SendPasswordReset(user *database.User) error
}

// AccessGranter assigns a freshly created user the permissions over its
// own records. The default implementation does nothing; deployments with
// an authorization backend plug theirs in.
type AccessGranter interface {
	GrantSelfAccess(user *database.User) error
}

type noopAccessGranter struct{}

func (noopAccessGranter) GrantSelfAccess(user *database.User) error {
	log.Debugf("no access granter configured, skipping grants for user %s", user.ID)
	return nil
}

// Coordinator orchestrates the token engine against the credential store,
// enforcing the rules neither layer can enforce alone.
type Coordinator struct {
	db       *gorm.DB
	cfg      *config.Config
	svc      *Service
	notifier Notifier
	access   AccessGranter
}

func NewCoordinator(db *gorm.DB, cfg *config.Config, notifier Notifier) *Coordinator {
	return &Coordinator{
		db:       db,
		cfg:      cfg,
		svc:      NewService(db),
		notifier: notifier,
		access:   noopAccessGranter{},
	}
}

// WithAccessGranter replaces the default no-op access granter.
func (c *Coordinator) WithAccessGranter(granter AccessGranter) *Coordinator {
	c.access = granter
	return c
}

// Register creates the user with its profile and unconfirmed primary
// email, grants the user access to its own records, and dispatches the
// verification message.
func (c *Coordinator) Register(input CreateUserInput) (*database.User, error) {
	user, err := c.svc.CreateUser(input)
	if err != nil {
		return nil, err
	}

	if err := c.access.GrantSelfAccess(user); err != nil {
		log.Errorf("failed to grant self access to user %s: %v", user.ID, err)
	}

	if primary := user.PrimaryEmail(); primary != nil {
		if err := c.notifier.SendConfirmation(primary); err != nil {
			log.Errorf("failed to send confirmation email to %s: %v", primary.Address, err)
		}
	}

	return user, nil
}

// RequestConfirmation regenerates the confirmation code of an unconfirmed
// email and resends the verification message. Resending always restarts
// the validity window.
func (c *Coordinator) RequestConfirmation(email *database.Email) error {
	if email.IsConfirmed() {
		return &PolicyViolation{Reason: "the email is already confirmed"}
	}

	code, issued := IssueToken(email.ConfirmationCode, email.ConfirmationCodeDate, true)

	err := c.db.Model(email).Updates(map[string]any{
		"confirmation_code":      code,
		"confirmation_code_date": issued,
	}).Error
	if err != nil {
		return err
	}

	email.ConfirmationCode = &code
	email.ConfirmationCodeDate = &issued

	if err := c.notifier.SendConfirmation(email); err != nil {
		log.Errorf("failed to send confirmation email to %s: %v", email.Address, err)
	}

	return nil
}

// ConfirmEmail checks the code against the email's confirmation slot and,
// on success, consumes the code and stamps the confirmation time. The
// consume is a conditional update keyed on the stored code, so two
// concurrent confirmations cannot both succeed. Confirmation is permanent.
func (c *Coordinator) ConfirmEmail(emailID uuid.UUID, code string) (*database.Email, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, NewValidationError("confirmation_code", "confirmation code is required")
	}

	email, err := c.svc.GetEmailByID(emailID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !TokenValid(email.ConfirmationCode, email.ConfirmationCodeDate, code, now, c.cfg.ConfirmationTTL()) {
		return nil, ErrInvalidOrExpiredToken
	}

	result := c.db.Model(&database.Email{}).
		Where("id = ? AND confirmation_code = ?", email.ID, code).
		Updates(map[string]any{
			"confirmation_code":      nil,
			"confirmation_code_date": nil,
			"confirmed_at":           now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidOrExpiredToken
	}

	email.ConfirmationCode = nil
	email.ConfirmationCodeDate = nil
	email.ConfirmedAt = &now

	return email, nil
}

// AddEmail attaches a secondary address to the user and dispatches its
// verification message.
func (c *Coordinator) AddEmail(user *database.User, address string) (*database.Email, error) {
	email, err := c.svc.AddEmail(user, address, database.EmailOriginUserInput)
	if err != nil {
		return nil, err
	}

	if err := c.notifier.SendConfirmation(email); err != nil {
		log.Errorf("failed to send confirmation email to %s: %v", email.Address, err)
	}

	return email, nil
}

// SetPrimaryEmail switches the user's login email. Only confirmed
// addresses may become primary.
func (c *Coordinator) SetPrimaryEmail(user *database.User, email *database.Email) error {
	if !email.IsConfirmed() {
		return &PolicyViolation{Reason: "you cannot set an unconfirmed email as primary email"}
	}

	return c.svc.SetPrimaryEmail(user, email)
}

// DeleteEmail removes a non-primary email of the user.
func (c *Coordinator) DeleteEmail(user *database.User, email *database.Email) error {
	return c.svc.DeleteEmail(user, email)
}

// RequestPasswordRecovery issues a reset token for the account behind the
// address and dispatches the recovery message. The result never hints
// whether the account exists: an unknown address is reported as accepted.
// A pending token is reused rather than overwritten, so repeated requests
// neither reset the window nor leak that one is pending.
func (c *Coordinator) RequestPasswordRecovery(address string) error {
	user, err := c.svc.GetUserByEmail(address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	token, issued := IssueToken(user.ResetToken, user.ResetTokenDate, false)

	err = c.db.Model(user).Updates(map[string]any{
		"reset_token":      token,
		"reset_token_date": issued,
	}).Error
	if err != nil {
		return err
	}

	user.ResetToken = &token
	user.ResetTokenDate = &issued

	if err := c.notifier.SendPasswordReset(user); err != nil {
		log.Errorf("failed to send password reset email to %s: %v", user.Email, err)
	}

	return nil
}

// ResetPassword sets a new password for the user identified by userID,
// provided the reset token is valid and both password fields match. The
// token is consumed with a conditional update, so it works at most once.
func (c *Coordinator) ResetPassword(userID, token, password1, password2 string) (*database.User, error) {
	fields := map[string]string{}
	for key, value := range map[string]string{
		"user_id":     userID,
		"reset_token": token,
		"password_1":  password1,
		"password_2":  password2,
	} {
		if strings.TrimSpace(value) == "" {
			fields[key] = "this field is required"
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if password1 != password2 {
		return nil, NewValidationError("password_2", "the passwords do not match")
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, NewValidationError("user_id", "the user does not exist")
	}

	user, err := c.svc.GetUserByID(uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewValidationError("user_id", "the user does not exist")
		}
		return nil, err
	}

	now := time.Now()
	if !TokenValid(user.ResetToken, user.ResetTokenDate, token, now, c.cfg.ResetTTL()) {
		return nil, ErrInvalidOrExpiredToken
	}

	hash := utils.HashPassword(password1)

	result := c.db.Model(&database.User{}).
		Where("id = ? AND reset_token = ?", user.ID, token).
		Updates(map[string]any{
			"password_hash":    hash,
			"reset_token":      nil,
			"reset_token_date": nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidOrExpiredToken
	}

	user.PasswordHash = hash
	user.ResetToken = nil
	user.ResetTokenDate = nil

	return user, nil
}

// Authenticate is the gate consumed by the session layer: credentials
// must match, the account must be active, and the primary email must be
// confirmed. All failures look alike to the caller.
func (c *Coordinator) Authenticate(address, password string) (*database.User, error) {
	user, err := c.svc.GetUserByEmail(address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAuthenticationDenied
		}
		return nil, err
	}

	if user.PasswordHash == "" || !utils.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrAuthenticationDenied
	}

	if !user.IsActive {
		return nil, ErrAuthenticationDenied
	}

	primary := user.PrimaryEmail()
	if primary == nil || !primary.IsConfirmed() {
		return nil, ErrAuthenticationDenied
	}

	return user, nil
}

// Store exposes the underlying credential store for callers that need
// plain lookups.
func (c *Coordinator) Store() *Service {
	return c.svc
}
