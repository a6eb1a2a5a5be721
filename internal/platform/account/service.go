package account

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"launchpad/internal/database"
	"launchpad/pkg/utils"
)

var validate = validator.New()

// Service is the credential store: durable storage and uniqueness
// enforcement for User and Email records.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateUserInput struct {
	Email       string
	Password    string
	Username    *string
	GivenName   *string
	FamilyName  *string
	IsStaff     bool
	IsSuperuser bool
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func validateAddress(address string) error {
	if address == "" {
		return NewValidationError("email", "email address is required")
	}
	if err := validate.Var(address, "email"); err != nil {
		return NewValidationError("email", "email address is invalid")
	}
	return nil
}

// CreateUser persists a new user together with its profile and primary
// email as one transaction. The primary email starts unconfirmed, with a
// confirmation code issued immediately. When no username is given, one is
// derived from the email local part, retrying with a timestamp suffix on
// collision. The uniqueness pre-checks are backed by unique constraints,
// so a concurrent duplicate surfaces as a ConflictError, not a double row.
func (s *Service) CreateUser(input CreateUserInput) (*database.User, error) {
	address := NormalizeEmail(input.Email)
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&database.Email{}).Where("address = ?", address).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ConflictError{Field: "email"}
	}

	username := input.Username
	if username == nil {
		derived, err := s.deriveFreeUsername(address)
		if err != nil {
			return nil, err
		}
		username = &derived
	}

	user := database.User{
		Email:       address,
		Username:    username,
		IsActive:    true,
		IsStaff:     input.IsStaff,
		IsSuperuser: input.IsSuperuser,
	}
	if input.Password != "" {
		user.PasswordHash = utils.HashPassword(input.Password)
	}

	code, issued := IssueToken(nil, nil, true)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile", "Emails").Create(&user).Error; err != nil {
			return err
		}

		profile := database.Profile{
			UserID:     user.ID,
			GivenName:  input.GivenName,
			FamilyName: input.FamilyName,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		user.Profile = profile

		email := database.Email{
			UserID:               user.ID,
			Address:              address,
			ConfirmationCode:     &code,
			ConfirmationCodeDate: &issued,
			Origin:               database.EmailOriginDefaultSignup,
		}
		if err := tx.Create(&email).Error; err != nil {
			return err
		}
		user.Emails = []database.Email{email}

		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Field: "email"}
		}
		return nil, err
	}

	return &user, nil
}

func (s *Service) deriveFreeUsername(address string) (string, error) {
	base := deriveUsername(address)
	candidate := base

	for attempt := 0; attempt < usernameMaxAttempts; attempt++ {
		var count int64
		if err := s.db.Model(&database.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = suffixUsername(base, time.Now())
	}

	return "", &ConflictError{Field: "username"}
}

func (s *Service) GetUserByID(userID uuid.UUID) (*database.User, error) {
	var user database.User

	result := s.db.Preload("Profile").Preload("Emails").First(&user, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(address string) (*database.User, error) {
	var user database.User

	result := s.db.Preload("Profile").Preload("Emails").First(&user, "email = ?", NormalizeEmail(address))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

func (s *Service) GetEmailByID(emailID uuid.UUID) (*database.Email, error) {
	var email database.Email

	result := s.db.First(&email, "id = ?", emailID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &email, nil
}

func (s *Service) GetEmailByAddress(address string) (*database.Email, error) {
	var email database.Email

	result := s.db.First(&email, "address = ?", NormalizeEmail(address))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &email, nil
}

// AddEmail attaches a new unconfirmed address to a user. Addresses are
// unique across all users.
func (s *Service) AddEmail(user *database.User, address, origin string) (*database.Email, error) {
	address = NormalizeEmail(address)
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&database.Email{}).Where("address = ?", address).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ConflictError{Field: "address"}
	}

	code, issued := IssueToken(nil, nil, true)

	email := database.Email{
		UserID:               user.ID,
		Address:              address,
		ConfirmationCode:     &code,
		ConfirmationCodeDate: &issued,
		Origin:               origin,
	}
	if err := s.db.Create(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Field: "address"}
		}
		return nil, err
	}

	return &email, nil
}

// DeleteEmail removes an email record. The primary email can never be
// deleted; switch the primary first.
func (s *Service) DeleteEmail(user *database.User, email *database.Email) error {
	if email.IsPrimary(user) {
		return &PolicyViolation{Reason: "you cannot delete your primary email"}
	}

	return s.db.Delete(&database.Email{}, "id = ?", email.ID).Error
}

// SetPrimaryEmail switches the user's login email to the given address.
// Confirmation state has already been checked by the coordinator.
func (s *Service) SetPrimaryEmail(user *database.User, email *database.Email) error {
	if err := s.db.Model(user).Update("email", email.Address).Error; err != nil {
		return err
	}
	user.Email = email.Address
	return nil
}

// UpdatePassword replaces the password hash and clears any pending reset
// token in one transaction.
func (s *Service) UpdatePassword(user *database.User, password string) error {
	hash := utils.HashPassword(password)

	err := s.db.Model(user).Updates(map[string]any{
		"password_hash":    hash,
		"reset_token":      nil,
		"reset_token_date": nil,
	}).Error
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.ResetToken = nil
	user.ResetTokenDate = nil
	return nil
}

// UpdateProfile updates the profile fields of a user. Profiles are only
// ever created alongside their user, so this is a plain update.
func (s *Service) UpdateProfile(user *database.User, givenName, familyName *string) error {
	updates := map[string]any{}
	if givenName != nil {
		updates["given_name"] = *givenName
	}
	if familyName != nil {
		updates["family_name"] = *familyName
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.Model(&database.Profile{}).Where("user_id = ?", user.ID).Updates(updates).Error; err != nil {
		return err
	}

	if givenName != nil {
		user.Profile.GivenName = givenName
	}
	if familyName != nil {
		user.Profile.FamilyName = familyName
	}
	return nil
}

// UpdateAvatar records the storage key of the user's profile picture.
func (s *Service) UpdateAvatar(user *database.User, key string) error {
	if err := s.db.Model(&database.Profile{}).Where("user_id = ?", user.ID).Update("avatar", key).Error; err != nil {
		return err
	}
	user.Profile.Avatar = &key
	return nil
}
