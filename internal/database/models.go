package database

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EmailOriginDefaultSignup = "default_signup"
	EmailOriginUserInput     = "user_input"
	EmailOriginAdmin         = "admin"
)

// User represents a user account in the system. The login email always
// matches the address of exactly one of the user's Email records.
type User struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Email          string     `json:"email" gorm:"uniqueIndex"`
	Username       *string    `json:"username" gorm:"uniqueIndex"`
	PasswordHash   string     `json:"-"`
	IsActive       bool       `json:"is_active"`
	IsStaff        bool       `json:"is_staff"`
	IsSuperuser    bool       `json:"is_superuser"`
	DateJoined     time.Time  `json:"date_joined"`
	ResetToken     *string    `json:"-"`
	ResetTokenDate *time.Time `json:"-"`
	Profile        Profile    `json:"profile" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Emails         []Email    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (u *User) TableName() string {
	return "account.user"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now()
	}
	return nil
}

// PrimaryEmail returns the Email record matching the login email, if loaded.
func (u *User) PrimaryEmail() *Email {
	for i := range u.Emails {
		if u.Emails[i].Address == u.Email {
			return &u.Emails[i]
		}
	}
	return nil
}

// Profile holds the personal data of a user. It only exists as a side
// effect of user creation and is removed together with its owner.
type Profile struct {
	ID         uuid.UUID `json:"-" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `json:"-" gorm:"type:uuid;uniqueIndex"`
	GivenName  *string   `json:"given_name"`
	FamilyName *string   `json:"family_name"`
	Avatar     *string   `json:"picture"`
}

func (p *Profile) TableName() string {
	return "account.profile"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Profile) FullName() string {
	var parts []string
	if p.GivenName != nil && *p.GivenName != "" {
		parts = append(parts, *p.GivenName)
	}
	if p.FamilyName != nil && *p.FamilyName != "" {
		parts = append(parts, *p.FamilyName)
	}
	return strings.Join(parts, " ")
}

// Email is a verifiable contact address owned by exactly one user.
// Addresses are unique across all users, not per user.
type Email struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID               uuid.UUID  `json:"-" gorm:"type:uuid;index"`
	Address              string     `json:"address" gorm:"uniqueIndex"`
	ConfirmationCode     *string    `json:"-"`
	ConfirmationCodeDate *time.Time `json:"-"`
	ConfirmedAt          *time.Time `json:"confirmed_at"`
	Origin               string     `json:"origin"`
}

func (e *Email) TableName() string {
	return "account.email"
}

func (e *Email) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Email) IsConfirmed() bool {
	return e.ConfirmedAt != nil
}

// IsPrimary reports whether this email is the login email of its owner.
func (e *Email) IsPrimary(owner *User) bool {
	return e.Address == owner.Email
}

type AuthRefreshToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	UserID    uuid.UUID `json:"-" gorm:"type:uuid;index"`
	CreatedAt time.Time `json:"created_at"`
	ExpiredAt time.Time `json:"expired_at"`
}

func (art *AuthRefreshToken) TableName() string {
	return "account.auth_refresh_token"
}

// AuthKey is a long-lived API key, used by service tooling.
type AuthKey struct {
	Key    string    `json:"key" gorm:"primaryKey"`
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid"`
}

func (ak *AuthKey) TableName() string {
	return "account.auth_key"
}
