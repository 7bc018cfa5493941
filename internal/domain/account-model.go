package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin     = "ADMIN"
	RoleTraveller = "TRAVELLER"
)

type Account struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `gorm:"type:varchar(20);not null;default:TRAVELLER" json:"role"`

	IsVerified bool `gorm:"not null;default:false" json:"is_verified"`
	IsActive   bool `gorm:"not null;default:false" json:"is_active"`

	// Pending OTP. Both fields are set together or nil together.
	OtpHash      *string    `json:"-"`
	OtpExpiresAt *time.Time `json:"-"`

	// At most one live refresh session per account. SessionVersion only ever
	// increments; tokens minted before a bump carry a stale version claim.
	RefreshTokenHash *string `json:"-"`
	SessionVersion   uint    `gorm:"not null;default:0" json:"-"`

	gorm.Model
}

// HasPendingOTP reports whether an unconsumed code is stored on the account.
func (a *Account) HasPendingOTP() bool {
	return a.OtpHash != nil && a.OtpExpiresAt != nil
}
