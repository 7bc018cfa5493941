package domain

import "gorm.io/gorm"

// Profile is provisioned empty when the account passes email verification.
type Profile struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	AccountID uint   `gorm:"uniqueIndex;not null" json:"account_id"`
	Bio       string `gorm:"type:text" json:"bio"`
	Location  string `gorm:"type:varchar(100)" json:"location"`
	AvatarURL string `json:"avatar_url"`
	gorm.Model
}
