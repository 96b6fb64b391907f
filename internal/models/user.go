package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID         uint   `gorm:"primaryKey"`
	Nickname   string `gorm:"uniqueIndex;type:varchar(50);not null"`
	Bio        string `gorm:"type:varchar(255)"`
	ProfileURL string `gorm:"type:varchar(500)"`

	// Sign-in identity (phone / apple), verified upstream
	Provider   string `gorm:"type:varchar(20);not null;uniqueIndex:idx_provider_identity"`
	ProviderID string `gorm:"type:varchar(255);not null;uniqueIndex:idx_provider_identity"`

	// Phone number is stored encrypted only; the search hash is the sole
	// lookup path for contact matching. Both nullable, hash unique when set.
	PhoneEncrypted  string  `gorm:"type:text"`
	PhoneSearchHash *string `gorm:"uniqueIndex;type:varchar(64)"`
	CountryCode     string  `gorm:"type:varchar(8)"`

	// Short-lived proximity rendezvous token, unique while active
	DiscoveryToken *string `gorm:"uniqueIndex;type:varchar(32)"`

	Status    string    `gorm:"type:varchar(20);default:'active'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// User status constants
const (
	UserStatusActive  = "active"
	UserStatusDeleted = "deleted"
)

// Provider constants
const (
	ProviderPhone = "phone"
	ProviderApple = "apple"
)

// BeforeCreate hook for validation. Create-time only: column updates run
// gorm hooks on a blank receiver, which these checks would reject.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Nickname == "" {
		return gorm.ErrInvalidData
	}

	validStatuses := map[string]bool{
		UserStatusActive:  true,
		UserStatusDeleted: true,
	}
	if u.Status != "" && !validStatuses[u.Status] {
		return gorm.ErrInvalidData
	}

	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
