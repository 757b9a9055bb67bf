// Package model defines database models
package model

import "time"

type User struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	// Contact is the normalized identifier (lower-cased email or E.164
	// phone number). Every lookup goes through this column, so it has to
	// be normalized identically everywhere it is written or queried
	Contact string `gorm:"uniqueIndex;not null"`

	// Pending verification code. Both fields are nil when no code is
	// active. A code past its expiry counts as absent
	OTPCode      *string
	OTPExpiresAt *time.Time

	CreatedAt time.Time

	Preferences *UserPreferences `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Cards       *UserCards       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
