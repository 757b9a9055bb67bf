package model

import "time"

// PreferenceFlags is the wire format for suppression preferences, shared
// between the portal API and the contact directory. A true flag means the
// field is suppressed from the user's directory cards.
type PreferenceFlags struct {
	DisallowPhoto    bool `json:"disallow_photo"`
	DisallowGender   bool `json:"disallow_gender"`
	DisallowBirthday bool `json:"disallow_birthday"`
	DisallowAddress  bool `json:"disallow_address"`
	DisallowCompany  bool `json:"disallow_company"`
	DisallowTitle    bool `json:"disallow_title"`
	DisallowRelated  bool `json:"disallow_related"`
	DisallowNickname bool `json:"disallow_nickname"`
}

type UserPreferences struct {
	ID     uint `gorm:"primaryKey;autoIncrement"`
	UserID uint `gorm:"uniqueIndex;not null"`

	DisallowPhoto    bool `gorm:"not null;default:false"`
	DisallowGender   bool `gorm:"not null;default:false"`
	DisallowBirthday bool `gorm:"not null;default:false"`
	DisallowAddress  bool `gorm:"not null;default:false"`
	DisallowCompany  bool `gorm:"not null;default:false"`
	DisallowTitle    bool `gorm:"not null;default:false"`
	DisallowRelated  bool `gorm:"not null;default:false"`
	DisallowNickname bool `gorm:"not null;default:false"`

	// Set after the last preference change was pushed to the contact
	// directory. False means a sync is still pending
	ContactProviderSynced bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *UserPreferences) Flags() PreferenceFlags {
	return PreferenceFlags{
		DisallowPhoto:    p.DisallowPhoto,
		DisallowGender:   p.DisallowGender,
		DisallowBirthday: p.DisallowBirthday,
		DisallowAddress:  p.DisallowAddress,
		DisallowCompany:  p.DisallowCompany,
		DisallowTitle:    p.DisallowTitle,
		DisallowRelated:  p.DisallowRelated,
		DisallowNickname: p.DisallowNickname,
	}
}

func (p *UserPreferences) SetFlags(f PreferenceFlags) {
	p.DisallowPhoto = f.DisallowPhoto
	p.DisallowGender = f.DisallowGender
	p.DisallowBirthday = f.DisallowBirthday
	p.DisallowAddress = f.DisallowAddress
	p.DisallowCompany = f.DisallowCompany
	p.DisallowTitle = f.DisallowTitle
	p.DisallowRelated = f.DisallowRelated
	p.DisallowNickname = f.DisallowNickname
}
