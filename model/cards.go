package model

import "time"

// CardMatch is a single contact record as returned by the directory after
// suppression filtering has been applied.
type CardMatch struct {
	VCardUID       string         `json:"vcard_uid"`
	CollectionPath string         `json:"collection_path"`
	MatchingFields map[string]any `json:"matching_fields"`
	Fields         map[string]any `json:"fields"`
}

type CardsSnapshot struct {
	Matches []CardMatch `json:"matches"`
}

// UserCards holds the last directory snapshot fetched for a user. The Data
// column is the raw JSON of a CardsSnapshot and gets overwritten wholesale
// on every successful sync, never merged
type UserCards struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	UserID uint   `gorm:"uniqueIndex;not null"`
	Data   string `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
