package service

import (
	"encoding/json"
	"fmt"
	"privportal/privacy-api/directory"
	"privportal/privacy-api/model"

	"gorm.io/gorm"
)

// Syncer pushes a user's suppression preferences to the contact directory
// and keeps the local card cache in step with the directory's filtered view.
//
// The push/reprocess/fetch sequence is sequential and has no compensating
// actions. A failure anywhere aborts the remaining steps and leaves the
// cache and synced flag as they were, so a false synced flag always means
// "run the sync again".
type Syncer struct {
	DB        *gorm.DB
	Directory *directory.Client
}

func NewSyncer(db *gorm.DB, dir *directory.Client) *Syncer {
	return &Syncer{DB: db, Directory: dir}
}

// pushSettings sends the flags to the directory, falling back to a create
// call when the user has no settings there yet
func (s *Syncer) pushSettings(contact string, flags model.PreferenceFlags) error {
	status, err := s.Directory.UpdateSettings(contact, flags)
	if err != nil {
		return err
	}

	if status == directory.NotFound {
		return s.Directory.CreateSettings(contact, flags)
	}

	return nil
}

// SyncPreferences pushes the user's stored preferences to the directory,
// triggers reprocessing and marks the local row as synced. Used by the
// preferences endpoint where the caller doesn't need the refreshed cards
// right away
func (s *Syncer) SyncPreferences(contact string, userID uint) error {
	var prefs model.UserPreferences

	err := s.DB.Where("user_id = ?", userID).First(&prefs).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to read preferences, %w", err)
	}

	if err == nil {
		if err := s.pushSettings(contact, prefs.Flags()); err != nil {
			return err
		}
	}

	if _, err := s.Directory.Reprocess(contact); err != nil {
		return err
	}

	return s.markSynced(userID)
}

// SyncUser runs the full sequence: push preferences, reprocess, fetch the
// filtered cards, overwrite the local cache and mark the preferences as
// synced
func (s *Syncer) SyncUser(contact string, userID uint) error {
	var prefs model.UserPreferences

	err := s.DB.Where("user_id = ?", userID).First(&prefs).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to read preferences, %w", err)
	}
	hasPrefs := err == nil

	if hasPrefs {
		if err := s.pushSettings(contact, prefs.Flags()); err != nil {
			return err
		}

		if _, err := s.Directory.Reprocess(contact); err != nil {
			return err
		}
	}

	snapshot, err := s.Directory.FetchCards(contact)
	if err != nil {
		return err
	}

	if err := s.SaveCardsCache(userID, snapshot); err != nil {
		return err
	}

	if hasPrefs {
		return s.markSynced(userID)
	}

	return nil
}

// SaveCardsCache overwrites the user's cached snapshot with a fresh one
func (s *Syncer) SaveCardsCache(userID uint, snapshot *model.CardsSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode cards snapshot, %w", err)
	}

	var cache model.UserCards

	err = s.DB.Where("user_id = ?", userID).First(&cache).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to read cards cache, %w", err)
		}

		return s.DB.Create(&model.UserCards{
			UserID: userID,
			Data:   string(data),
		}).Error
	}

	return s.DB.Model(&cache).Update("data", string(data)).Error
}

// GetCardsCache reads the user's cached snapshot. A missing row is not an
// error and reads as an empty match set
func (s *Syncer) GetCardsCache(userID uint) (*model.CardsSnapshot, error) {
	var cache model.UserCards

	err := s.DB.Where("user_id = ?", userID).First(&cache).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &model.CardsSnapshot{Matches: []model.CardMatch{}}, nil
		}

		return nil, fmt.Errorf("failed to read cards cache, %w", err)
	}

	var snapshot model.CardsSnapshot
	if err := json.Unmarshal([]byte(cache.Data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cards cache, %w", err)
	}

	if snapshot.Matches == nil {
		snapshot.Matches = []model.CardMatch{}
	}

	return &snapshot, nil
}

func (s *Syncer) markSynced(userID uint) error {
	return s.DB.Model(&model.UserPreferences{}).
		Where("user_id = ?", userID).
		Update("contact_provider_synced", true).Error
}
