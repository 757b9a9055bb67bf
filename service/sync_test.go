package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"privportal/privacy-api/config"
	"privportal/privacy-api/db"
	"privportal/privacy-api/directory"
	"privportal/privacy-api/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// directoryStub fakes the contact directory's privacy API and records every
// call it gets, in order.
type directoryStub struct {
	mu    sync.Mutex
	calls []string

	updateStatus int
	cards        model.CardsSnapshot
	failOn       string
}

func (d *directoryStub) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *directoryStub) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *directoryStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call string

		switch {
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/privacy/settings/"):
			call = "update"
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/privacy/settings/"):
			call = "create"
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/reprocess"):
			call = "reprocess"
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/privacy/cards/"):
			call = "cards"
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}

		d.record(call)

		if d.failOn == call {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			return
		}

		switch call {
		case "update":
			status := d.updateStatus
			if status == 0 {
				status = http.StatusOK
			}
			w.WriteHeader(status)
			if status == http.StatusBadRequest {
				json.NewEncoder(w).Encode(map[string]string{"error": "User settings not found"})
			}
		case "create":
			w.WriteHeader(http.StatusCreated)
		case "reprocess":
			json.NewEncoder(w).Encode(directory.ReprocessResult{ReprocessedCards: 1})
		case "cards":
			json.NewEncoder(w).Encode(d.cards)
		}
	})
}

func newTestSyncer(t *testing.T, stub *directoryStub) *Syncer {
	t.Helper()

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	database, err := db.New(&config.Config{
		DB: config.DBConfig{
			Driver: "sqlite",
			DSN:    fmt.Sprintf("file:%v?mode=memory&cache=shared", t.Name()),
		},
	})
	require.NoError(t, err)

	dir := directory.NewClient(config.DirectoryConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})

	return NewSyncer(database, dir)
}

func createUserWithPrefs(t *testing.T, d *gorm.DB, flags model.PreferenceFlags) *model.User {
	t.Helper()

	user := &model.User{Contact: "user@example.com"}
	require.NoError(t, d.Create(user).Error)

	prefs := &model.UserPreferences{UserID: user.ID}
	prefs.SetFlags(flags)
	require.NoError(t, d.Create(prefs).Error)

	return user
}

func TestSyncUserFullSequence(t *testing.T) {
	stub := &directoryStub{
		cards: model.CardsSnapshot{
			Matches: []model.CardMatch{{VCardUID: "card1", Fields: map[string]any{"FN": "Jane"}}},
		},
	}
	s := newTestSyncer(t, stub)

	user := createUserWithPrefs(t, s.DB, model.PreferenceFlags{DisallowPhoto: true})

	require.NoError(t, s.SyncUser(user.Contact, user.ID))

	assert.Equal(t, []string{"update", "reprocess", "cards"}, stub.Calls())

	snapshot, err := s.GetCardsCache(user.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Matches, 1)
	assert.Equal(t, "card1", snapshot.Matches[0].VCardUID)

	var prefs model.UserPreferences
	require.NoError(t, s.DB.Where("user_id = ?", user.ID).First(&prefs).Error)
	assert.True(t, prefs.ContactProviderSynced)
}

func TestSyncUserWithoutPreferencesOnlyFetches(t *testing.T) {
	stub := &directoryStub{cards: model.CardsSnapshot{Matches: []model.CardMatch{}}}
	s := newTestSyncer(t, stub)

	user := &model.User{Contact: "user@example.com"}
	require.NoError(t, s.DB.Create(user).Error)

	require.NoError(t, s.SyncUser(user.Contact, user.ID))

	assert.Equal(t, []string{"cards"}, stub.Calls())
}

func TestSyncPreferencesFallsBackToCreate(t *testing.T) {
	stub := &directoryStub{updateStatus: http.StatusBadRequest}
	s := newTestSyncer(t, stub)

	user := createUserWithPrefs(t, s.DB, model.PreferenceFlags{DisallowGender: true})

	require.NoError(t, s.SyncPreferences(user.Contact, user.ID))

	assert.Equal(t, []string{"update", "create", "reprocess"}, stub.Calls())

	var prefs model.UserPreferences
	require.NoError(t, s.DB.Where("user_id = ?", user.ID).First(&prefs).Error)
	assert.True(t, prefs.ContactProviderSynced)
}

func TestSyncUserAbortsOnReprocessFailure(t *testing.T) {
	stub := &directoryStub{failOn: "reprocess"}
	s := newTestSyncer(t, stub)

	user := createUserWithPrefs(t, s.DB, model.PreferenceFlags{})

	require.NoError(t, s.SaveCardsCache(user.ID, &model.CardsSnapshot{
		Matches: []model.CardMatch{{VCardUID: "stale"}},
	}))

	err := s.SyncUser(user.Contact, user.ID)
	require.Error(t, err)

	// The failure must leave the previous cache and synced flag untouched
	assert.Equal(t, []string{"update", "reprocess"}, stub.Calls())

	snapshot, err := s.GetCardsCache(user.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Matches, 1)
	assert.Equal(t, "stale", snapshot.Matches[0].VCardUID)

	var prefs model.UserPreferences
	require.NoError(t, s.DB.Where("user_id = ?", user.ID).First(&prefs).Error)
	assert.False(t, prefs.ContactProviderSynced)
}

func TestGetCardsCacheMissingRow(t *testing.T) {
	s := newTestSyncer(t, &directoryStub{})

	user := &model.User{Contact: "user@example.com"}
	require.NoError(t, s.DB.Create(user).Error)

	snapshot, err := s.GetCardsCache(user.ID)
	require.NoError(t, err)
	assert.NotNil(t, snapshot.Matches)
	assert.Empty(t, snapshot.Matches)
}

func TestSaveCardsCacheOverwrites(t *testing.T) {
	s := newTestSyncer(t, &directoryStub{})

	user := &model.User{Contact: "user@example.com"}
	require.NoError(t, s.DB.Create(user).Error)

	require.NoError(t, s.SaveCardsCache(user.ID, &model.CardsSnapshot{
		Matches: []model.CardMatch{{VCardUID: "old"}},
	}))
	require.NoError(t, s.SaveCardsCache(user.ID, &model.CardsSnapshot{
		Matches: []model.CardMatch{{VCardUID: "new"}},
	}))

	snapshot, err := s.GetCardsCache(user.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.Matches, 1)
	assert.Equal(t, "new", snapshot.Matches[0].VCardUID)

	var count int64
	require.NoError(t, s.DB.Model(&model.UserCards{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
