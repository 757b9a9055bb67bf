// Package directory is the HTTP client for the external contact directory's
// privacy API. The directory stores per-user suppression settings and serves
// the filtered contact cards that result from them.
package directory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"privportal/privacy-api/config"
	"privportal/privacy-api/model"
)

// UpdateStatus is the tagged outcome of an update-settings call. Callers
// switch on this instead of inspecting HTTP status codes
type UpdateStatus int

const (
	// Updated means the directory accepted the new settings
	Updated UpdateStatus = iota

	// NotFound means the user has no settings in the directory yet and a
	// create call is needed instead
	NotFound

	// Failed means the call errored for any other reason
	Failed
)

var ErrSettingsNotFound = errors.New("user settings not found in directory")

type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

func NewClient(cfg config.DirectoryConfig) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ReprocessResult reports what the directory recomputed after a preference
// change.
type ReprocessResult struct {
	ReprocessedCards    int      `json:"reprocessed_cards"`
	ReprocessedCardUIDs []string `json:"reprocessed_card_uids"`
}

func (c *Client) settingsURL(contact string) string {
	return c.baseURL + "/privacy/settings/" + url.PathEscape(contact)
}

func (c *Client) cardsURL(contact string) string {
	return c.baseURL + "/privacy/cards/" + url.PathEscape(contact)
}

func (c *Client) do(method, url string, payload any) (*http.Response, error) {
	var body io.Reader

	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	return c.http.Do(req)
}

// GetSettings fetches the user's current suppression settings. Returns
// ErrSettingsNotFound when the directory has none for this user
func (c *Client) GetSettings(contact string) (model.PreferenceFlags, error) {
	var flags model.PreferenceFlags

	resp, err := c.do(http.MethodGet, c.settingsURL(contact), nil)
	if err != nil {
		return flags, fmt.Errorf("failed to fetch directory settings, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return flags, ErrSettingsNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return flags, fmt.Errorf("directory returned status %v for get settings", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&flags); err != nil {
		return flags, fmt.Errorf("failed to decode directory settings, %w", err)
	}

	return flags, nil
}

// UpdateSettings pushes the user's suppression settings to the directory.
// The directory answers the update with a bad-request error when the user
// has no settings row yet, which callers get back as NotFound so they can
// fall back to CreateSettings
func (c *Client) UpdateSettings(contact string, flags model.PreferenceFlags) (UpdateStatus, error) {
	resp, err := c.do(http.MethodPut, c.settingsURL(contact), flags)
	if err != nil {
		return Failed, fmt.Errorf("failed to update directory settings, %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return Updated, nil
	case resp.StatusCode == http.StatusBadRequest:
		return NotFound, nil
	default:
		var body errorBody
		json.NewDecoder(resp.Body).Decode(&body)

		return Failed, fmt.Errorf("directory returned status %v for update settings, %v", resp.StatusCode, body.Error)
	}
}

// CreateSettings creates the user's suppression settings in the directory
func (c *Client) CreateSettings(contact string, flags model.PreferenceFlags) error {
	resp, err := c.do(http.MethodPost, c.settingsURL(contact), flags)
	if err != nil {
		return fmt.Errorf("failed to create directory settings, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var body errorBody
		json.NewDecoder(resp.Body).Decode(&body)

		return fmt.Errorf("directory returned status %v for create settings, %v", resp.StatusCode, body.Error)
	}

	return nil
}

// DeleteSettings removes the user's suppression settings from the directory
func (c *Client) DeleteSettings(contact string) error {
	resp, err := c.do(http.MethodDelete, c.settingsURL(contact), nil)
	if err != nil {
		return fmt.Errorf("failed to delete directory settings, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directory returned status %v for delete settings", resp.StatusCode)
	}

	return nil
}

// Reprocess asks the directory to recompute field suppression across all of
// the user's contact cards. Must run after every settings change or the
// filtered cards won't reflect it
func (c *Client) Reprocess(contact string) (*ReprocessResult, error) {
	resp, err := c.do(http.MethodPost, c.cardsURL(contact)+"/reprocess", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to trigger directory reprocessing, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %v for reprocess", resp.StatusCode)
	}

	var result ReprocessResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode reprocess result, %w", err)
	}

	return &result, nil
}

// FetchCards returns the user's filtered contact cards
func (c *Client) FetchCards(contact string) (*model.CardsSnapshot, error) {
	resp, err := c.do(http.MethodGet, c.cardsURL(contact), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch directory cards, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %v for fetch cards", resp.StatusCode)
	}

	var snapshot model.CardsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode directory cards, %w", err)
	}

	if snapshot.Matches == nil {
		snapshot.Matches = []model.CardMatch{}
	}

	return &snapshot, nil
}
