package api

import (
	"net/http"

	"privportal/privacy-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type updatePreferencesBody struct {
	Preferences *model.PreferenceFlags `json:"preferences"`
	Action      string                 `json:"action"`
}

// PreferencesUpdate saves new suppression preferences and pushes them to
// the contact directory, or with {"action":"sync"} re-pushes whatever is
// already stored. Either way the directory reprocesses the user's cards and
// the local row is marked synced only after every remote step succeeded.
func (a *API) PreferencesUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)
	contact := c.MustGet("contact").(string)

	var data updatePreferencesBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Action == "sync" {
		if err := a.Sync.SyncPreferences(contact, userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to sync preferences with directory", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Contact provider synchronized and reprocessing triggered",
			"requestID": requestID,
		})
		return
	}

	if data.Preferences == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid preferences data",
			"requestID": requestID,
		})
		return
	}

	var prefs model.UserPreferences

	err := a.DB.Where("user_id = ?", userID).First(&prefs).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch preferences", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	prefs.UserID = userID
	prefs.SetFlags(*data.Preferences)

	// The save lands with synced=false. It only flips back to true after
	// the directory push below went through
	prefs.ContactProviderSynced = false

	if err := a.DB.Save(&prefs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save preferences", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.Sync.SyncPreferences(contact, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to push preferences to directory", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"requestID": requestID,
	})
}
