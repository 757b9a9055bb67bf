package api

import (
	"net/http"

	"privportal/privacy-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PreferencesFetch returns the user's stored suppression preferences. A
// user who never saved anything gets all-false flags and reads as synced,
// there's nothing to push yet
func (a *API) PreferencesFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	var prefs model.UserPreferences

	err := a.DB.Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to fetch preferences", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"preferences":           model.PreferenceFlags{},
			"contactProviderSynced": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"preferences":           prefs.Flags(),
		"contactProviderSynced": prefs.ContactProviderSynced,
	})
}
