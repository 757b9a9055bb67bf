package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CardsSync runs the full directory sync for the authenticated user: push
// preferences, trigger reprocessing, fetch the filtered cards and overwrite
// the local cache. A failure at any step leaves the previous cache and
// synced flag untouched and surfaces as a generic server error.
func (a *API) CardsSync(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)
	contact := c.MustGet("contact").(string)

	if err := a.Sync.SyncUser(contact, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to sync user with directory", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"requestID": requestID,
	})
}
