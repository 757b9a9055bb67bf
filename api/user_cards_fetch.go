package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CardsFetch serves the cached directory snapshot. Before the first sync
// there is no cache row, which reads as an empty match set rather than an
// error
func (a *API) CardsFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	snapshot, err := a.Sync.GetCardsCache(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read cards cache", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
