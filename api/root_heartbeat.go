package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Heartbeat answers liveness probes. It deliberately touches neither the
// database nor the directory
func (a *API) Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}
