package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const headerServiceVersion = "X-Service-Version"

type HealthHandler struct {
	version string
}

func NewHealthHandler(version string) *HealthHandler { return &HealthHandler{version: version} }

// HealthCheck is a liveness probe. It never calls the messaging platform.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.version != "" {
		c.Header(headerServiceVersion, h.version)
	}
	c.String(http.StatusOK, "ok")
}
