package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/recipebook-backend/internal/services"
)

type HealthHandler struct {
	connectivity services.Connectivity
}

func NewHealthHandler(connectivity services.Connectivity) *HealthHandler {
	return &HealthHandler{connectivity: connectivity}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/connectivity
func (h *HealthHandler) Connectivity(c *gin.Context) {
	if h.connectivity == nil {
		c.JSON(http.StatusOK, services.ConnectivityStatus{Online: true})
		return
	}
	c.JSON(http.StatusOK, h.connectivity.Check(c.Request.Context()))
}
