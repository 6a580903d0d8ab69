package http

import (
	"net/http"
	"os/exec"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	esphomeBin string
	logger     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(esphomeBin string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		esphomeBin: esphomeBin,
		logger:     logger,
	}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(c *gin.Context) {
	esphomeStatus := "ok"
	if _, err := exec.LookPath(h.esphomeBin); err != nil {
		esphomeStatus = "missing"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"services": gin.H{
			"esphome": esphomeStatus,
		},
	})
}
