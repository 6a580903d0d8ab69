package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
)

// OperationHandler lists the allow-listed esphome operations.
type OperationHandler struct{}

// NewOperationHandler creates a new OperationHandler.
func NewOperationHandler() *OperationHandler {
	return &OperationHandler{}
}

// List handles GET /api/v1/operations
func (h *OperationHandler) List(c *gin.Context) {
	operations := make([]domain.OperationInfo, 0, len(domain.AllOperations))
	for _, op := range domain.AllOperations {
		operations = append(operations, domain.OperationInfo{
			Name:       op,
			Subcommand: op.Subcommand(),
			Async:      op != domain.OpValidate,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"operations": operations,
	})
}
