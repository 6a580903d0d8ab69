package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/usecase"
)

// ValidateHandler handles synchronous config validation requests.
type ValidateHandler struct {
	validateUC *usecase.ValidateConfigUsecase
	logger     *zap.Logger
}

// NewValidateHandler creates a new ValidateHandler.
func NewValidateHandler(validateUC *usecase.ValidateConfigUsecase, logger *zap.Logger) *ValidateHandler {
	return &ValidateHandler{
		validateUC: validateUC,
		logger:     logger,
	}
}

// Validate handles POST /api/v1/validate
func (h *ValidateHandler) Validate(c *gin.Context) {
	var req domain.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	result, err := h.validateUC.Execute(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyConfig),
			errors.Is(err, domain.ErrInvalidSubstitution):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrPayloadTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrValidationTimeout):
			c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Validation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
