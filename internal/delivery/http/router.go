package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/delivery/http/middleware"
	"github.com/postsi/ESPHomeCLI-AddOn/internal/usecase"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	SubmitUC        *usecase.SubmitJobUsecase
	GetJobUC        *usecase.GetJobUsecase
	ListUC          *usecase.ListJobsUsecase
	ValidateUC      *usecase.ValidateConfigUsecase
	Logger          *zap.Logger
	RateLimitPerMin int
	MaxBodyBytes    int64
	EsphomeBin      string
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps *RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(deps.Logger))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// One limiter shared by the mutation routes
	rateLimit := middleware.RateLimiter(deps.RateLimitPerMin)

	// API v1 group
	v1 := router.Group("/api/v1")
	v1.Use(middleware.BodySizeLimit(deps.MaxBodyBytes))
	{
		// Health check (no rate limiting)
		healthHandler := NewHealthHandler(deps.EsphomeBin, deps.Logger)
		v1.GET("/health", healthHandler.Health)

		// Operation inventory
		opHandler := NewOperationHandler()
		v1.GET("/operations", opHandler.List)

		// Jobs (submissions rate limited)
		jobHandler := NewJobHandler(deps.SubmitUC, deps.GetJobUC, deps.ListUC, deps.Logger)
		v1.POST("/jobs", rateLimit, jobHandler.Submit)
		v1.GET("/jobs", jobHandler.List)
		v1.GET("/jobs/:id", jobHandler.GetByID)

		// WebSocket for real-time status updates
		wsHandler := NewWebSocketHandler(deps.GetJobUC, deps.Logger)
		v1.GET("/jobs/:id/stream", wsHandler.Stream)

		// Synchronous validation
		validateHandler := NewValidateHandler(deps.ValidateUC, deps.Logger)
		v1.POST("/validate", rateLimit, validateHandler.Validate)
	}

	return router
}
