package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/najah-ai/learner-service/internal/services"
	"github.com/najah-ai/learner-service/internal/utils"
	"github.com/najah-ai/learner-service/pkg/metrics"
)

type HandlerManager struct {
	abilityHandler *AbilityHandler
	trendHandler   *TrendHandler

	metrics   *metrics.Manager
	jwtSecret string
	db        Pinger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	metricsManager *metrics.Manager,
	db Pinger,
	jwtSecret string,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		abilityHandler: NewAbilityHandler(serviceManager.Ability(), logger),
		trendHandler:   NewTrendHandler(serviceManager.Trend(), logger),
		metrics:        metricsManager,
		jwtSecret:      jwtSecret,
		db:             db,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck(hm.db))

	if hm.metrics != nil {
		router.GET("/metrics", gin.WrapH(hm.metrics.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1", AuthMiddleware(hm.jwtSecret))
	{
		students := v1.Group("/students/:student_id")
		{
			// Ability estimates
			students.GET("/abilities", hm.abilityHandler.ListAbilities)
			students.GET("/abilities/:subject", hm.abilityHandler.GetAbility)
			students.DELETE("/abilities/:subject", hm.abilityHandler.ResetAbility)
			students.POST("/abilities/:subject/responses", hm.abilityHandler.RecordResponse)
			students.GET("/abilities/:subject/next-difficulty", hm.abilityHandler.GetNextDifficulty)

			// Progress and trends
			students.GET("/trend", hm.trendHandler.GetStudentTrend)
			students.GET("/trend/export", hm.trendHandler.ExportTrend)
			students.GET("/progress", hm.trendHandler.GetDailyProgress)
		}

		v1.POST("/abilities/simulate", hm.abilityHandler.SimulateSession)
		v1.POST("/classes/overview", hm.trendHandler.GetClassOverview)
	}
}
