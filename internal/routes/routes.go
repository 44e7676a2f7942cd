package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-journey-server/internal/config"
	"hospital-journey-server/internal/handlers"
	"hospital-journey-server/internal/middleware"
	"hospital-journey-server/internal/models"
	"hospital-journey-server/internal/observability"
)

// Dependencies are the collaborators the routes are built from.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Journeys handlers.JourneyService
	Registry handlers.HospitalRegistry
	Metrics  *observability.Metrics
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	journeyHandler := handlers.NewJourneyHandler(deps.Journeys)
	hospitalHandler := handlers.NewHospitalHandler(deps.Registry)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	secret := deps.Config.JWTSecret

	// Journey reads also accept a share code instead of a token
	shared := router.Group("/api/v1")
	shared.Use(middleware.OptionalAuthMiddleware(secret))
	{
		shared.GET("/journey/:id", journeyHandler.GetJourney)
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(secret))
	{
		journeyRoutes := private.Group("/journey")
		{
			journeyRoutes.POST("", journeyHandler.StartJourney)
			journeyRoutes.GET("", journeyHandler.ListJourneys)
			journeyRoutes.PATCH("/:id", journeyHandler.UpdateJourneyStatus)            // Owner or staff, checked in handler
			journeyRoutes.POST("/:id/checkpoint", journeyHandler.TransitionCheckpoint) // Staff only, checked in handler
			journeyRoutes.POST("/:id/share", journeyHandler.CreateShare)
		}

		hospitalRoutes := private.Group("/hospitals")
		{
			hospitalRoutes.GET("/:id/departments", hospitalHandler.ListDepartments)

			adminRoutes := hospitalRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin)) // Only Admins
			{
				adminRoutes.POST("", hospitalHandler.CreateHospital)
				adminRoutes.POST("/:id/departments", hospitalHandler.CreateDepartment)
			}
		}
	}

	router.GET("/health", healthHandler.Health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
}
