package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/listing-radar/app/controllers"
)

// SetupAPIRoutes sets up every API route.
func SetupAPIRoutes(router *gin.Engine, parseController *controllers.ParseController, compareController *controllers.CompareController, reviewController *controllers.ReviewController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/parse", parseController.ParseAddress)
			addresses.POST("/jobs", parseController.BatchParse)
			addresses.GET("/jobs/:jobID/status", parseController.GetJobStatus)
			addresses.GET("/jobs/:jobID/results", parseController.GetJobResults)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.POST("/load", compareController.LoadCatalog)
			catalog.GET("/stats", compareController.CatalogStats)
		}

		v1.POST("/compare", compareController.Compare)

		board := v1.Group("/board")
		{
			board.POST("/rebuild", reviewController.RebuildBoard)
			board.GET("", reviewController.GetBoard)
			board.POST("/export", reviewController.ExportBoard)
			board.POST("/votes", reviewController.Vote)
			board.GET("/votes/:objectKey", reviewController.GetObjectVotes)
			board.GET("/progress", reviewController.GetProgress)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/streets/seed", adminController.SeedStreets)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.POST("/cache/clear", adminController.ClearCache)
			admin.GET("/stats", adminController.GetStats)
			admin.GET("/db/stats", adminController.GetDatabaseStats)
		}

		v1.GET("/health", parseController.HealthCheck)
	}
}

// SetupHealthRoutes sets up the root-level probes.
func SetupHealthRoutes(router *gin.Engine, parseController *controllers.ParseController) {
	router.GET("/health", parseController.HealthCheck)
	router.GET("/ready", parseController.HealthCheck)
	router.GET("/live", parseController.HealthCheck)
}

// SetupAllRoutes sets up middleware and every route group.
func SetupAllRoutes(router *gin.Engine, parseController *controllers.ParseController, compareController *controllers.CompareController, reviewController *controllers.ReviewController, adminController *controllers.AdminController) {
	setupMiddleware(router)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, parseController)
	SetupAPIRoutes(router, parseController, compareController, reviewController, adminController)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
}
