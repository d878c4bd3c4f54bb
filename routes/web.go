package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes sets up the plain informational pages.
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "Listing Radar Service",
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"api": "Listing Radar API v1",
				"endpoints": map[string]string{
					"parse":         "POST /v1/addresses/parse",
					"batch":         "POST /v1/addresses/jobs",
					"job_status":    "GET /v1/addresses/jobs/:jobID/status",
					"job_results":   "GET /v1/addresses/jobs/:jobID/results",
					"load_catalog":  "POST /v1/catalog/load",
					"catalog_stats": "GET /v1/catalog/stats",
					"compare":       "POST /v1/compare",
					"board_rebuild": "POST /v1/board/rebuild",
					"board":         "GET /v1/board",
					"board_export":  "POST /v1/board/export",
					"vote":          "POST /v1/board/votes",
					"health":        "GET /v1/health",
				},
			})
		})

		web.GET("/status", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "running",
				"service": "Listing Radar",
			})
		})
	}
}
