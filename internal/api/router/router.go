package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remotelyhq/jobradar/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "jobradar-api",
		})
	})

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	{
		// GET /api/v1/jobs - Search aggregated postings
		v1.GET("/jobs", jobHandler.SearchJobs)

		// GET /api/v1/categories - Category breakdown of the snapshot
		v1.GET("/categories", jobHandler.GetCategories)

		// GET /api/v1/stats - Cache and refresh statistics
		v1.GET("/stats", jobHandler.GetStats)

		refreshGroup := v1.Group("/refresh")
		{
			// POST /api/v1/refresh - Force a refresh cycle
			refreshGroup.POST("", jobHandler.ForceRefresh)

			// GET /api/v1/refresh/status - Refresh controller status
			refreshGroup.GET("/status", jobHandler.RefreshStatus)
		}
	}

	return r
}
