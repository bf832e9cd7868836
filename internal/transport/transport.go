package transport

import (
	"net/http"

	"github.com/ds124wfegd/instafilter/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AppVersion     string
	RequestTimeout int
	// MaxBodySize bounds a whole request, batch uploads included.
	MaxBodySize int64
	// HealthChecks are run by GET /health, keyed by service name.
	HealthChecks map[string]HealthCheck
}

func InitRoutes(cfg RouterConfig, filterHandler *FilterHandler, jobHandler *JobHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1", middleware.Timeout(cfg.RequestTimeout), middleware.BodyLimit(cfg.MaxBodySize))
	{
		api.GET("/filters", filterHandler.ListFilters)
		api.POST("/filter", filterHandler.ApplyFilter)
		api.POST("/filter/batch", filterHandler.ApplyBatch)

		jobs := api.Group("/jobs")
		{
			jobs.POST("", jobHandler.SubmitJob)
			jobs.GET("/:id", jobHandler.GetJob)
			jobs.GET("/:id/result", jobHandler.GetResult)
			jobs.DELETE("/:id", jobHandler.DeleteJob)
		}
	}

	// Health check
	router.GET("/health", health(cfg))
	return router
}
