package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"magicbus-backend/internal/common/config"
	"magicbus-backend/internal/common/logger"
)

// Handlers collects the route groups the server mounts. Nil members are
// simply not registered, so partial deployments (no warehouse, no
// search cluster) still serve the rest of the API.
type Handlers struct {
	Tables    *TablesHandler
	Query     *QueryHandler
	Dropout   *DropoutHandler
	Warehouse *WarehouseHandler
	Search    *SearchHandler
	Analytics *AnalyticsHandler
}

func NewRouter(appCfg config.AppConfig, handlers Handlers, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     appCfg.Name,
			"version":     appCfg.Version,
			"environment": appCfg.Environment,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")
	if handlers.Tables != nil {
		handlers.Tables.RegisterRoutes(apiGroup)
	}
	if handlers.Query != nil {
		handlers.Query.RegisterRoutes(apiGroup)
	}
	if handlers.Dropout != nil {
		handlers.Dropout.RegisterRoutes(apiGroup)
	}
	if handlers.Warehouse != nil {
		handlers.Warehouse.RegisterRoutes(apiGroup)
	}
	if handlers.Search != nil {
		handlers.Search.RegisterRoutes(apiGroup)
	}
	if handlers.Analytics != nil {
		handlers.Analytics.RegisterRoutes(apiGroup)
	}

	return router
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("request handled", map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})
	}
}
