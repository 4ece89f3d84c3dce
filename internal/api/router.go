package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blockspy/blockspy/internal/middleware"
	"github.com/blockspy/blockspy/pkg/config"
)

func SetupRouter(
	serverHandler *ServerHandler,
	consoleHandler *ConsoleHandler,
	cfg *config.Config,
) *gin.Engine {
	// Set Gin mode
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router with custom middleware
	router := gin.New()

	// Global middleware (in order)
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimiter))

	// CORS middleware (for development)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": cfg.AppName,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Prometheus metrics endpoint (no rate limit for scraping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API endpoints
	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.RateLimitMiddleware(middleware.APIRateLimiter))
	{
		servers := apiGroup.Group("/servers")
		{
			servers.POST("", serverHandler.AddServer)
			servers.GET("", serverHandler.ListServers)
			servers.GET("/:address", serverHandler.GetServer)
			servers.PUT("/:address", serverHandler.UpdateServer)
			servers.DELETE("/:address", serverHandler.DeleteServer)
			servers.POST("/:address/toggle_pause", serverHandler.TogglePause)
			servers.GET("/:address/history", serverHandler.History)
			servers.GET("/:address/stats", serverHandler.Stats)
			servers.GET("/:address/events", serverHandler.Events)
			servers.GET("/:address/players", serverHandler.Players)
			servers.GET("/:address/heatmap", serverHandler.Heatmap)
			servers.GET("/:address/calendar_heatmap", serverHandler.CalendarHeatmap)

			// Console operations dial out to the game server
			consoleOps := servers.Group("")
			consoleOps.Use(middleware.RateLimitMiddleware(middleware.ConsoleRateLimiter))
			{
				consoleOps.POST("/:address/command", serverHandler.ExecuteCommand)
			}
		}

		rcon := apiGroup.Group("/rcon")
		rcon.Use(middleware.RateLimitMiddleware(middleware.ConsoleRateLimiter))
		{
			rcon.POST("/test", serverHandler.TestConsole)
		}
	}

	// Live console websocket
	router.GET("/ws/console/:address", consoleHandler.HandleConsole)

	return router
}
