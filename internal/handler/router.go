package handler

import (
	"fmt"
	"net/http"
	"time"

	"startupsaathi-backend/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config, assistantHandler *AssistantHandler) (*gin.Engine, error) {
	router := gin.New()

	// rate limiting keys on ClientIP, so forwarded headers only count from
	// configured proxies
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid server.trusted_proxies: %w", err)
	}

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	limited := RateLimit(cfg.RateLimit)

	api := router.Group("/api")
	{
		api.POST("/ask", limited, assistantHandler.Ask)

		sessions := api.Group("/assistant/sessions")
		{
			sessions.POST("", limited, assistantHandler.OpenSession)
			sessions.GET("", assistantHandler.ListSessions)
			sessions.GET("/:session_id", assistantHandler.GetSession)
			sessions.DELETE("/:session_id", assistantHandler.DestroySession)
			sessions.POST("/:session_id/open", limited, assistantHandler.ReopenSession)
			sessions.POST("/:session_id/close", assistantHandler.CloseSession)
			sessions.POST("/:session_id/messages", limited, assistantHandler.Submit)
		}
	}

	return router, nil
}
