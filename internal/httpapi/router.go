package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pagesmith-backend/internal/chat"
	"pagesmith-backend/internal/config"
	"pagesmith-backend/internal/httpapi/handlers"
	"pagesmith-backend/internal/httpapi/middleware"
)

func NewRouter(gdb *gorm.DB, cfg config.Config, dedup chat.DedupMarker, events chat.EventPublisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	corsCfg := cors.DefaultConfig()
	if cfg.AllowedOrigins == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.AllowedOrigins}
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	h := handlers.NewHandler(gdb, cfg, dedup, events)

	r.GET("/healthz", h.Healthz)

	r.POST("/api/auth/signup", h.Signup)
	r.POST("/api/auth/signin", h.Signin)

	authGroup := r.Group("/api")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)
	authGroup.POST("/chat", h.Generate)
	authGroup.GET("/messages", h.ListMessages)
	authGroup.DELETE("/messages", h.DeleteMessage)

	return r
}
