package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yoockh/yoointerview/internal/api/handlers"
)

type Deps struct {
	Interview *handlers.InterviewHandler
	WS        *handlers.WSHandler
	Health    *handlers.HealthHandler
	History   *handlers.HistoryHandler // nil without Postgres

	// Auth is nil when authentication is disabled.
	Auth     gin.HandlerFunc
	Throttle gin.HandlerFunc

	CORSOrigin string
}

const HealthPath = "/api/health"

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(corsConfig(d.CORSOrigin)))

	r.GET(HealthPath, d.Health.Health)

	api := r.Group("/api")
	if d.Auth != nil {
		api.Use(d.Auth)
	}
	if d.Throttle != nil {
		api.Use(d.Throttle)
	}

	iv := api.Group("/interview")
	iv.POST("/start", d.Interview.Start)
	iv.POST("/message", d.Interview.Message)
	iv.POST("/end", d.Interview.End)
	iv.GET("/:id", d.Interview.Get)
	iv.GET("/:id/report", d.Interview.Report)
	iv.POST("/:id/voice", d.Interview.Voice)
	iv.GET("/:id/ws", d.WS.InterviewWS)

	if d.History != nil {
		api.GET("/history", d.History.List)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.APIError{Code: "NOT_FOUND", Message: "route not found"})
	})
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = []string{origin}
	}
	return cfg
}
