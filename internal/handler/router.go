package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/classpulse-api/internal/middleware"
	"github.com/noah-isme/classpulse-api/internal/models"
	"github.com/noah-isme/classpulse-api/internal/service"
	"github.com/noah-isme/classpulse-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classpulse-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classpulse-api/pkg/middleware/requestid"
)

// RouterConfig wires handlers into a gin engine.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	// Tokens enables bearer authentication when non-nil.
	Tokens middleware.TokenValidator

	Classes       *ClassHandler
	Settings      *SettingsHandler
	Observability *MetricsHandler
}

// NewRouter builds the HTTP engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.WithResponseMeta())

	if cfg.Observability != nil {
		r.GET("/health", cfg.Observability.Health)
		r.GET("/metrics", cfg.Observability.Prometheus)
	}

	api := r.Group(cfg.APIPrefix)
	adminOnly := func(c *gin.Context) { c.Next() }
	if cfg.Tokens != nil {
		api.Use(middleware.JWT(cfg.Tokens))
		adminOnly = middleware.RequireRoles(models.RoleAdmin)
	}

	if h := cfg.Classes; h != nil {
		classes := api.Group("/classes/:id")
		classes.POST("/import", h.Import)
		classes.GET("/students", h.Students)
		classes.GET("/students/:studentId", h.Student)
		classes.POST("/students/:studentId/grades", h.AddGrade)
		classes.POST("/students/:studentId/events", h.AddEvent)
		classes.GET("/summary", h.Summary)
		classes.GET("/period", h.Period)
		classes.GET("/compare", h.Compare)
		classes.GET("/report", h.Report)
	}

	if h := cfg.Settings; h != nil {
		api.GET("/settings", h.GetGlobal)
		api.PUT("/settings", adminOnly, h.UpdateGlobal)
		api.GET("/classes/:id/settings", h.GetClass)
		api.PUT("/classes/:id/settings", h.UpdateClass)
		api.DELETE("/classes/:id/settings", h.DeleteClass)
	}

	return r
}
