package handler

import (
	"github.com/GoPolymarket/schemascope/internal/config"
	"github.com/GoPolymarket/schemascope/internal/middleware"
	"github.com/GoPolymarket/schemascope/internal/pkg/apperrors"
	"github.com/GoPolymarket/schemascope/internal/service"
	"github.com/GoPolymarket/schemascope/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Config      *config.Config
	Diagnostics *service.DiagnosticService // nil disables capture and /debug
	Users       *service.UserService
	Orders      *service.OrderService
	Health      map[string]Pinger
}

// NewRouter wires the middleware chain and every route.
//
// Recovery sits outside Diagnostic so a panicking request produces no record.
// ErrorHandler sits inside it so error bodies go through the capture.
func NewRouter(d RouterDeps) *gin.Engine {
	validation.Setup()

	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	if d.Diagnostics != nil {
		r.Use(middleware.Diagnostic(d.Diagnostics))
	}
	r.Use(middleware.ErrorHandler())

	r.GET("/health", NewHealthHandler(d.Health).Check)

	if cfg.Metrics.Enabled && cfg.Metrics.Path != "" {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	users := NewUserHandler(d.Users)
	r.POST("/users", users.Create)
	r.GET("/users", users.List)

	orders := NewOrderHandler(d.Orders)
	r.POST("/orders", orders.Create)
	r.GET("/orders", orders.List)

	if d.Diagnostics != nil {
		diag := NewDiagnosticsHandler(d.Diagnostics)
		debug := r.Group("/debug", middleware.DebugGuard(cfg))
		{
			debug.GET("/diagnostics", diag.List)
			debug.GET("/diagnostics/stream", diag.Stream)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.NewNotFound("route not found"))
	})
	return r
}
