package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-core/internal/middleware"
	"github.com/noah-isme/timetable-core/internal/service"
	"github.com/noah-isme/timetable-core/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-core/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-core/pkg/middleware/requestid"
)

// RouterOptions collects what the HTTP surface needs.
type RouterOptions struct {
	APIPrefix      string
	AllowedOrigins []string
	CORSMaxAge     int
	EnableDocs     bool
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Scheduling     *SchedulingHandler
	Tasks          *TaskHandler
	Observability  *MetricsHandler
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(opts RouterOptions) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins, opts.CORSMaxAge))
	r.Use(middleware.Metrics(opts.Metrics, "/metrics"))
	r.Use(middleware.WithResponseMeta())

	if opts.Observability != nil {
		r.GET("/health", opts.Observability.Health)
		r.GET("/metrics", opts.Observability.Prometheus)
		r.GET("/metrics/summary", opts.Observability.Summary)
	}
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	if h := opts.Scheduling; h != nil {
		assignments := api.Group("/assignments")
		assignments.GET("", h.ListAssignments)
		assignments.POST("", h.CommitAssignment)
		assignments.POST("/load", h.LoadAssignments)
		assignments.POST("/propose", h.ProposeAssignment)
		assignments.DELETE("/:courseId", h.RemoveAssignment)

		api.GET("/views/:mode", h.View)
		api.GET("/statistics", h.Statistics)
		api.PUT("/statistics/lookups", h.SetLookups)
		api.GET("/conflicts", h.Conflicts)
	}
	if h := opts.Tasks; h != nil {
		tasks := api.Group("/tasks")
		tasks.GET("", h.List)
		tasks.POST("", h.Create)
		tasks.POST("/:id/schedule", h.Schedule)
		tasks.POST("/:id/rerun", h.Rerun)
		tasks.POST("/:id/complete", h.Complete)
	}

	return r
}
