package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/ethixlearn/ethixlearn-backend/internal/http/handlers"
	httpMW "github.com/ethixlearn/ethixlearn-backend/internal/http/middleware"
	"github.com/ethixlearn/ethixlearn-backend/internal/observability"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// OpenIngestion mounts POST /api/xapi without requiring a token.
	OpenIngestion bool
	CORSOrigins   []string
	// TraceServiceName enables otelgin spans when set.
	TraceServiceName string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	AuthHandler       *httpH.AuthHandler
	UserHandler       *httpH.UserHandler
	CourseHandler     *httpH.CourseHandler
	EnrollmentHandler *httpH.EnrollmentHandler
	StatementHandler  *httpH.StatementHandler
	AnalyticsHandler  *httpH.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TraceServiceName != "" {
		r.Use(otelgin.Middleware(cfg.TraceServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	am := cfg.AuthMiddleware

	// Auth (public)
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}

	// Ingestion
	if cfg.StatementHandler != nil {
		if cfg.OpenIngestion {
			api.POST("/xapi", am.OptionalAuth(), cfg.StatementHandler.Ingest)
		} else {
			api.POST("/xapi", am.RequireAuth(), cfg.StatementHandler.Ingest)
		}
	}

	// Courses are readable without a token.
	if cfg.CourseHandler != nil {
		api.GET("/courses", cfg.CourseHandler.List)
		api.GET("/courses/:id", cfg.CourseHandler.Get)
	}

	protected := api.Group("/")
	protected.Use(am.RequireAuth())
	{
		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
		}
		if cfg.EnrollmentHandler != nil {
			protected.GET("/enrollments", cfg.EnrollmentHandler.List)
		}
	}

	admin := protected.Group("/")
	admin.Use(am.RequireAdmin())
	{
		if cfg.UserHandler != nil {
			admin.GET("/users", cfg.UserHandler.List)
			admin.POST("/users", cfg.UserHandler.Create)
			admin.PUT("/users/:id", cfg.UserHandler.Update)
			admin.DELETE("/users/:id", cfg.UserHandler.Delete)
		}
		if cfg.CourseHandler != nil {
			admin.POST("/courses", cfg.CourseHandler.Create)
			admin.PUT("/courses", cfg.CourseHandler.Update)
			admin.DELETE("/courses/:id", cfg.CourseHandler.Delete)
		}
		if cfg.EnrollmentHandler != nil {
			admin.POST("/enrollments", cfg.EnrollmentHandler.Assign)
		}
		if cfg.AnalyticsHandler != nil {
			admin.GET("/analytics", cfg.AnalyticsHandler.Report)
			admin.GET("/reports/compliance", cfg.AnalyticsHandler.Compliance)
		}
	}

	return r
}
