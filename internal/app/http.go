package app

import (
	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/http"
	httpH "github.com/ethixlearn/ethixlearn-backend/internal/http/handlers"
	httpMW "github.com/ethixlearn/ethixlearn-backend/internal/http/middleware"
	"github.com/ethixlearn/ethixlearn-backend/internal/observability"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	User       *httpH.UserHandler
	Course     *httpH.CourseHandler
	Enrollment *httpH.EnrollmentHandler
	Statement  *httpH.StatementHandler
	Analytics  *httpH.AnalyticsHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Auth:       httpH.NewAuthHandler(services.Auth),
		User:       httpH.NewUserHandler(services.User),
		Course:     httpH.NewCourseHandler(services.Course),
		Enrollment: httpH.NewEnrollmentHandler(services.Enrollment),
		Statement:  httpH.NewStatementHandler(services.Statement),
		Analytics:  httpH.NewAnalyticsHandler(services.Analytics),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	traceService := ""
	if cfg.Otel.Enabled {
		traceService = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		OpenIngestion:     cfg.OpenIngestion(),
		CORSOrigins:       cfg.CORSOrigins,
		TraceServiceName:  traceService,
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		AuthHandler:       handlers.Auth,
		UserHandler:       handlers.User,
		CourseHandler:     handlers.Course,
		EnrollmentHandler: handlers.Enrollment,
		StatementHandler:  handlers.Statement,
		AnalyticsHandler:  handlers.Analytics,
	})
}
