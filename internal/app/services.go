package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/aggregates"
	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/observability"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"github.com/ethixlearn/ethixlearn-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Identity   services.IdentityResolver
	Analytics  services.AnalyticsService
	Statement  services.StatementService
	Enrollment services.EnrollmentService
	User       services.UserService
	Course     services.CourseService

	EnrollmentAggregate domainagg.EnrollmentAggregate
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	cache := services.NopAnalyticsCache()
	if clients.Redis != nil {
		c, err := services.NewRedisAnalyticsCache(log, clients.Redis, cfg.AnalyticsCacheTTL)
		if err != nil {
			return Services{}, fmt.Errorf("init analytics cache: %w", err)
		}
		cache = c
	}

	enrollmentAgg := aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Enrollments: repos.Enrollment,
		Attempts:    repos.LearningAttempt,
		Snapshots:   repos.ProgressSnapshot,
		Statements:  repos.Statement,
	})

	authService := services.NewAuthService(db, log, repos.User, services.AuthConfig{
		JWTSecretKey: cfg.JWTSecretKey,
		AccessTTL:    cfg.AccessTokenTTL,
		BcryptCost:   cfg.BcryptCost,
	})
	identity := services.NewIdentityResolver(log, repos.User)
	analytics := services.NewAnalyticsService(log, repos.Enrollment, repos.LearningAttempt, repos.ProgressSnapshot, cache, metrics)
	statementService := services.NewStatementService(log, identity, enrollmentAgg, analytics, metrics)
	enrollmentService := services.NewEnrollmentService(log, services.EnrollmentServiceDeps{
		Users:       repos.User,
		Courses:     repos.Course,
		Enrollments: repos.Enrollment,
		Attempts:    repos.LearningAttempt,
		Snapshots:   repos.ProgressSnapshot,
		Statements:  repos.Statement,
		Aggregate:   enrollmentAgg,
		Analytics:   analytics,
	})
	userService := services.NewUserService(db, log, services.UserServiceDeps{
		Users:       repos.User,
		Enrollments: repos.Enrollment,
		Attempts:    repos.LearningAttempt,
		Snapshots:   repos.ProgressSnapshot,
		Statements:  repos.Statement,
		BcryptCost:  cfg.BcryptCost,
	})
	courseService := services.NewCourseService(db, log, services.CourseServiceDeps{
		Courses:     repos.Course,
		Modules:     repos.CourseModule,
		Lessons:     repos.Lesson,
		Enrollments: repos.Enrollment,
		Attempts:    repos.LearningAttempt,
		Snapshots:   repos.ProgressSnapshot,
		Statements:  repos.Statement,
	})

	return Services{
		Auth:                authService,
		Identity:            identity,
		Analytics:           analytics,
		Statement:           statementService,
		Enrollment:          enrollmentService,
		User:                userService,
		Course:              courseService,
		EnrollmentAggregate: enrollmentAgg,
	}, nil
}
