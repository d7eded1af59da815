package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	repotest "github.com/ethixlearn/ethixlearn-backend/internal/data/repos/testutil"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/domain/xapi"
	"github.com/ethixlearn/ethixlearn-backend/internal/observability"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

const testSecret = "test-secret"

type memoryCache struct {
	mu          sync.Mutex
	payload     []byte
	sets        int
	invalidated int
}

func (c *memoryCache) Get(context.Context) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.payload == nil {
		return nil, false, nil
	}
	return c.payload, true, nil
}

func (c *memoryCache) Set(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = payload
	c.sets++
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = nil
	c.invalidated++
	return nil
}

type harness struct {
	ctx context.Context
	db  *gorm.DB
	log *logger.Logger

	users       repos.UserRepo
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	attempts    repos.LearningAttemptRepo
	snapshots   repos.ProgressSnapshotRepo
	statements  repos.StatementRepo

	cache   *memoryCache
	metrics *observability.Metrics

	auth       AuthService
	identity   IdentityResolver
	analytics  AnalyticsService
	ingest     StatementService
	enrollment EnrollmentService
	userSvc    UserService
	courseSvc  CourseService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)

	h := &harness{
		ctx:         context.Background(),
		db:          db,
		log:         log,
		users:       repos.NewUserRepo(db, log),
		courses:     repos.NewCourseRepo(db, log),
		enrollments: repos.NewEnrollmentRepo(db, log),
		attempts:    repos.NewLearningAttemptRepo(db, log),
		snapshots:   repos.NewProgressSnapshotRepo(db, log),
		statements:  repos.NewStatementRepo(db, log),
		cache:       &memoryCache{},
		metrics:     observability.New(nil),
	}
	agg := aggregates.NewEnrollmentAggregate(aggregates.EnrollmentAggregateDeps{
		Base:        aggregates.BaseDeps{DB: db, Log: log},
		Enrollments: h.enrollments,
		Attempts:    h.attempts,
		Snapshots:   h.snapshots,
		Statements:  h.statements,
	})

	h.auth = NewAuthService(db, log, h.users, AuthConfig{
		JWTSecretKey: testSecret,
		AccessTTL:    time.Hour,
		BcryptCost:   bcrypt.MinCost,
	})
	h.identity = NewIdentityResolver(log, h.users)
	h.analytics = NewAnalyticsService(log, h.enrollments, h.attempts, h.snapshots, h.cache, h.metrics)
	h.ingest = NewStatementService(log, h.identity, agg, h.analytics, h.metrics)
	h.enrollment = NewEnrollmentService(log, EnrollmentServiceDeps{
		Users:       h.users,
		Courses:     h.courses,
		Enrollments: h.enrollments,
		Attempts:    h.attempts,
		Snapshots:   h.snapshots,
		Statements:  h.statements,
		Aggregate:   agg,
		Analytics:   h.analytics,
	})
	h.userSvc = NewUserService(db, log, UserServiceDeps{
		Users:       h.users,
		Enrollments: h.enrollments,
		Attempts:    h.attempts,
		Snapshots:   h.snapshots,
		Statements:  h.statements,
		BcryptCost:  bcrypt.MinCost,
	})
	h.courseSvc = NewCourseService(db, log, CourseServiceDeps{
		Courses:     h.courses,
		Modules:     repos.NewCourseModuleRepo(db, log),
		Lessons:     repos.NewLessonRepo(db, log),
		Enrollments: h.enrollments,
		Attempts:    h.attempts,
		Snapshots:   h.snapshots,
		Statements:  h.statements,
	})
	return h
}

func (h *harness) seedUser(t *testing.T, role string) *types.User {
	t.Helper()
	return repotest.SeedUserWithRole(t, h.ctx, h.db, repotest.UniqueEmail("svc"), role)
}

func (h *harness) seedCourse(t *testing.T) *types.Course {
	t.Helper()
	return repotest.SeedCourse(t, h.ctx, h.db, "Workplace Ethics")
}

func caller(u *types.User) *ctxutil.RequestData {
	return &ctxutil.RequestData{UserID: u.ID, Role: u.Role}
}

func lessonStatement(email string, courseID string) xapi.Statement {
	return xapi.Statement{
		Actor:   json.RawMessage(`{"mbox":"mailto:` + email + `"}`),
		Verb:    json.RawMessage(`{"id":"http://adlnet.gov/expapi/verbs/completed"}`),
		Object:  json.RawMessage(`{"id":"https://lms.example.com/lessons/42"}`),
		Context: json.RawMessage(`{"course":{"id":"https://lms.example.com/courses/` + courseID + `"}}`),
	}
}

func some(v float64) domainagg.Optional[float64] { return domainagg.Some(v) }
