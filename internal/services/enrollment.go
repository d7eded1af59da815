package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

const recentStatementLimit = 12

// EnrollmentDetail is an enrollment with its course and activity history.
type EnrollmentDetail struct {
	*types.Enrollment
	Attempts          []*types.LearningAttempt  `json:"attempts"`
	ProgressSnapshots []*types.ProgressSnapshot `json:"progressSnapshots"`
	Statements        []*types.Statement        `json:"statements"`
}

type EnrollmentService interface {
	// List returns the enrollments of userID, or of the caller when userID is
	// empty. Only admins may list someone else's enrollments.
	List(ctx context.Context, caller *ctxutil.RequestData, userID string) ([]*EnrollmentDetail, error)
	// Assign enrolls a learner in a course. Assigning twice is a no-op.
	Assign(ctx context.Context, userID, courseID string) (*types.Enrollment, bool, error)
}

type enrollmentService struct {
	log         *logger.Logger
	users       repos.UserRepo
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	attempts    repos.LearningAttemptRepo
	snapshots   repos.ProgressSnapshotRepo
	statements  repos.StatementRepo
	aggregate   domainagg.EnrollmentAggregate
	analytics   AnalyticsService
}

type EnrollmentServiceDeps struct {
	Users       repos.UserRepo
	Courses     repos.CourseRepo
	Enrollments repos.EnrollmentRepo
	Attempts    repos.LearningAttemptRepo
	Snapshots   repos.ProgressSnapshotRepo
	Statements  repos.StatementRepo
	Aggregate   domainagg.EnrollmentAggregate
	Analytics   AnalyticsService
}

func NewEnrollmentService(log *logger.Logger, deps EnrollmentServiceDeps) EnrollmentService {
	return &enrollmentService{
		log:         log.With("service", "EnrollmentService"),
		users:       deps.Users,
		courses:     deps.Courses,
		enrollments: deps.Enrollments,
		attempts:    deps.Attempts,
		snapshots:   deps.Snapshots,
		statements:  deps.Statements,
		aggregate:   deps.Aggregate,
		analytics:   deps.Analytics,
	}
}

func (s *enrollmentService) List(ctx context.Context, caller *ctxutil.RequestData, userID string) ([]*EnrollmentDetail, error) {
	if caller == nil || caller.UserID == uuid.Nil {
		return nil, apierr.Auth("Missing Authorization header")
	}
	target := caller.UserID
	if raw := strings.TrimSpace(userID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			if caller.Role != types.RoleAdmin {
				return nil, apierr.Forbidden("Not authorized to view other learners")
			}
			return nil, apierr.Validation("Invalid user id")
		}
		target = id
	}
	if target != caller.UserID && caller.Role != types.RoleAdmin {
		return nil, apierr.Forbidden("Not authorized to view other learners")
	}

	dbc := dbctx.Context{Ctx: ctx}
	enrollments, err := s.enrollments.ListByUserID(dbc, target)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.ID)
	}
	attempts, err := s.attempts.ListByEnrollmentIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	snapshots, err := s.snapshots.ListByEnrollmentIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]*EnrollmentDetail, 0, len(enrollments))
	byID := make(map[uuid.UUID]*EnrollmentDetail, len(enrollments))
	for _, e := range enrollments {
		d := &EnrollmentDetail{
			Enrollment:        e,
			Attempts:          []*types.LearningAttempt{},
			ProgressSnapshots: []*types.ProgressSnapshot{},
		}
		stmts, err := s.statements.ListRecentByEnrollmentID(dbc, e.ID, recentStatementLimit)
		if err != nil {
			return nil, fmt.Errorf("list statements: %w", err)
		}
		d.Statements = stmts
		byID[e.ID] = d
		out = append(out, d)
	}
	for _, a := range attempts {
		if d := byID[a.EnrollmentID]; d != nil {
			d.Attempts = append(d.Attempts, a)
		}
	}
	for _, p := range snapshots {
		if d := byID[p.EnrollmentID]; d != nil {
			d.ProgressSnapshots = append(d.ProgressSnapshots, p)
		}
	}
	for _, d := range out {
		sort.SliceStable(d.Attempts, func(i, j int) bool { return d.Attempts[i].AttemptNo < d.Attempts[j].AttemptNo })
		sort.SliceStable(d.ProgressSnapshots, func(i, j int) bool {
			return d.ProgressSnapshots[i].RecordedAt.After(d.ProgressSnapshots[j].RecordedAt)
		})
	}
	return out, nil
}

func (s *enrollmentService) Assign(ctx context.Context, userID, courseID string) (*types.Enrollment, bool, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, false, apierr.Validation("userId and courseId are required")
	}
	cid, err := uuid.Parse(strings.TrimSpace(courseID))
	if err != nil {
		return nil, false, apierr.Validation("userId and courseId are required")
	}

	dbc := dbctx.Context{Ctx: ctx}
	u, err := s.users.GetByID(dbc, uid)
	if err != nil {
		return nil, false, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, false, apierr.NotFound("User not found")
	}
	c, err := s.courses.GetByID(dbc, cid)
	if err != nil {
		return nil, false, fmt.Errorf("load course: %w", err)
	}
	if c == nil {
		return nil, false, apierr.NotFound("Course not found")
	}

	res, err := s.aggregate.Assign(ctx, domainagg.AssignEnrollmentInput{UserID: uid, CourseID: cid})
	if err != nil {
		return nil, false, err
	}
	if res.Created && s.analytics != nil {
		s.analytics.Invalidate(ctx)
	}
	return res.Enrollment, res.Created, nil
}
