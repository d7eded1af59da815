package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/domain/xapi"
	"github.com/ethixlearn/ethixlearn-backend/internal/observability"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

// IngestInput is one inbound statement plus the optional progress fields the
// client attached to it.
type IngestInput struct {
	Statement xapi.Statement

	UserID       string
	CourseID     string
	EnrollmentID string

	Progress      domainagg.Optional[float64]
	Score         domainagg.Optional[float64]
	TimeSpentMins domainagg.Optional[float64]
	AttemptNo     domainagg.Optional[float64]
	Completed     bool
}

type IngestResult struct {
	Statement         *types.Statement
	Enrollment        *types.Enrollment
	EnrollmentCreated bool
}

type StatementService interface {
	// Ingest validates, resolves and records a statement. caller is nil in
	// open ingestion mode.
	Ingest(ctx context.Context, caller *ctxutil.RequestData, in IngestInput) (*IngestResult, error)
}

type statementService struct {
	log       *logger.Logger
	identity  IdentityResolver
	reconcile domainagg.EnrollmentAggregate
	analytics AnalyticsService
	metrics   *observability.Metrics
}

func NewStatementService(
	log *logger.Logger,
	identity IdentityResolver,
	reconcile domainagg.EnrollmentAggregate,
	analytics AnalyticsService,
	metrics *observability.Metrics,
) StatementService {
	return &statementService{
		log:       log.With("service", "StatementService"),
		identity:  identity,
		reconcile: reconcile,
		analytics: analytics,
		metrics:   metrics,
	}
}

func (s *statementService) Ingest(ctx context.Context, caller *ctxutil.RequestData, in IngestInput) (*IngestResult, error) {
	out, err := s.ingest(ctx, caller, in)
	if err != nil {
		s.metrics.IncStatement(outcomeOf(err))
		return nil, err
	}
	s.metrics.IncStatement("recorded")
	if s.analytics != nil {
		s.analytics.Invalidate(ctx)
	}
	return out, nil
}

func (s *statementService) ingest(ctx context.Context, caller *ctxutil.RequestData, in IngestInput) (*IngestResult, error) {
	stmt := &in.Statement
	if err := stmt.Validate(); err != nil {
		return nil, err
	}

	subjectID, err := s.identity.ResolveSubject(ctx, caller, in.UserID, stmt)
	if err != nil {
		return nil, err
	}
	courseID, err := s.identity.ResolveCourse(in.CourseID, stmt)
	if err != nil {
		return nil, err
	}

	var enrollmentID *uuid.UUID
	if raw := strings.TrimSpace(in.EnrollmentID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apierr.Validation("Invalid enrollment id")
		}
		enrollmentID = &id
	}

	record := &domainagg.RecordStatementInput{
		Actor:   stmt.Actor,
		Verb:    stmt.Verb,
		Object:  stmt.Object,
		Result:  stmt.Result,
		Context: stmt.Context,
	}
	if ts, ok := stmt.ParsedTimestamp(); ok {
		record.Timestamp = &ts
	}

	res, err := s.reconcile.Reconcile(ctx, domainagg.ReconcileEnrollmentInput{
		UserID:        subjectID,
		CourseID:      courseID,
		EnrollmentID:  enrollmentID,
		Progress:      in.Progress,
		Score:         in.Score,
		TimeSpentMins: in.TimeSpentMins,
		AttemptNo:     in.AttemptNo,
		Completed:     in.Completed,
		Statement:     record,
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("Statement recorded",
		"learner_id", subjectID.String(),
		"course_id", courseID.String(),
		"enrollment_id", res.Enrollment.ID.String(),
		"verb", stmt.VerbID(),
		"enrollment_created", res.EnrollmentCreated,
	)
	return &IngestResult{
		Statement:         res.Statement,
		Enrollment:        res.Enrollment,
		EnrollmentCreated: res.EnrollmentCreated,
	}, nil
}

func outcomeOf(err error) string {
	if e, ok := apierr.As(err); ok {
		return e.Code
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	return "internal"
}
