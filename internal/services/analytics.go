package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/observability"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

type AnalyticsTotals struct {
	TotalEnrollments int     `json:"totalEnrollments"`
	CompletedCount   int     `json:"completedCount"`
	CompletionRate   float64 `json:"completionRate"`
	AverageProgress  float64 `json:"averageProgress"`
	AverageScore     float64 `json:"averageScore"`
	TotalTimeMinutes int     `json:"totalTimeMinutes"`
}

type AnalyticsLearner struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type AnalyticsCourse struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type AnalyticsAttempt struct {
	AttemptNo     int        `json:"attemptNo"`
	Score         *float64   `json:"score"`
	TimeSpentMins int        `json:"timeSpentMins"`
	CompletedAt   *time.Time `json:"completedAt"`
}

type AnalyticsPoint struct {
	RecordedAt    time.Time `json:"recordedAt"`
	Progress      float64   `json:"progress"`
	Score         *float64  `json:"score"`
	TimeSpentMins int       `json:"timeSpentMins"`
}

type AnalyticsEnrollment struct {
	EnrollmentID     uuid.UUID          `json:"enrollmentId"`
	Learner          AnalyticsLearner   `json:"learner"`
	Course           AnalyticsCourse    `json:"course"`
	Progress         float64            `json:"progress"`
	Score            *float64           `json:"score"`
	Completed        bool               `json:"completed"`
	TotalTimeMinutes int                `json:"totalTimeMinutes"`
	Attempts         []AnalyticsAttempt `json:"attempts"`
	ProgressTimeline []AnalyticsPoint   `json:"progressTimeline"`
}

type AnalyticsReport struct {
	Totals  AnalyticsTotals       `json:"totals"`
	Summary []AnalyticsEnrollment `json:"summary"`
}

// ComplianceRow is one line of the completion report export.
type ComplianceRow struct {
	LearnerEmail     string   `json:"learnerEmail"`
	LearnerName      string   `json:"learnerName"`
	CourseTitle      string   `json:"courseTitle"`
	Progress         float64  `json:"progress"`
	Score            *float64 `json:"score"`
	Completed        bool     `json:"completed"`
	TotalTimeMinutes int      `json:"totalTimeMinutes"`
}

type AnalyticsService interface {
	Report(ctx context.Context) (*AnalyticsReport, error)
	ComplianceRows(ctx context.Context) ([]ComplianceRow, error)
	// Invalidate drops the cached report. Failures are logged, never returned.
	Invalidate(ctx context.Context)
}

type analyticsService struct {
	log         *logger.Logger
	enrollments repos.EnrollmentRepo
	attempts    repos.LearningAttemptRepo
	snapshots   repos.ProgressSnapshotRepo
	cache       AnalyticsCache
	metrics     *observability.Metrics
}

func NewAnalyticsService(
	log *logger.Logger,
	enrollments repos.EnrollmentRepo,
	attempts repos.LearningAttemptRepo,
	snapshots repos.ProgressSnapshotRepo,
	cache AnalyticsCache,
	metrics *observability.Metrics,
) AnalyticsService {
	if cache == nil {
		cache = NopAnalyticsCache()
	}
	return &analyticsService{
		log:         log.With("service", "AnalyticsService"),
		enrollments: enrollments,
		attempts:    attempts,
		snapshots:   snapshots,
		cache:       cache,
		metrics:     metrics,
	}
}

func (s *analyticsService) Report(ctx context.Context) (*AnalyticsReport, error) {
	if raw, ok, err := s.cache.Get(ctx); err != nil {
		s.metrics.IncAnalyticsCache("error")
		s.log.Warn("Analytics cache read failed", "error", err)
	} else if ok {
		var cached AnalyticsReport
		if err := json.Unmarshal(raw, &cached); err == nil {
			s.metrics.IncAnalyticsCache("hit")
			return &cached, nil
		}
		s.log.Warn("Discarding undecodable analytics cache entry")
	} else {
		s.metrics.IncAnalyticsCache("miss")
	}

	report, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(report); err == nil {
		if err := s.cache.Set(ctx, raw); err != nil {
			s.log.Warn("Analytics cache write failed", "error", err)
		}
	}
	return report, nil
}

func (s *analyticsService) compute(ctx context.Context) (*AnalyticsReport, error) {
	dbc := dbctx.Context{Ctx: ctx}
	enrollments, err := s.enrollments.ListWithRefs(dbc)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.ID)
	}

	var (
		attempts  []*types.LearningAttempt
		snapshots []*types.ProgressSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.attempts.ListByEnrollmentIDs(dbctx.Context{Ctx: gctx}, ids)
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}
		attempts = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.snapshots.ListByEnrollmentIDs(dbctx.Context{Ctx: gctx}, ids)
		if err != nil {
			return fmt.Errorf("list snapshots: %w", err)
		}
		snapshots = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	attemptsBy := map[uuid.UUID][]AnalyticsAttempt{}
	for _, a := range attempts {
		attemptsBy[a.EnrollmentID] = append(attemptsBy[a.EnrollmentID], AnalyticsAttempt{
			AttemptNo:     a.AttemptNo,
			Score:         a.Score,
			TimeSpentMins: a.TimeSpentMins,
			CompletedAt:   a.CompletedAt,
		})
	}
	timelineBy := map[uuid.UUID][]AnalyticsPoint{}
	for _, p := range snapshots {
		timelineBy[p.EnrollmentID] = append(timelineBy[p.EnrollmentID], AnalyticsPoint{
			RecordedAt:    p.RecordedAt,
			Progress:      p.Progress,
			Score:         p.Score,
			TimeSpentMins: p.TimeSpentMins,
		})
	}

	report := &AnalyticsReport{Summary: make([]AnalyticsEnrollment, 0, len(enrollments))}
	var progressSum, scoreSum float64
	for _, e := range enrollments {
		report.Totals.TotalEnrollments++
		if e.Completed {
			report.Totals.CompletedCount++
		}
		progressSum += e.Progress
		if e.Score != nil {
			scoreSum += *e.Score
		}
		report.Totals.TotalTimeMinutes += e.TotalTimeMinutes

		row := AnalyticsEnrollment{
			EnrollmentID:     e.ID,
			Learner:          AnalyticsLearner{ID: e.UserID},
			Course:           AnalyticsCourse{ID: e.CourseID},
			Progress:         e.Progress,
			Score:            e.Score,
			Completed:        e.Completed,
			TotalTimeMinutes: e.TotalTimeMinutes,
			Attempts:         attemptsBy[e.ID],
			ProgressTimeline: timelineBy[e.ID],
		}
		if e.User != nil {
			row.Learner.Email = e.User.Email
			row.Learner.Name = e.User.Name
		}
		if e.Course != nil {
			row.Course.Title = e.Course.Title
		}
		if row.Attempts == nil {
			row.Attempts = []AnalyticsAttempt{}
		}
		if row.ProgressTimeline == nil {
			row.ProgressTimeline = []AnalyticsPoint{}
		}
		report.Summary = append(report.Summary, row)
	}

	// Unscored enrollments count as zero toward the average score.
	if n := report.Totals.TotalEnrollments; n > 0 {
		report.Totals.CompletionRate = float64(report.Totals.CompletedCount) / float64(n)
		report.Totals.AverageProgress = progressSum / float64(n)
		report.Totals.AverageScore = scoreSum / float64(n)
	}
	return report, nil
}

func (s *analyticsService) ComplianceRows(ctx context.Context) ([]ComplianceRow, error) {
	enrollments, err := s.enrollments.ListWithRefs(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	out := make([]ComplianceRow, 0, len(enrollments))
	for _, e := range enrollments {
		row := ComplianceRow{
			Progress:         e.Progress,
			Score:            e.Score,
			Completed:        e.Completed,
			TotalTimeMinutes: e.TotalTimeMinutes,
		}
		if e.User != nil {
			row.LearnerEmail = e.User.Email
			row.LearnerName = e.User.Name
		}
		if e.Course != nil {
			row.CourseTitle = e.Course.Title
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *analyticsService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("Analytics cache invalidation failed", "error", err)
	}
}
