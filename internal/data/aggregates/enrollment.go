package aggregates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"gorm.io/datatypes"
)

type EnrollmentAggregateDeps struct {
	Base BaseDeps

	Enrollments repos.EnrollmentRepo
	Attempts    repos.LearningAttemptRepo
	Snapshots   repos.ProgressSnapshotRepo
	Statements  repos.StatementRepo

	// Now is the clock used for snapshots, attempts and default statement time.
	Now func() time.Time
}

type enrollmentAggregate struct {
	deps EnrollmentAggregateDeps
}

func NewEnrollmentAggregate(deps EnrollmentAggregateDeps) domainagg.EnrollmentAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &enrollmentAggregate{deps: deps}
}

func (a *enrollmentAggregate) Reconcile(ctx context.Context, in domainagg.ReconcileEnrollmentInput) (domainagg.ReconcileEnrollmentResult, error) {
	const op = "Learning.Enrollment.Reconcile"
	var out domainagg.ReconcileEnrollmentResult

	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.CourseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if a.deps.Enrollments == nil || a.deps.Attempts == nil || a.deps.Snapshots == nil || a.deps.Statements == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "enrollment aggregate repos not configured", nil)
	}

	progress, err := normalizeProgress(in.Progress)
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	score, err := finiteOrNil(in.Score, "score")
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	minutes := normalizeMinutes(in.TimeSpentMins)
	attemptNo := normalizeAttemptNo(in.AttemptNo)
	if in.Statement != nil {
		if isAbsentJSON(in.Statement.Actor) || isAbsentJSON(in.Statement.Verb) || isAbsentJSON(in.Statement.Object) {
			return out, domainagg.NewError(domainagg.CodeValidation, op, "statement actor, verb and object are required", nil)
		}
	}

	now := a.deps.Now().UTC()
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		out = domainagg.ReconcileEnrollmentResult{}
		enrollment, created, err := a.lookup(dbc, op, in)
		if err != nil {
			return err
		}
		out.EnrollmentCreated = created

		patch := types.EnrollmentPatch{
			Progress:      progress,
			Score:         score,
			MarkCompleted: in.Completed,
			AddMinutes:    minutes,
		}
		if !patch.Empty() {
			if err := a.deps.Enrollments.ApplyPatch(dbc, enrollment.ID, patch); err != nil {
				return err
			}
			if enrollment, err = a.deps.Enrollments.GetByID(dbc, enrollment.ID); err != nil {
				return err
			}
			if enrollment == nil {
				return domainagg.NewError(domainagg.CodeNotFound, op, "Enrollment not found", nil)
			}
		}

		if minutes > 0 || progress != nil || score != nil {
			snap := &types.ProgressSnapshot{
				EnrollmentID:  enrollment.ID,
				RecordedAt:    now,
				Progress:      enrollment.Progress,
				Score:         score,
				TimeSpentMins: minutes,
			}
			if err := a.deps.Snapshots.Create(dbc, snap); err != nil {
				return err
			}
			out.Snapshot = snap
		}

		if attemptNo > 0 {
			attempt, err := a.upsertAttempt(dbc, enrollment.ID, attemptNo, score, minutes, in.Completed, now)
			if err != nil {
				return err
			}
			out.Attempt = attempt
		}

		if in.Statement != nil {
			stmt := buildStatement(in.Statement, enrollment.ID, now)
			if err := a.deps.Statements.Create(dbc, stmt); err != nil {
				return err
			}
			out.Statement = stmt
		}

		out.Enrollment = enrollment
		out.AppliedAt = now
		return nil
	})
	if err != nil {
		return domainagg.ReconcileEnrollmentResult{}, err
	}
	return out, nil
}

func (a *enrollmentAggregate) Assign(ctx context.Context, in domainagg.AssignEnrollmentInput) (domainagg.AssignEnrollmentResult, error) {
	const op = "Learning.Enrollment.Assign"
	var out domainagg.AssignEnrollmentResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.CourseID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing course_id", nil)
	}
	if a.deps.Enrollments == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "enrollment aggregate repos not configured", nil)
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		e, created, err := a.deps.Enrollments.FindOrCreate(dbc, in.UserID, in.CourseID)
		if err != nil {
			return err
		}
		out = domainagg.AssignEnrollmentResult{Enrollment: e, Created: created}
		return nil
	})
	return out, err
}

// lookup resolves the enrollment a statement applies to. An explicit id must
// exist and belong to the subject; otherwise (user, course) is found or created.
func (a *enrollmentAggregate) lookup(dbc dbctx.Context, op string, in domainagg.ReconcileEnrollmentInput) (*types.Enrollment, bool, error) {
	if in.EnrollmentID != nil && *in.EnrollmentID != uuid.Nil {
		e, err := a.deps.Enrollments.GetByID(dbc, *in.EnrollmentID)
		if err != nil {
			return nil, false, err
		}
		if e == nil {
			return nil, false, domainagg.NewError(domainagg.CodeNotFound, op, "Enrollment not found", nil)
		}
		if e.UserID != in.UserID {
			return nil, false, domainagg.NewError(domainagg.CodeOwnership, op, "Enrollment does not belong to user", nil)
		}
		return e, false, nil
	}
	return a.deps.Enrollments.FindOrCreate(dbc, in.UserID, in.CourseID)
}

func (a *enrollmentAggregate) upsertAttempt(dbc dbctx.Context, enrollmentID uuid.UUID, attemptNo int, score *float64, minutes int, completed bool, now time.Time) (*types.LearningAttempt, error) {
	seed := &types.LearningAttempt{
		EnrollmentID:  enrollmentID,
		AttemptNo:     attemptNo,
		Score:         score,
		TimeSpentMins: minutes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if completed {
		at := now
		seed.CompletedAt = &at
	}
	attempt, created, err := a.deps.Attempts.FindOrCreate(dbc, seed)
	if err != nil {
		return nil, err
	}
	if created {
		return attempt, nil
	}

	if err := a.deps.Attempts.Accumulate(dbc, attempt.ID, score, minutes); err != nil {
		return nil, err
	}
	if completed && attempt.CompletedAt == nil {
		if _, err := a.deps.Attempts.MarkCompleted(dbc, attempt.ID, now); err != nil {
			return nil, err
		}
	}
	return a.deps.Attempts.GetByEnrollmentAndNo(dbc, enrollmentID, attemptNo)
}

func buildStatement(in *domainagg.RecordStatementInput, enrollmentID uuid.UUID, now time.Time) *types.Statement {
	ts := now
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = in.Timestamp.UTC()
	}
	eid := enrollmentID
	return &types.Statement{
		ID:           uuid.New(),
		Actor:        rawJSON(in.Actor),
		Verb:         rawJSON(in.Verb),
		Object:       rawJSON(in.Object),
		Result:       rawJSON(in.Result),
		Context:      rawJSON(in.Context),
		Timestamp:    ts,
		EnrollmentID: &eid,
		CreatedAt:    now,
	}
}

func normalizeProgress(p domainagg.Optional[float64]) (*float64, error) {
	v, ok := p.Get()
	if !ok {
		return nil, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.New("progress must be a finite number")
	}
	v = math.Max(0, math.Min(1, v))
	return &v, nil
}

func finiteOrNil(o domainagg.Optional[float64], field string) (*float64, error) {
	v, ok := o.Get()
	if !ok {
		return nil, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.New(field + " must be a finite number")
	}
	return &v, nil
}

// normalizeMinutes rounds half away from zero and floors negatives at zero.
func normalizeMinutes(o domainagg.Optional[float64]) int {
	v, ok := o.Get()
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r := math.Round(v)
	if r <= 0 {
		return 0
	}
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(r)
}

func normalizeAttemptNo(o domainagg.Optional[float64]) int {
	v, ok := o.Get()
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	n := math.Floor(v)
	if n < 1 || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}

func isAbsentJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func rawJSON(raw json.RawMessage) datatypes.JSON {
	if isAbsentJSON(raw) {
		return nil
	}
	return datatypes.JSON(bytes.TrimSpace(raw))
}
