package aggregates_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ethixlearn/ethixlearn-backend/internal/data/aggregates"
	aggtest "github.com/ethixlearn/ethixlearn-backend/internal/data/aggregates/testutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	repotest "github.com/ethixlearn/ethixlearn-backend/internal/data/repos/testutil"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db     *gorm.DB
	deps   aggregates.EnrollmentAggregateDeps
	agg    domainagg.EnrollmentAggregate
	hooks  *aggtest.HooksRecorder
	user   *types.User
	course *types.Course
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	ctx := context.Background()

	hooks := &aggtest.HooksRecorder{}
	deps := aggregates.EnrollmentAggregateDeps{
		Base:        aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks},
		Enrollments: repos.NewEnrollmentRepo(db, log),
		Attempts:    repos.NewLearningAttemptRepo(db, log),
		Snapshots:   repos.NewProgressSnapshotRepo(db, log),
		Statements:  repos.NewStatementRepo(db, log),
		Now:         func() time.Time { return fixedNow },
	}
	return &fixture{
		db:     db,
		deps:   deps,
		agg:    aggregates.NewEnrollmentAggregate(deps),
		hooks:  hooks,
		user:   repotest.SeedUser(t, ctx, db, repotest.UniqueEmail("agg")),
		course: repotest.SeedCourse(t, ctx, db, "Anti-Bribery Essentials"),
	}
}

func statementInput() *domainagg.RecordStatementInput {
	return &domainagg.RecordStatementInput{
		Actor:   json.RawMessage(`{"mbox":"mailto:learner@example.com","name":"Learner"}`),
		Verb:    json.RawMessage(`{"id":"http://adlnet.gov/expapi/verbs/experienced","display":{"en-US":"experienced"}}`),
		Object:  json.RawMessage(`{"id":"https://lms.example.com/lessons/1"}`),
		Context: json.RawMessage(`{"course":{"id":"https://lms.example.com/courses/x"}}`),
	}
}

func (f *fixture) input() domainagg.ReconcileEnrollmentInput {
	return domainagg.ReconcileEnrollmentInput{
		UserID:    f.user.ID,
		CourseID:  f.course.ID,
		Statement: statementInput(),
	}
}

func (f *fixture) reconcile(t *testing.T, in domainagg.ReconcileEnrollmentInput) domainagg.ReconcileEnrollmentResult {
	t.Helper()
	out, err := f.agg.Reconcile(context.Background(), in)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if out.Enrollment == nil {
		t.Fatalf("Reconcile: nil enrollment")
	}
	return out
}

func (f *fixture) enrollment(t *testing.T) *types.Enrollment {
	t.Helper()
	e, err := f.deps.Enrollments.GetByUserAndCourse(dbctx.Background(), f.user.ID, f.course.ID)
	if err != nil {
		t.Fatalf("GetByUserAndCourse: %v", err)
	}
	return e
}

func (f *fixture) count(t *testing.T, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func (f *fixture) enrollmentCount(t *testing.T) int64 {
	return f.count(t, &types.Enrollment{}, "user_id = ? AND course_id = ?", f.user.ID, f.course.ID)
}

func TestReconcileCreatesEnrollmentAndRecordsStatement(t *testing.T) {
	f := newFixture(t)
	in := f.input()
	in.Progress = domainagg.Some(0.5)
	in.TimeSpentMins = domainagg.Some(5.0)

	out := f.reconcile(t, in)
	if !out.EnrollmentCreated {
		t.Fatalf("expected a new enrollment")
	}
	if out.Enrollment.Progress != 0.5 || out.Enrollment.TotalTimeMinutes != 5 {
		t.Fatalf("enrollment: want progress=0.5 time=5 got=%+v", out.Enrollment)
	}
	if out.Snapshot == nil || out.Snapshot.Progress != 0.5 || out.Snapshot.TimeSpentMins != 5 {
		t.Fatalf("snapshot: got=%+v", out.Snapshot)
	}
	if out.Statement == nil || out.Statement.EnrollmentID == nil || *out.Statement.EnrollmentID != out.Enrollment.ID {
		t.Fatalf("statement back-reference missing: %+v", out.Statement)
	}
	if !out.Statement.Timestamp.Equal(fixedNow) {
		t.Fatalf("statement timestamp: want server time %s got %s", fixedNow, out.Statement.Timestamp)
	}
	if out.Statement.Result != nil {
		t.Fatalf("absent result should be stored as null, got %s", string(out.Statement.Result))
	}
	if got := f.count(t, &types.Statement{}, "enrollment_id = ?", out.Enrollment.ID); got != 1 {
		t.Fatalf("statements: want=1 got=%d", got)
	}

	if len(f.hooks.Writes) != 1 || f.hooks.Writes[0].Status != "success" {
		t.Fatalf("hooks: %+v", f.hooks.Writes)
	}
	if f.hooks.Writes[0].Name != "Learning.Enrollment.Reconcile" {
		t.Fatalf("hook op name: got=%s", f.hooks.Writes[0].Name)
	}
}

func TestReconcileClampsProgress(t *testing.T) {
	f := newFixture(t)

	in := f.input()
	in.Progress = domainagg.Some(1.4)
	if got := f.reconcile(t, in).Enrollment.Progress; got != 1.0 {
		t.Fatalf("progress 1.4: want=1.0 got=%v", got)
	}

	in = f.input()
	in.Progress = domainagg.Some(-0.2)
	if got := f.reconcile(t, in).Enrollment.Progress; got != 0.0 {
		t.Fatalf("progress -0.2: want=0.0 got=%v", got)
	}
}

func TestReconcileCompletionIsMonotonic(t *testing.T) {
	f := newFixture(t)

	in := f.input()
	in.Completed = true
	f.reconcile(t, in)

	in = f.input()
	in.Completed = false
	in.Progress = domainagg.Some(0.3)
	out := f.reconcile(t, in)
	if !out.Enrollment.Completed {
		t.Fatalf("completed reverted to false")
	}
	if out.Enrollment.Progress != 0.3 {
		t.Fatalf("progress is last-writer-wins: want=0.3 got=%v", out.Enrollment.Progress)
	}
}

func TestReconcileTimeIsAdditive(t *testing.T) {
	f := newFixture(t)

	for _, mins := range []float64{5, 7} {
		in := f.input()
		in.TimeSpentMins = domainagg.Some(mins)
		f.reconcile(t, in)
	}
	if got := f.enrollment(t).TotalTimeMinutes; got != 12 {
		t.Fatalf("total time: want=12 got=%d", got)
	}

	// Deltas that round to zero or below contribute nothing and, alone, leave no snapshot.
	for _, mins := range []float64{0.4, -3} {
		in := f.input()
		in.TimeSpentMins = domainagg.Some(mins)
		out := f.reconcile(t, in)
		if out.Snapshot != nil {
			t.Fatalf("delta %v: unexpected snapshot %+v", mins, out.Snapshot)
		}
	}
	e := f.enrollment(t)
	if e.TotalTimeMinutes != 12 {
		t.Fatalf("total time after no-op deltas: want=12 got=%d", e.TotalTimeMinutes)
	}
	if got := f.count(t, &types.ProgressSnapshot{}, "enrollment_id = ?", e.ID); got != 2 {
		t.Fatalf("snapshots: want=2 got=%d", got)
	}

	in := f.input()
	in.TimeSpentMins = domainagg.Some(2.5)
	if got := f.reconcile(t, in).Enrollment.TotalTimeMinutes; got != 15 {
		t.Fatalf("2.5 rounds up: want=15 got=%d", got)
	}
}

func TestReconcileScoreZeroIsExplicit(t *testing.T) {
	f := newFixture(t)

	in := f.input()
	in.Score = domainagg.Some(0.0)
	out := f.reconcile(t, in)
	if out.Enrollment.Score == nil || *out.Enrollment.Score != 0 {
		t.Fatalf("score: want=0 got=%v", out.Enrollment.Score)
	}
	if out.Snapshot == nil || out.Snapshot.Score == nil {
		t.Fatalf("score alone should produce a snapshot carrying it: %+v", out.Snapshot)
	}
	if out.Snapshot.Progress != 0 {
		t.Fatalf("snapshot progress falls back to stored progress: got=%v", out.Snapshot.Progress)
	}

	// Scores outside 0-100 are stored as given.
	in = f.input()
	in.Score = domainagg.Some(140.0)
	if got := f.reconcile(t, in).Enrollment.Score; got == nil || *got != 140 {
		t.Fatalf("score 140: got=%v", got)
	}
}

func TestReconcileAttemptUpsert(t *testing.T) {
	f := newFixture(t)

	in := f.input()
	in.AttemptNo = domainagg.Some(1.0)
	in.Score = domainagg.Some(70.0)
	in.TimeSpentMins = domainagg.Some(10.0)
	first := f.reconcile(t, in)
	if first.Attempt == nil || first.Attempt.CompletedAt != nil {
		t.Fatalf("first attempt: %+v", first.Attempt)
	}

	in = f.input()
	in.AttemptNo = domainagg.Some(1.0)
	in.Score = domainagg.Some(90.0)
	in.TimeSpentMins = domainagg.Some(5.0)
	in.Completed = true
	second := f.reconcile(t, in)
	a := second.Attempt
	if a == nil || a.ID != first.Attempt.ID {
		t.Fatalf("attempt should be updated in place: %+v", a)
	}
	if a.Score == nil || *a.Score != 90 || a.TimeSpentMins != 15 {
		t.Fatalf("attempt: want score=90 time=15 got=%+v", a)
	}
	if a.CompletedAt == nil || !a.CompletedAt.Equal(fixedNow) {
		t.Fatalf("attempt completed_at: got=%v", a.CompletedAt)
	}

	// completed_at is write-once.
	later := fixedNow.Add(time.Hour)
	f.deps.Now = func() time.Time { return later }
	agg := aggregates.NewEnrollmentAggregate(f.deps)
	in = f.input()
	in.AttemptNo = domainagg.Some(1.0)
	in.Completed = true
	third, err := agg.Reconcile(context.Background(), in)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if third.Attempt.CompletedAt == nil || !third.Attempt.CompletedAt.Equal(fixedNow) {
		t.Fatalf("completed_at overwritten: got=%v", third.Attempt.CompletedAt)
	}
	if third.Attempt.Score == nil || *third.Attempt.Score != 90 {
		t.Fatalf("absent score must not clear the attempt score: %+v", third.Attempt)
	}

	if got := f.count(t, &types.LearningAttempt{}, "enrollment_id = ?", first.Enrollment.ID); got != 1 {
		t.Fatalf("attempt rows: want=1 got=%d", got)
	}
}

func TestReconcileAttemptNumberNormalization(t *testing.T) {
	f := newFixture(t)

	in := f.input()
	in.AttemptNo = domainagg.Some(2.9)
	in.Completed = true
	out := f.reconcile(t, in)
	if out.Attempt == nil || out.Attempt.AttemptNo != 2 {
		t.Fatalf("attempt 2.9 floors to 2: %+v", out.Attempt)
	}
	if out.Attempt.CompletedAt == nil {
		t.Fatalf("attempt created with completed=true must carry completed_at")
	}

	for _, n := range []float64{0, -1, 0.5} {
		in := f.input()
		in.AttemptNo = domainagg.Some(n)
		if out := f.reconcile(t, in); out.Attempt != nil {
			t.Fatalf("attempt %v should be ignored, got %+v", n, out.Attempt)
		}
	}
	if got := f.count(t, &types.LearningAttempt{}, "enrollment_id = ?", out.Enrollment.ID); got != 1 {
		t.Fatalf("attempt rows: want=1 got=%d", got)
	}
}

func TestReconcileExplicitEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := repotest.SeedEnrollment(t, ctx, f.db, f.user.ID, f.course.ID)

	t.Run("matches subject", func(t *testing.T) {
		in := f.input()
		in.EnrollmentID = &existing.ID
		in.Progress = domainagg.Some(0.25)
		out := f.reconcile(t, in)
		if out.Enrollment.ID != existing.ID || out.EnrollmentCreated {
			t.Fatalf("expected existing enrollment, got %+v created=%v", out.Enrollment, out.EnrollmentCreated)
		}
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.New()
		in := f.input()
		in.EnrollmentID = &missing
		_, err := f.agg.Reconcile(ctx, in)
		if !domainagg.IsCode(err, domainagg.CodeNotFound) {
			t.Fatalf("expected not_found, got %v", err)
		}
	})

	t.Run("belongs to someone else", func(t *testing.T) {
		other := repotest.SeedUser(t, ctx, f.db, repotest.UniqueEmail("other"))
		before := f.count(t, &types.Statement{}, "enrollment_id = ?", existing.ID)
		in := f.input()
		in.UserID = other.ID
		in.EnrollmentID = &existing.ID
		in.Progress = domainagg.Some(1.0)
		_, err := f.agg.Reconcile(ctx, in)
		if !domainagg.IsCode(err, domainagg.CodeOwnership) {
			t.Fatalf("expected ownership, got %v", err)
		}
		if after := f.count(t, &types.Statement{}, "enrollment_id = ?", existing.ID); after != before {
			t.Fatalf("statement written despite ownership failure")
		}
		if got := f.enrollment(t).Progress; got != 0.25 {
			t.Fatalf("progress changed despite ownership failure: %v", got)
		}
	})
}

type failingAttempts struct {
	repos.LearningAttemptRepo
	err error
}

func (f failingAttempts) FindOrCreate(dbctx.Context, *types.LearningAttempt) (*types.LearningAttempt, bool, error) {
	return nil, false, f.err
}

func TestReconcileRollsBackOnAttemptFailure(t *testing.T) {
	f := newFixture(t)
	deps := f.deps
	deps.Attempts = failingAttempts{LearningAttemptRepo: f.deps.Attempts, err: errors.New("attempt store offline")}
	agg := aggregates.NewEnrollmentAggregate(deps)

	in := f.input()
	in.Progress = domainagg.Some(0.8)
	in.TimeSpentMins = domainagg.Some(9.0)
	in.AttemptNo = domainagg.Some(1.0)
	_, err := agg.Reconcile(context.Background(), in)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal code, got %v", err)
	}
	if got := f.enrollmentCount(t); got != 0 {
		t.Fatalf("enrollment survived rollback: count=%d", got)
	}
	var stmts int64
	if err := f.db.Model(&types.Statement{}).
		Joins("JOIN enrollment ON enrollment.id = xapi_statement.enrollment_id").
		Where("enrollment.user_id = ?", f.user.ID).
		Count(&stmts).Error; err != nil {
		t.Fatalf("count statements: %v", err)
	}
	if stmts != 0 {
		t.Fatalf("statement survived rollback")
	}

	// With an existing enrollment the prior state must be untouched.
	seeded := repotest.SeedEnrollment(t, context.Background(), f.db, f.user.ID, f.course.ID)
	if _, err := agg.Reconcile(context.Background(), in); err == nil {
		t.Fatalf("expected failure")
	}
	e := f.enrollment(t)
	if e.ID != seeded.ID || e.Progress != 0 || e.TotalTimeMinutes != 0 {
		t.Fatalf("enrollment mutated by failed write: %+v", e)
	}
	if got := f.count(t, &types.ProgressSnapshot{}, "enrollment_id = ?", e.ID); got != 0 {
		t.Fatalf("snapshot survived rollback: %d", got)
	}
	if got := f.count(t, &types.Statement{}, "enrollment_id = ?", e.ID); got != 0 {
		t.Fatalf("statement survived rollback: %d", got)
	}
}

func TestReconcileInjectedRunnerFailure(t *testing.T) {
	f := newFixture(t)
	deps := f.deps
	runner := &aggtest.InjectedTxRunner{DB: f.db, FailCommit: errors.New("commit failed")}
	deps.Base.Runner = runner
	agg := aggregates.NewEnrollmentAggregate(deps)

	_, err := agg.Reconcile(context.Background(), f.input())
	if err == nil {
		t.Fatalf("expected commit failure")
	}
	if runner.Begins != 1 || runner.Rollbacks != 1 || runner.Commits != 0 {
		t.Fatalf("runner counters: begins=%d commits=%d rollbacks=%d", runner.Begins, runner.Commits, runner.Rollbacks)
	}
	if got := f.enrollmentCount(t); got != 0 {
		t.Fatalf("enrollment survived rollback: count=%d", got)
	}
}

func TestReconcileLostCommitAckRunsOnce(t *testing.T) {
	f := newFixture(t)
	deps := f.deps
	runner := &aggtest.InjectedTxRunner{DB: f.db, LostAck: errors.New("read tcp: i/o timeout")}
	deps.Base.Runner = runner
	agg := aggregates.NewEnrollmentAggregate(deps)

	in := f.input()
	in.TimeSpentMins = domainagg.Some(5.0)
	_, err := agg.Reconcile(context.Background(), in)
	if !domainagg.IsCode(err, domainagg.CodeTransient) {
		t.Fatalf("want transient, got %v", err)
	}
	if runner.Begins != 1 || runner.Commits != 1 {
		t.Fatalf("runner counters: begins=%d commits=%d rollbacks=%d", runner.Begins, runner.Commits, runner.Rollbacks)
	}
	if len(f.hooks.Transient) != 1 || f.hooks.StatusCount(string(domainagg.CodeTransient)) != 1 {
		t.Fatalf("hooks: transient=%v writes=%+v", f.hooks.Transient, f.hooks.Writes)
	}

	// The commit landed once; nothing may be replayed on top of it.
	e := f.enrollment(t)
	if e.TotalTimeMinutes != 5 {
		t.Fatalf("time: want=5 got=%d", e.TotalTimeMinutes)
	}
	if got := f.count(t, &types.ProgressSnapshot{}, "enrollment_id = ?", e.ID); got != 1 {
		t.Fatalf("snapshots: want=1 got=%d", got)
	}
	if got := f.count(t, &types.Statement{}, "enrollment_id = ?", e.ID); got != 1 {
		t.Fatalf("statements: want=1 got=%d", got)
	}
}

func TestReconcileTransientFailureRollsBackOnce(t *testing.T) {
	f := newFixture(t)
	deps := f.deps
	runner := &aggtest.InjectedTxRunner{DB: f.db, FailCommit: aggregates.TransientError("lock timeout")}
	deps.Base.Runner = runner
	agg := aggregates.NewEnrollmentAggregate(deps)

	_, err := agg.Reconcile(context.Background(), f.input())
	if !domainagg.IsCode(err, domainagg.CodeTransient) {
		t.Fatalf("want transient, got %v", err)
	}
	if runner.Begins != 1 || runner.Rollbacks != 1 {
		t.Fatalf("runner counters: begins=%d commits=%d rollbacks=%d", runner.Begins, runner.Commits, runner.Rollbacks)
	}
	if got := f.enrollmentCount(t); got != 0 {
		t.Fatalf("enrollment written: count=%d", got)
	}
}

func TestReconcileConcurrentSubmissionsShareOneEnrollment(t *testing.T) {
	f := newFixture(t)
	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := f.input()
			in.TimeSpentMins = domainagg.Some(1.0)
			in.AttemptNo = domainagg.Some(1.0)
			if _, err := f.agg.Reconcile(context.Background(), in); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Reconcile: %v", err)
	}

	if got := f.enrollmentCount(t); got != 1 {
		t.Fatalf("enrollments: want=1 got=%d", got)
	}
	e := f.enrollment(t)
	if e.TotalTimeMinutes != workers {
		t.Fatalf("total time: want=%d got=%d", workers, e.TotalTimeMinutes)
	}
	if got := f.count(t, &types.LearningAttempt{}, "enrollment_id = ?", e.ID); got != 1 {
		t.Fatalf("attempts: want=1 got=%d", got)
	}
	if got := f.count(t, &types.Statement{}, "enrollment_id = ?", e.ID); got != workers {
		t.Fatalf("statements: want=%d got=%d", workers, got)
	}
}

func TestReconcileTwoLessonScenario(t *testing.T) {
	f := newFixture(t)

	first := f.input()
	first.Progress = domainagg.Some(0.5)
	first.TimeSpentMins = domainagg.Some(5.0)
	first.AttemptNo = domainagg.Some(1.0)
	first.Score = domainagg.Some(70.0)
	f.reconcile(t, first)

	second := f.input()
	second.Progress = domainagg.Some(1.0)
	second.TimeSpentMins = domainagg.Some(7.0)
	second.AttemptNo = domainagg.Some(1.0)
	second.Score = domainagg.Some(90.0)
	second.Completed = true
	out := f.reconcile(t, second)

	e := out.Enrollment
	if e.Progress != 1.0 || !e.Completed || e.TotalTimeMinutes != 12 || e.Score == nil || *e.Score != 90 {
		t.Fatalf("enrollment: %+v", e)
	}
	if out.Attempt == nil || out.Attempt.TimeSpentMins != 12 || *out.Attempt.Score != 90 || out.Attempt.CompletedAt == nil {
		t.Fatalf("attempt: %+v", out.Attempt)
	}
	if got := f.count(t, &types.ProgressSnapshot{}, "enrollment_id = ?", e.ID); got != 2 {
		t.Fatalf("snapshots: want=2 got=%d", got)
	}
	if got := f.count(t, &types.Statement{}, "enrollment_id = ?", e.ID); got != 2 {
		t.Fatalf("statements: want=2 got=%d", got)
	}
}

func TestReconcileRejectsInvalidInputBeforeWriting(t *testing.T) {
	f := newFixture(t)

	cases := map[string]func(in *domainagg.ReconcileEnrollmentInput){
		"missing user":   func(in *domainagg.ReconcileEnrollmentInput) { in.UserID = uuid.Nil },
		"missing course": func(in *domainagg.ReconcileEnrollmentInput) { in.CourseID = uuid.Nil },
		"missing verb":   func(in *domainagg.ReconcileEnrollmentInput) { in.Statement.Verb = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := f.input()
			mutate(&in)
			_, err := f.agg.Reconcile(context.Background(), in)
			if !domainagg.IsCode(err, domainagg.CodeValidation) {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
	if got := f.enrollmentCount(t); got != 0 {
		t.Fatalf("validation failure created an enrollment")
	}
	if len(f.hooks.Writes) != 0 {
		t.Fatalf("validation failures should not open a write: %+v", f.hooks.Writes)
	}
}

func TestReconcileKeepsCallerTimestamp(t *testing.T) {
	f := newFixture(t)
	ts := time.Date(2023, 12, 24, 8, 30, 0, 0, time.UTC)
	in := f.input()
	in.Statement.Timestamp = &ts
	out := f.reconcile(t, in)
	if !out.Statement.Timestamp.Equal(ts) {
		t.Fatalf("timestamp: want=%s got=%s", ts, out.Statement.Timestamp)
	}
	if out.Snapshot != nil {
		t.Fatalf("a bare statement should not add a snapshot")
	}
}

func TestAssignIsIdempotent(t *testing.T) {
	f := newFixture(t)
	in := domainagg.AssignEnrollmentInput{UserID: f.user.ID, CourseID: f.course.ID}

	first, err := f.agg.Assign(context.Background(), in)
	if err != nil || !first.Created {
		t.Fatalf("Assign first: err=%v created=%v", err, first.Created)
	}
	second, err := f.agg.Assign(context.Background(), in)
	if err != nil || second.Created || second.Enrollment.ID != first.Enrollment.ID {
		t.Fatalf("Assign second: err=%v result=%+v", err, second)
	}
}
