package services

import (
	"testing"

	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	repotest "github.com/ethixlearn/ethixlearn-backend/internal/data/repos/testutil"
)

func TestAnalyticsEmptySetIsAllZeros(t *testing.T) {
	if repotest.UsingPostgres() {
		t.Skip("needs an empty enrollment table")
	}
	h := newHarness(t)
	report, err := h.analytics.Report(h.ctx)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.Totals != (AnalyticsTotals{}) {
		t.Fatalf("totals: %+v", report.Totals)
	}
	if report.Summary == nil || len(report.Summary) != 0 {
		t.Fatalf("summary should be an empty list: %#v", report.Summary)
	}
}

func TestAnalyticsTotalsAndCache(t *testing.T) {
	if repotest.UsingPostgres() {
		t.Skip("totals assume an isolated database")
	}
	h := newHarness(t)
	a := h.seedUser(t, types.RoleLearner)
	b := h.seedUser(t, types.RoleLearner)
	course := h.seedCourse(t)

	if _, err := h.ingest.Ingest(h.ctx, caller(a), IngestInput{
		Statement: lessonStatement(a.Email, course.ID.String()),
		Progress:  some(1), Score: some(80), TimeSpentMins: some(10), AttemptNo: some(1), Completed: true,
	}); err != nil {
		t.Fatalf("ingest a: %v", err)
	}
	if _, err := h.ingest.Ingest(h.ctx, caller(b), IngestInput{
		Statement: lessonStatement(b.Email, course.ID.String()),
		Progress:  some(0.5), TimeSpentMins: some(6),
	}); err != nil {
		t.Fatalf("ingest b: %v", err)
	}

	report, err := h.analytics.Report(h.ctx)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	want := AnalyticsTotals{
		TotalEnrollments: 2,
		CompletedCount:   1,
		CompletionRate:   0.5,
		AverageProgress:  0.75,
		AverageScore:     40,
		TotalTimeMinutes: 16,
	}
	if report.Totals != want {
		t.Fatalf("totals: want=%+v got=%+v", want, report.Totals)
	}
	if len(report.Summary) != 2 {
		t.Fatalf("summary rows: %d", len(report.Summary))
	}
	for _, row := range report.Summary {
		if row.Learner.Email == "" || row.Course.Title != course.Title {
			t.Fatalf("summary refs not loaded: %+v", row)
		}
		if row.Learner.ID == a.ID && (len(row.Attempts) != 1 || len(row.ProgressTimeline) != 1) {
			t.Fatalf("learner a history: %+v", row)
		}
	}
	if h.cache.sets != 1 {
		t.Fatalf("cache sets: want=1 got=%d", h.cache.sets)
	}

	// A cached report is served until the next ingestion invalidates it.
	if _, err := h.analytics.Report(h.ctx); err != nil || h.cache.sets != 1 {
		t.Fatalf("cached read: err=%v sets=%d", err, h.cache.sets)
	}
	if _, err := h.ingest.Ingest(h.ctx, caller(b), IngestInput{
		Statement: lessonStatement(b.Email, course.ID.String()), Completed: true,
	}); err != nil {
		t.Fatalf("ingest b again: %v", err)
	}
	report, err = h.analytics.Report(h.ctx)
	if err != nil || report.Totals.CompletedCount != 2 || h.cache.sets != 2 {
		t.Fatalf("after invalidation: err=%v totals=%+v sets=%d", err, report.Totals, h.cache.sets)
	}

	rows, err := h.analytics.ComplianceRows(h.ctx)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ComplianceRows: err=%v len=%d", err, len(rows))
	}
}
