package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos/testutil"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
)

func TestLearningAttemptRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewLearningAttemptRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx, testutil.UniqueEmail("attempt"))
	c := testutil.SeedCourse(t, ctx, tx, "course")
	e := testutil.SeedEnrollment(t, ctx, tx, u.ID, c.ID)

	a, created, err := repo.FindOrCreate(dbc, &types.LearningAttempt{
		EnrollmentID:  e.ID,
		AttemptNo:     1,
		Score:         testutil.PtrFloat(70),
		TimeSpentMins: 10,
	})
	if err != nil || !created {
		t.Fatalf("FindOrCreate: err=%v created=%v", err, created)
	}

	again, created, err := repo.FindOrCreate(dbc, &types.LearningAttempt{EnrollmentID: e.ID, AttemptNo: 1, TimeSpentMins: 99})
	if err != nil || created || again.ID != a.ID {
		t.Fatalf("FindOrCreate existing: err=%v created=%v id=%v", err, created, again.ID)
	}
	if again.TimeSpentMins != 10 {
		t.Fatalf("existing attempt must keep stored values, got time=%d", again.TimeSpentMins)
	}

	if err := repo.Accumulate(dbc, a.ID, testutil.PtrFloat(90), 15); err != nil {
		t.Fatalf("Accumulate: %v", err)
	}

	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ok, err := repo.MarkCompleted(dbc, a.ID, first)
	if err != nil || !ok {
		t.Fatalf("MarkCompleted first: err=%v ok=%v", err, ok)
	}
	ok, err = repo.MarkCompleted(dbc, a.ID, first.Add(time.Hour))
	if err != nil || ok {
		t.Fatalf("MarkCompleted second: err=%v ok=%v", err, ok)
	}

	got, err := repo.GetByEnrollmentAndNo(dbc, e.ID, 1)
	if err != nil || got == nil {
		t.Fatalf("GetByEnrollmentAndNo: err=%v", err)
	}
	if got.Score == nil || *got.Score != 90 {
		t.Fatalf("score: want=90 got=%v", got.Score)
	}
	if got.TimeSpentMins != 25 {
		t.Fatalf("time: want=25 got=%d", got.TimeSpentMins)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(first) {
		t.Fatalf("completed_at: want=%s got=%v", first, got.CompletedAt)
	}

	if _, _, err := repo.FindOrCreate(dbc, &types.LearningAttempt{EnrollmentID: e.ID, AttemptNo: 2}); err != nil {
		t.Fatalf("FindOrCreate attempt 2: %v", err)
	}
	list, err := repo.ListByEnrollmentIDs(dbc, []uuid.UUID{e.ID})
	if err != nil || len(list) != 2 || list[0].AttemptNo != 1 || list[1].AttemptNo != 2 {
		t.Fatalf("ListByEnrollmentIDs: err=%v list=%+v", err, list)
	}

	if err := repo.DeleteByEnrollmentIDs(dbc, []uuid.UUID{e.ID}); err != nil {
		t.Fatalf("DeleteByEnrollmentIDs: %v", err)
	}
	if list, _ := repo.ListByEnrollmentIDs(dbc, []uuid.UUID{e.ID}); len(list) != 0 {
		t.Fatalf("DeleteByEnrollmentIDs: %d attempts left", len(list))
	}
}
