package services

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
)

func TestResolveSubject(t *testing.T) {
	h := newHarness(t)
	learner := h.seedUser(t, types.RoleLearner)
	other := h.seedUser(t, types.RoleLearner)
	admin := h.seedUser(t, types.RoleAdmin)
	stmt := lessonStatement(learner.Email, uuid.NewString())

	t.Run("caller is subject by default", func(t *testing.T) {
		got, err := h.identity.ResolveSubject(h.ctx, caller(learner), "", &stmt)
		if err != nil || got != learner.ID {
			t.Fatalf("want=%s got=%s err=%v", learner.ID, got, err)
		}
	})
	t.Run("explicit self", func(t *testing.T) {
		got, err := h.identity.ResolveSubject(h.ctx, caller(learner), learner.ID.String(), &stmt)
		if err != nil || got != learner.ID {
			t.Fatalf("want=%s got=%s err=%v", learner.ID, got, err)
		}
	})
	t.Run("learner for someone else", func(t *testing.T) {
		_, err := h.identity.ResolveSubject(h.ctx, caller(learner), other.ID.String(), &stmt)
		if !apierr.IsCode(err, apierr.CodeForbidden) {
			t.Fatalf("want forbidden got %v", err)
		}
		if err.Error() != "Not authorized to write statements for other users" {
			t.Fatalf("message: %q", err.Error())
		}
	})
	t.Run("admin for someone else", func(t *testing.T) {
		got, err := h.identity.ResolveSubject(h.ctx, caller(admin), other.ID.String(), &stmt)
		if err != nil || got != other.ID {
			t.Fatalf("want=%s got=%s err=%v", other.ID, got, err)
		}
	})
	t.Run("admin for unknown user", func(t *testing.T) {
		_, err := h.identity.ResolveSubject(h.ctx, caller(admin), uuid.NewString(), &stmt)
		if !apierr.IsCode(err, apierr.CodeResolution) {
			t.Fatalf("want resolution got %v", err)
		}
	})
	t.Run("open mode mailbox fallback", func(t *testing.T) {
		got, err := h.identity.ResolveSubject(h.ctx, nil, "", &stmt)
		if err != nil || got != learner.ID {
			t.Fatalf("want=%s got=%s err=%v", learner.ID, got, err)
		}
	})
	t.Run("open mode explicit id", func(t *testing.T) {
		got, err := h.identity.ResolveSubject(h.ctx, nil, other.ID.String(), &stmt)
		if err != nil || got != other.ID {
			t.Fatalf("want=%s got=%s err=%v", other.ID, got, err)
		}
	})
	t.Run("open mode unknown mailbox", func(t *testing.T) {
		s := lessonStatement("ghost@example.com", uuid.NewString())
		_, err := h.identity.ResolveSubject(h.ctx, nil, "", &s)
		if !apierr.IsCode(err, apierr.CodeResolution) {
			t.Fatalf("want resolution got %v", err)
		}
		if err.Error() != "Unable to determine learner for statement" {
			t.Fatalf("message: %q", err.Error())
		}
	})
}

func TestResolveCourse(t *testing.T) {
	h := newHarness(t)
	explicit := uuid.New()
	fromContext := uuid.New()
	stmt := lessonStatement("a@example.com", fromContext.String())

	if got, err := h.identity.ResolveCourse(explicit.String(), &stmt); err != nil || got != explicit {
		t.Fatalf("explicit wins: want=%s got=%s err=%v", explicit, got, err)
	}
	if got, err := h.identity.ResolveCourse("", &stmt); err != nil || got != fromContext {
		t.Fatalf("context fallback: want=%s got=%s err=%v", fromContext, got, err)
	}

	bare := lessonStatement("a@example.com", "")
	bare.Context = nil
	_, err := h.identity.ResolveCourse("", &bare)
	if !apierr.IsCode(err, apierr.CodeResolution) || err.Error() != "Course id is required" {
		t.Fatalf("missing course: got %v", err)
	}
	if _, err := h.identity.ResolveCourse("not-a-uuid", &bare); !apierr.IsCode(err, apierr.CodeResolution) {
		t.Fatalf("bad course id: got %v", err)
	}
}
