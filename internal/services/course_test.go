package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
)

func intPtr(v int) *int { return &v }

func TestCourseServiceCreateDefaultsOrder(t *testing.T) {
	h := newHarness(t)

	c, err := h.courseSvc.Create(h.ctx, CourseDraft{
		Title:          "Conflicts of Interest",
		ComplianceArea: "Ethics",
		Tags:           []string{"ethics", " ", "annual"},
		Modules: []ModuleDraft{
			{Title: "Disclosure", OrderIndex: intPtr(5)},
			{Title: "Spotting conflicts", Lessons: []LessonDraft{{Title: "Gifts"}, {Title: "Side jobs"}}},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	var tags []string
	if err := json.Unmarshal(c.Tags, &tags); err != nil || len(tags) != 2 || tags[0] != "ethics" || tags[1] != "annual" {
		t.Fatalf("tags: %s", string(c.Tags))
	}
	if len(c.Modules) != 2 {
		t.Fatalf("modules: %d", len(c.Modules))
	}
	// Unset indexes default to the draft position; the outline is read back by index.
	spotting, disclosure := c.Modules[0], c.Modules[1]
	if spotting.Title != "Spotting conflicts" || spotting.OrderIndex != 1 {
		t.Fatalf("first module: want Spotting conflicts at 1 got %q at %d", spotting.Title, spotting.OrderIndex)
	}
	if disclosure.Title != "Disclosure" || disclosure.OrderIndex != 5 {
		t.Fatalf("second module: want Disclosure at 5 got %q at %d", disclosure.Title, disclosure.OrderIndex)
	}
	if len(spotting.Lessons) != 2 || spotting.Lessons[0].Title != "Gifts" || spotting.Lessons[1].OrderIndex != 1 {
		t.Fatalf("lessons: %+v", spotting.Lessons)
	}

	if _, err := h.courseSvc.Create(h.ctx, CourseDraft{}); !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("missing title: want validation got %v", err)
	}
	if _, err := h.courseSvc.Get(h.ctx, uuid.NewString()); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("Get unknown: want not_found got %v", err)
	}
}

func TestCourseServiceUpdateSyncsOutline(t *testing.T) {
	h := newHarness(t)
	c, err := h.courseSvc.Create(h.ctx, CourseDraft{
		Title: "Anti-Harassment",
		Modules: []ModuleDraft{
			{Title: "Keep", Lessons: []LessonDraft{{Title: "Keep me"}, {Title: "Drop me"}}},
			{Title: "Drop"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	var keep *types.CourseModule
	for _, m := range c.Modules {
		if m.Title == "Keep" {
			keep = m
		}
	}
	var keepLesson *types.Lesson
	for _, l := range keep.Lessons {
		if l.Title == "Keep me" {
			keepLesson = l
		}
	}

	updated, err := h.courseSvc.Update(h.ctx, CourseDraft{
		ID:    c.ID.String(),
		Title: "Anti-Harassment 2024",
		Modules: []ModuleDraft{
			{ID: keep.ID.String(), Title: "Keep (renamed)", Lessons: []LessonDraft{
				{ID: keepLesson.ID.String(), Title: "Keep me", Content: "updated"},
				{Title: "Brand new"},
			}},
			{Title: "Added module"},
		},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Anti-Harassment 2024" || len(updated.Modules) != 2 {
		t.Fatalf("updated course: %+v", updated)
	}
	first := updated.Modules[0]
	if first.ID != keep.ID || first.Title != "Keep (renamed)" {
		t.Fatalf("kept module: %+v", first)
	}
	if len(first.Lessons) != 2 || first.Lessons[0].ID != keepLesson.ID || first.Lessons[0].Content != "updated" || first.Lessons[1].Title != "Brand new" {
		t.Fatalf("kept lessons: %+v", first.Lessons)
	}
	if updated.Modules[1].Title != "Added module" {
		t.Fatalf("added module: %+v", updated.Modules[1])
	}

	if _, err := h.courseSvc.Update(h.ctx, CourseDraft{Title: "x"}); !apierr.IsCode(err, apierr.CodeValidation) {
		t.Fatalf("missing id: want validation got %v", err)
	}
	if _, err := h.courseSvc.Update(h.ctx, CourseDraft{ID: uuid.NewString(), Title: "x"}); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("unknown id: want not_found got %v", err)
	}
}

func TestCourseServiceDeleteCascades(t *testing.T) {
	h := newHarness(t)
	learner := h.seedUser(t, types.RoleLearner)
	course := h.seedCourse(t)

	out, err := h.ingest.Ingest(h.ctx, caller(learner), IngestInput{
		Statement: lessonStatement(learner.Email, course.ID.String()),
		Progress:  some(0.2),
		AttemptNo: some(1),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := h.courseSvc.Delete(h.ctx, course.ID.String()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := h.courseSvc.Delete(h.ctx, course.ID.String()); !apierr.IsCode(err, apierr.CodeNotFound) {
		t.Fatalf("second delete: want not_found got %v", err)
	}
	if n := h.countRows(t, &types.Enrollment{}, "course_id = ?", course.ID); n != 0 {
		t.Fatalf("enrollments survived")
	}
	if n := h.countRows(t, &types.CourseModule{}, "course_id = ?", course.ID); n != 0 {
		t.Fatalf("modules survived")
	}
	if n := h.countRows(t, &types.Lesson{}, "module_id = ?", course.Modules[0].ID); n != 0 {
		t.Fatalf("lessons survived")
	}
	if n := h.countRows(t, &types.Statement{}, "id = ?", out.Statement.ID); n != 1 {
		t.Fatalf("statement log should outlive the course")
	}
}
