package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

// CourseDraft is the editable shape of a course. Ids are optional: on update a
// module or lesson with a known id is edited in place, anything else is
// created, and existing children missing from the draft are removed.
type CourseDraft struct {
	ID             string        `json:"id"`
	Title          string        `json:"title" binding:"required"`
	Description    string        `json:"description"`
	Category       string        `json:"category"`
	ComplianceArea string        `json:"complianceArea"`
	Level          string        `json:"level"`
	DurationMins   *int          `json:"durationMins"`
	Tags           []string      `json:"tags"`
	Modules        []ModuleDraft `json:"modules" binding:"dive"`
}

type ModuleDraft struct {
	ID         string        `json:"id"`
	Title      string        `json:"title" binding:"required"`
	Objective  string        `json:"objective"`
	OrderIndex *int          `json:"orderIndex"`
	Lessons    []LessonDraft `json:"lessons" binding:"dive"`
}

type LessonDraft struct {
	ID           string `json:"id"`
	Title        string `json:"title" binding:"required"`
	Content      string `json:"content"`
	MediaURL     string `json:"mediaUrl"`
	DurationMins *int   `json:"duration"`
	OrderIndex   *int   `json:"orderIndex"`
}

type CourseService interface {
	List(ctx context.Context) ([]*types.Course, error)
	Get(ctx context.Context, id string) (*types.Course, error)
	Create(ctx context.Context, draft CourseDraft) (*types.Course, error)
	Update(ctx context.Context, draft CourseDraft) (*types.Course, error)
	// Delete removes the course, its outline and every enrollment in it.
	Delete(ctx context.Context, id string) error
}

type courseService struct {
	db      *gorm.DB
	log     *logger.Logger
	courses repos.CourseRepo
	modules repos.CourseModuleRepo
	lessons repos.LessonRepo
	cascade enrollmentCascade
}

type CourseServiceDeps struct {
	Courses     repos.CourseRepo
	Modules     repos.CourseModuleRepo
	Lessons     repos.LessonRepo
	Enrollments repos.EnrollmentRepo
	Attempts    repos.LearningAttemptRepo
	Snapshots   repos.ProgressSnapshotRepo
	Statements  repos.StatementRepo
}

func NewCourseService(db *gorm.DB, log *logger.Logger, deps CourseServiceDeps) CourseService {
	return &courseService{
		db:      db,
		log:     log.With("service", "CourseService"),
		courses: deps.Courses,
		modules: deps.Modules,
		lessons: deps.Lessons,
		cascade: enrollmentCascade{
			enrollments: deps.Enrollments,
			attempts:    deps.Attempts,
			snapshots:   deps.Snapshots,
			statements:  deps.Statements,
		},
	}
}

func (cs *courseService) List(ctx context.Context) ([]*types.Course, error) {
	out, err := cs.courses.ListWithOutline(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

func (cs *courseService) Get(ctx context.Context, id string) (*types.Course, error) {
	cid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apierr.NotFound("Course not found")
	}
	c, err := cs.courses.GetWithOutline(dbctx.Context{Ctx: ctx}, cid)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if c == nil {
		return nil, apierr.NotFound("Course not found")
	}
	return c, nil
}

func (cs *courseService) Create(ctx context.Context, draft CourseDraft) (*types.Course, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, apierr.Validation("Course title is required")
	}
	c := &types.Course{
		Title:          strings.TrimSpace(draft.Title),
		Description:    draft.Description,
		Category:       draft.Category,
		ComplianceArea: draft.ComplianceArea,
		Level:          draft.Level,
		DurationMins:   draft.DurationMins,
		Tags:           tagsJSON(draft.Tags),
	}
	id, err := parseOptionalID(draft.ID)
	if err != nil {
		return nil, err
	}
	c.ID = id
	for i, md := range draft.Modules {
		m, err := buildModule(md, i)
		if err != nil {
			return nil, err
		}
		c.Modules = append(c.Modules, m)
	}
	if err := cs.courses.Create(dbctx.Context{Ctx: ctx}, c); err != nil {
		if isUniqueViolation(err) {
			return nil, apierr.Conflict("Course already exists")
		}
		return nil, fmt.Errorf("create course: %w", err)
	}
	return cs.courses.GetWithOutline(dbctx.Context{Ctx: ctx}, c.ID)
}

func (cs *courseService) Update(ctx context.Context, draft CourseDraft) (*types.Course, error) {
	cid, err := parseOptionalID(draft.ID)
	if err != nil {
		return nil, err
	}
	if cid == uuid.Nil {
		return nil, apierr.Validation("Course id is required")
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, apierr.Validation("Course title is required")
	}

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := cs.courses.GetWithOutline(dbc, cid)
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		if existing == nil {
			return apierr.NotFound("Course not found")
		}
		if err := cs.courses.UpdateFields(dbc, cid, map[string]interface{}{
			"title":           strings.TrimSpace(draft.Title),
			"description":     draft.Description,
			"category":        draft.Category,
			"compliance_area": draft.ComplianceArea,
			"level":           draft.Level,
			"duration_mins":   draft.DurationMins,
			"tags":            tagsJSON(draft.Tags),
		}); err != nil {
			return fmt.Errorf("update course: %w", err)
		}
		return cs.syncModules(dbc, existing, draft.Modules)
	})
	if err != nil {
		return nil, err
	}
	return cs.courses.GetWithOutline(dbctx.Context{Ctx: ctx}, cid)
}

func (cs *courseService) syncModules(dbc dbctx.Context, existing *types.Course, drafts []ModuleDraft) error {
	current := map[uuid.UUID]*types.CourseModule{}
	for _, m := range existing.Modules {
		current[m.ID] = m
	}
	keep := map[uuid.UUID]bool{}
	for _, md := range drafts {
		if id, err := uuid.Parse(strings.TrimSpace(md.ID)); err == nil {
			keep[id] = true
		}
	}
	var drop []uuid.UUID
	for id := range current {
		if !keep[id] {
			drop = append(drop, id)
		}
	}
	if len(drop) > 0 {
		if err := cs.lessons.DeleteByModuleIDs(dbc, drop); err != nil {
			return fmt.Errorf("delete lessons: %w", err)
		}
		if err := cs.modules.DeleteByIDs(dbc, drop); err != nil {
			return fmt.Errorf("delete modules: %w", err)
		}
	}

	for i, md := range drafts {
		id, _ := uuid.Parse(strings.TrimSpace(md.ID))
		prior := current[id]
		if prior == nil {
			m, err := buildModule(md, i)
			if err != nil {
				return err
			}
			m.CourseID = existing.ID
			if err := cs.modules.Create(dbc, m); err != nil {
				return fmt.Errorf("create module: %w", err)
			}
			continue
		}
		if err := cs.modules.UpdateFields(dbc, prior.ID, map[string]interface{}{
			"title":       strings.TrimSpace(md.Title),
			"objective":   md.Objective,
			"order_index": orderOr(md.OrderIndex, i),
		}); err != nil {
			return fmt.Errorf("update module: %w", err)
		}
		if err := cs.syncLessons(dbc, prior, md.Lessons); err != nil {
			return err
		}
	}
	return nil
}

func (cs *courseService) syncLessons(dbc dbctx.Context, module *types.CourseModule, drafts []LessonDraft) error {
	current := map[uuid.UUID]bool{}
	for _, l := range module.Lessons {
		current[l.ID] = true
	}
	keep := map[uuid.UUID]bool{}
	for _, ld := range drafts {
		if id, err := uuid.Parse(strings.TrimSpace(ld.ID)); err == nil {
			keep[id] = true
		}
	}
	var drop []uuid.UUID
	for id := range current {
		if !keep[id] {
			drop = append(drop, id)
		}
	}
	if err := cs.lessons.DeleteByIDs(dbc, drop); err != nil {
		return fmt.Errorf("delete lessons: %w", err)
	}

	for i, ld := range drafts {
		id, _ := uuid.Parse(strings.TrimSpace(ld.ID))
		if id != uuid.Nil && current[id] {
			if err := cs.lessons.UpdateFields(dbc, id, map[string]interface{}{
				"title":         strings.TrimSpace(ld.Title),
				"content":       ld.Content,
				"media_url":     ld.MediaURL,
				"duration_mins": ld.DurationMins,
				"order_index":   orderOr(ld.OrderIndex, i),
			}); err != nil {
				return fmt.Errorf("update lesson: %w", err)
			}
			continue
		}
		l := buildLesson(ld, i)
		l.ID = id
		l.ModuleID = module.ID
		if err := cs.lessons.Create(dbc, l); err != nil {
			return fmt.Errorf("create lesson: %w", err)
		}
	}
	return nil
}

func (cs *courseService) Delete(ctx context.Context, id string) error {
	cid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return apierr.NotFound("Course not found")
	}
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.courses.GetByID(dbc, cid)
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		if c == nil {
			return apierr.NotFound("Course not found")
		}
		enrollmentIDs, err := cs.cascade.enrollments.ListIDsByCourseID(dbc, cid)
		if err != nil {
			return fmt.Errorf("list enrollments: %w", err)
		}
		if err := cs.cascade.delete(dbc, enrollmentIDs); err != nil {
			return err
		}
		modules, err := cs.modules.ListByCourseIDs(dbc, []uuid.UUID{cid})
		if err != nil {
			return fmt.Errorf("list modules: %w", err)
		}
		moduleIDs := make([]uuid.UUID, 0, len(modules))
		for _, m := range modules {
			moduleIDs = append(moduleIDs, m.ID)
		}
		if err := cs.lessons.DeleteByModuleIDs(dbc, moduleIDs); err != nil {
			return fmt.Errorf("delete lessons: %w", err)
		}
		if err := cs.modules.DeleteByCourseIDs(dbc, []uuid.UUID{cid}); err != nil {
			return fmt.Errorf("delete modules: %w", err)
		}
		return cs.courses.DeleteByID(dbc, cid)
	})
	if err != nil {
		return err
	}
	cs.log.Info("Course deleted", "course_id", cid.String())
	return nil
}

func buildModule(md ModuleDraft, position int) (*types.CourseModule, error) {
	if strings.TrimSpace(md.Title) == "" {
		return nil, apierr.Validation("Module title is required")
	}
	id, err := parseOptionalID(md.ID)
	if err != nil {
		return nil, err
	}
	m := &types.CourseModule{
		ID:         id,
		Title:      strings.TrimSpace(md.Title),
		Objective:  md.Objective,
		OrderIndex: orderOr(md.OrderIndex, position),
	}
	for i, ld := range md.Lessons {
		lid, err := parseOptionalID(ld.ID)
		if err != nil {
			return nil, err
		}
		l := buildLesson(ld, i)
		l.ID = lid
		m.Lessons = append(m.Lessons, l)
	}
	return m, nil
}

func buildLesson(ld LessonDraft, position int) *types.Lesson {
	return &types.Lesson{
		Title:        strings.TrimSpace(ld.Title),
		Content:      ld.Content,
		MediaURL:     ld.MediaURL,
		DurationMins: ld.DurationMins,
		OrderIndex:   orderOr(ld.OrderIndex, position),
	}
}

// orderOr returns the explicit order index, or the item's position in the draft.
func orderOr(explicit *int, position int) int {
	if explicit != nil {
		return *explicit
	}
	return position
}

func parseOptionalID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierr.Validation("Invalid id: " + raw)
	}
	return id, nil
}

func tagsJSON(tags []string) datatypes.JSON {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	raw, _ := json.Marshal(clean)
	return datatypes.JSON(raw)
}
