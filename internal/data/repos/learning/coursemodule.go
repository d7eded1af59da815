package learning

import (
	"time"

	"github.com/google/uuid"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type CourseModuleRepo interface {
	// Create inserts the module and any nested lessons.
	Create(dbc dbctx.Context, m *types.CourseModule) error
	ListByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.CourseModule, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type courseModuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseModuleRepo(db *gorm.DB, baseLog *logger.Logger) CourseModuleRepo {
	return &courseModuleRepo{db: db, log: baseLog.With("repo", "CourseModuleRepo")}
}

func (r *courseModuleRepo) ListByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.CourseModule, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.CourseModule{}
	if len(courseIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("course_id IN ?", courseIDs).
		Order("course_id, order_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseModuleRepo) DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(courseIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("course_id IN ?", courseIDs).Delete(&types.CourseModule{}).Error
}

func (r *courseModuleRepo) Create(dbc dbctx.Context, m *types.CourseModule) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if m == nil {
		return nil
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	for _, l := range m.Lessons {
		if l == nil {
			continue
		}
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.ModuleID = m.ID
	}
	return t.WithContext(dbc.Ctx).Create(m).Error
}

func (r *courseModuleRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Model(&types.CourseModule{}).Where("id = ?", id).Updates(updates).Error
}

func (r *courseModuleRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.CourseModule{}).Error
}
