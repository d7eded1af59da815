package learning

import (
	"time"

	"github.com/google/uuid"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type LessonRepo interface {
	Create(dbc dbctx.Context, l *types.Lesson) error
	ListByModuleIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) ([]*types.Lesson, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByModuleIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) ListByModuleIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) ([]*types.Lesson, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Lesson{}
	if len(moduleIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("module_id IN ?", moduleIDs).
		Order("module_id, order_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lessonRepo) DeleteByModuleIDs(dbc dbctx.Context, moduleIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(moduleIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("module_id IN ?", moduleIDs).Delete(&types.Lesson{}).Error
}

func (r *lessonRepo) Create(dbc dbctx.Context, l *types.Lesson) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if l == nil {
		return nil
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(l).Error
}

func (r *lessonRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
	return t.WithContext(dbc.Ctx).Model(&types.Lesson{}).Where("id = ?", id).Updates(updates).Error
}

func (r *lessonRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Lesson{}).Error
}
