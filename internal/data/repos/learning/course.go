package learning

import (
	"time"

	"github.com/google/uuid"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type CourseRepo interface {
	// Create inserts the course together with any nested modules and lessons.
	Create(dbc dbctx.Context, c *types.Course) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error)
	// ListWithOutline returns all courses, newest first, with ordered modules and lessons.
	ListWithOutline(dbc dbctx.Context) ([]*types.Course, error)
	GetWithOutline(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *courseRepo) Create(dbc dbctx.Context, c *types.Course) error {
	if c == nil {
		return nil
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	for _, m := range c.Modules {
		if m == nil {
			continue
		}
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.CourseID = c.ID
		for _, l := range m.Lessons {
			if l == nil {
				continue
			}
			if l.ID == uuid.Nil {
				l.ID = uuid.New()
			}
			l.ModuleID = m.ID
		}
	}
	return r.tx(dbc).Create(c).Error
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Course
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *courseRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error) {
	out := []*types.Course{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.tx(dbc).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func withOutline(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") }).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC") })
}

func (r *courseRepo) ListWithOutline(dbc dbctx.Context) ([]*types.Course, error) {
	out := []*types.Course{}
	if err := withOutline(r.tx(dbc)).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) GetWithOutline(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Course
	if err := withOutline(r.tx(dbc)).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *courseRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.tx(dbc).Model(&types.Course{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.tx(dbc).Where("id = ?", id).Delete(&types.Course{}).Error
}
