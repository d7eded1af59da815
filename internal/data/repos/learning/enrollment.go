package learning

import (
	"time"

	"github.com/google/uuid"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error)
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error)
	// FindOrCreate is safe under concurrent callers for the same pair: the
	// insert is a no-op on conflict and the winning row is read back.
	FindOrCreate(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, bool, error)
	ApplyPatch(dbc dbctx.Context, id uuid.UUID, patch types.EnrollmentPatch) error
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error)
	ListWithRefs(dbc dbctx.Context) ([]*types.Enrollment, error)
	ListIDsByUserID(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListIDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *enrollmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Enrollment
	if err := r.tx(dbc).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *enrollmentRepo) GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var row types.Enrollment
	if err := r.tx(dbc).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *enrollmentRepo) FindOrCreate(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.Enrollment, bool, error) {
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, false, gorm.ErrMissingWhereClause
	}
	now := time.Now().UTC()
	row := &types.Enrollment{
		ID:        uuid.New(),
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := r.tx(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0

	got, err := r.GetByUserAndCourse(dbc, userID, courseID)
	if err != nil {
		return nil, false, err
	}
	if got == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return got, created, nil
}

func (r *enrollmentRepo) ApplyPatch(dbc dbctx.Context, id uuid.UUID, patch types.EnrollmentPatch) error {
	if id == uuid.Nil || patch.Empty() {
		return nil
	}
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if patch.Progress != nil {
		updates["progress"] = *patch.Progress
	}
	if patch.Score != nil {
		updates["score"] = *patch.Score
	}
	if patch.MarkCompleted {
		updates["completed"] = true
	}
	if patch.AddMinutes > 0 {
		updates["total_time_minutes"] = gorm.Expr("total_time_minutes + ?", patch.AddMinutes)
	}
	res := r.tx(dbc).Model(&types.Enrollment{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error) {
	out := []*types.Enrollment{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.tx(dbc).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) ListWithRefs(dbc dbctx.Context) ([]*types.Enrollment, error) {
	out := []*types.Enrollment{}
	if err := r.tx(dbc).
		Preload("User").
		Preload("Course").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) ListIDsByUserID(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.pluckIDs(dbc, "user_id", userID)
}

func (r *enrollmentRepo) ListIDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	return r.pluckIDs(dbc, "course_id", courseID)
}

func (r *enrollmentRepo) pluckIDs(dbc dbctx.Context, column string, id uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if id == uuid.Nil {
		return out, nil
	}
	if err := r.tx(dbc).
		Model(&types.Enrollment{}).
		Where(column+" = ?", id).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.tx(dbc).Where("id IN ?", ids).Delete(&types.Enrollment{}).Error
}
