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

type LearningAttemptRepo interface {
	GetByEnrollmentAndNo(dbc dbctx.Context, enrollmentID uuid.UUID, attemptNo int) (*types.LearningAttempt, error)
	// FindOrCreate inserts seed unless (enrollment_id, attempt_no) already exists,
	// and returns the stored row plus whether seed was the one inserted.
	FindOrCreate(dbc dbctx.Context, seed *types.LearningAttempt) (*types.LearningAttempt, bool, error)
	Accumulate(dbc dbctx.Context, id uuid.UUID, score *float64, addMinutes int) error
	// MarkCompleted sets completed_at only while it is still null.
	MarkCompleted(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error)
	ListByEnrollmentIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) ([]*types.LearningAttempt, error)
	DeleteByEnrollmentIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) error
}

type learningAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningAttemptRepo(db *gorm.DB, baseLog *logger.Logger) LearningAttemptRepo {
	return &learningAttemptRepo{db: db, log: baseLog.With("repo", "LearningAttemptRepo")}
}

func (r *learningAttemptRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *learningAttemptRepo) GetByEnrollmentAndNo(dbc dbctx.Context, enrollmentID uuid.UUID, attemptNo int) (*types.LearningAttempt, error) {
	if enrollmentID == uuid.Nil {
		return nil, nil
	}
	var row types.LearningAttempt
	if err := r.tx(dbc).
		Where("enrollment_id = ? AND attempt_no = ?", enrollmentID, attemptNo).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *learningAttemptRepo) FindOrCreate(dbc dbctx.Context, seed *types.LearningAttempt) (*types.LearningAttempt, bool, error) {
	if seed == nil || seed.EnrollmentID == uuid.Nil {
		return nil, false, gorm.ErrMissingWhereClause
	}
	if seed.ID == uuid.Nil {
		seed.ID = uuid.New()
	}
	res := r.tx(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "attempt_no"}},
			DoNothing: true,
		}).
		Create(seed)
	if res.Error != nil {
		return nil, false, res.Error
	}
	got, err := r.GetByEnrollmentAndNo(dbc, seed.EnrollmentID, seed.AttemptNo)
	if err != nil {
		return nil, false, err
	}
	if got == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return got, res.RowsAffected > 0, nil
}

func (r *learningAttemptRepo) Accumulate(dbc dbctx.Context, id uuid.UUID, score *float64, addMinutes int) error {
	if id == uuid.Nil || (score == nil && addMinutes <= 0) {
		return nil
	}
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if score != nil {
		updates["score"] = *score
	}
	if addMinutes > 0 {
		updates["time_spent_mins"] = gorm.Expr("time_spent_mins + ?", addMinutes)
	}
	return r.tx(dbc).Model(&types.LearningAttempt{}).Where("id = ?", id).Updates(updates).Error
}

func (r *learningAttemptRepo) MarkCompleted(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	res := r.tx(dbc).
		Model(&types.LearningAttempt{}).
		Where("id = ? AND completed_at IS NULL", id).
		Updates(map[string]interface{}{
			"completed_at": at.UTC(),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *learningAttemptRepo) ListByEnrollmentIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) ([]*types.LearningAttempt, error) {
	out := []*types.LearningAttempt{}
	if len(enrollmentIDs) == 0 {
		return out, nil
	}
	if err := r.tx(dbc).
		Where("enrollment_id IN ?", enrollmentIDs).
		Order("enrollment_id, attempt_no ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningAttemptRepo) DeleteByEnrollmentIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) error {
	if len(enrollmentIDs) == 0 {
		return nil
	}
	return r.tx(dbc).Where("enrollment_id IN ?", enrollmentIDs).Delete(&types.LearningAttempt{}).Error
}
