package learning

import (
	"time"

	"github.com/google/uuid"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ProgressSnapshotRepo interface {
	Create(dbc dbctx.Context, s *types.ProgressSnapshot) error
	// ListByEnrollmentIDs returns snapshots oldest first.
	ListByEnrollmentIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) ([]*types.ProgressSnapshot, error)
	DeleteByEnrollmentIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) error
}

type progressSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) ProgressSnapshotRepo {
	return &progressSnapshotRepo{db: db, log: baseLog.With("repo", "ProgressSnapshotRepo")}
}

func (r *progressSnapshotRepo) Create(dbc dbctx.Context, s *types.ProgressSnapshot) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if s == nil {
		return nil
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.RecordedAt.IsZero() {
		s.RecordedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Create(s).Error
}

func (r *progressSnapshotRepo) ListByEnrollmentIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) ([]*types.ProgressSnapshot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.ProgressSnapshot{}
	if len(enrollmentIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("enrollment_id IN ?", enrollmentIDs).
		Order("recorded_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *progressSnapshotRepo) DeleteByEnrollmentIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(enrollmentIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("enrollment_id IN ?", enrollmentIDs).Delete(&types.ProgressSnapshot{}).Error
}
