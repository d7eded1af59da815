package learning

import (
	"time"

	"github.com/google/uuid"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// StatementRepo is append-only: there is no update path for stored statements.
type StatementRepo interface {
	Create(dbc dbctx.Context, s *types.Statement) error
	ListRecentByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID, limit int) ([]*types.Statement, error)
	CountByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) (int64, error)
	// DetachEnrollments clears the back-reference so the log outlives the enrollment.
	DetachEnrollments(dbc dbctx.Context, enrollmentIDs []uuid.UUID) error
}

type statementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatementRepo(db *gorm.DB, baseLog *logger.Logger) StatementRepo {
	return &statementRepo{db: db, log: baseLog.With("repo", "StatementRepo")}
}

func (r *statementRepo) tx(dbc dbctx.Context) *gorm.DB {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx)
}

func (r *statementRepo) Create(dbc dbctx.Context, s *types.Statement) error {
	if s == nil {
		return nil
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return r.tx(dbc).Create(s).Error
}

func (r *statementRepo) ListRecentByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID, limit int) ([]*types.Statement, error) {
	out := []*types.Statement{}
	if enrollmentID == uuid.Nil {
		return out, nil
	}
	q := r.tx(dbc).Where("enrollment_id = ?", enrollmentID).Order("occurred_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *statementRepo) CountByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.tx(dbc).Model(&types.Statement{}).Where("enrollment_id = ?", enrollmentID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *statementRepo) DetachEnrollments(dbc dbctx.Context, enrollmentIDs []uuid.UUID) error {
	if len(enrollmentIDs) == 0 {
		return nil
	}
	return r.tx(dbc).
		Model(&types.Statement{}).
		Where("enrollment_id IN ?", enrollmentIDs).
		Update("enrollment_id", nil).Error
}
