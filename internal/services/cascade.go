package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
)

// enrollmentCascade removes enrollments with their attempts and snapshots.
// Statements are kept and lose their back-reference.
type enrollmentCascade struct {
	enrollments repos.EnrollmentRepo
	attempts    repos.LearningAttemptRepo
	snapshots   repos.ProgressSnapshotRepo
	statements  repos.StatementRepo
}

func (c enrollmentCascade) delete(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.attempts.DeleteByEnrollmentIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	if err := c.snapshots.DeleteByEnrollmentIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	if err := c.statements.DetachEnrollments(dbc, ids); err != nil {
		return fmt.Errorf("detach statements: %w", err)
	}
	if err := c.enrollments.DeleteByIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete enrollments: %w", err)
	}
	return nil
}
