package aggregates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ethixlearn/ethixlearn-backend/internal/domain/learning"
)

// EnrollmentAggregate owns every write that follows from one learning statement.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeOwnership, CodeConflict, CodeTransient, CodeInternal.
type EnrollmentAggregate interface {
	// Reconcile merges one statement's progress signals into the learner's
	// enrollment and appends the statement, atomically.
	Reconcile(ctx context.Context, in ReconcileEnrollmentInput) (ReconcileEnrollmentResult, error)

	// Assign finds or creates the (user, course) enrollment without touching progress.
	Assign(ctx context.Context, in AssignEnrollmentInput) (AssignEnrollmentResult, error)
}

type ReconcileEnrollmentInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	// EnrollmentID, when set, must exist and belong to UserID.
	EnrollmentID *uuid.UUID

	// Progress is clamped to [0,1].
	Progress Optional[float64]
	// Score is stored as given.
	Score     Optional[float64]
	Completed bool
	// TimeSpentMins is rounded; values that round to <= 0 add nothing.
	TimeSpentMins Optional[float64]
	// AttemptNo is floored; values < 1 are ignored.
	AttemptNo Optional[float64]

	Statement *RecordStatementInput
}

type RecordStatementInput struct {
	Actor   json.RawMessage
	Verb    json.RawMessage
	Object  json.RawMessage
	Result  json.RawMessage
	Context json.RawMessage
	// Timestamp defaults to the server clock when nil.
	Timestamp *time.Time
}

type ReconcileEnrollmentResult struct {
	Enrollment        *learning.Enrollment
	EnrollmentCreated bool
	Attempt           *learning.LearningAttempt
	Snapshot          *learning.ProgressSnapshot
	Statement         *learning.Statement
	AppliedAt         time.Time
}

type AssignEnrollmentInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
}

type AssignEnrollmentResult struct {
	Enrollment *learning.Enrollment
	Created    bool
}
