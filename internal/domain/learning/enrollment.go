package learning

import (
	"time"

	"github.com/google/uuid"
	"github.com/ethixlearn/ethixlearn-backend/internal/domain/user"
)

// Enrollment is the running record of one learner in one course.
// (user_id, course_id) is unique; progress stays within [0,1], completed
// never reverts and total_time_minutes never decreases.
type Enrollment struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:1" json:"userId"`
	User     *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:2;index" json:"courseId"`
	Course   *Course    `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`

	Progress         float64  `gorm:"column:progress;not null;default:0" json:"progress"`
	Score            *float64 `gorm:"column:score" json:"score"`
	Completed        bool     `gorm:"column:completed;not null;default:false" json:"completed"`
	TotalTimeMinutes int      `gorm:"column:total_time_minutes;not null;default:0" json:"totalTimeMinutes"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Enrollment) TableName() string { return "enrollment" }

// EnrollmentPatch is the set of field changes a single statement may apply.
// Nil pointers and zero AddMinutes leave the stored value untouched.
type EnrollmentPatch struct {
	Progress      *float64
	Score         *float64
	MarkCompleted bool
	AddMinutes    int
}

func (p EnrollmentPatch) Empty() bool {
	return p.Progress == nil && p.Score == nil && !p.MarkCompleted && p.AddMinutes <= 0
}

// LearningAttempt is keyed by (enrollment_id, attempt_no). completed_at is write-once.
type LearningAttempt struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_enrollment_no,priority:1" json:"enrollmentId"`
	AttemptNo     int        `gorm:"column:attempt_no;not null;uniqueIndex:idx_attempt_enrollment_no,priority:2" json:"attemptNo"`
	Score         *float64   `gorm:"column:score" json:"score"`
	TimeSpentMins int        `gorm:"column:time_spent_mins;not null;default:0" json:"timeSpentMins"`
	CompletedAt   *time.Time `gorm:"column:completed_at" json:"completedAt"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (LearningAttempt) TableName() string { return "learning_attempt" }

// ProgressSnapshot is one append-only point on an enrollment's progress timeline.
type ProgressSnapshot struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"enrollmentId"`
	RecordedAt    time.Time `gorm:"column:recorded_at;not null;index" json:"recordedAt"`
	Progress      float64   `gorm:"column:progress;not null;default:0" json:"progress"`
	Score         *float64  `gorm:"column:score" json:"score"`
	TimeSpentMins int       `gorm:"column:time_spent_mins;not null;default:0" json:"timeSpentMins"`
}

func (ProgressSnapshot) TableName() string { return "progress_snapshot" }
