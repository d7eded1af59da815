package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Statement is the immutable record of one ingested xAPI statement.
// EnrollmentID is a weak reference and is cleared when the enrollment goes away.
type Statement struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Actor        datatypes.JSON `gorm:"column:actor;not null" json:"actor"`
	Verb         datatypes.JSON `gorm:"column:verb;not null" json:"verb"`
	Object       datatypes.JSON `gorm:"column:object;not null" json:"object"`
	Result       datatypes.JSON `gorm:"column:result" json:"result,omitempty"`
	Context      datatypes.JSON `gorm:"column:context" json:"context,omitempty"`
	Timestamp    time.Time      `gorm:"column:occurred_at;not null;index" json:"timestamp"`
	EnrollmentID *uuid.UUID     `gorm:"type:uuid;index" json:"enrollmentId"`
	CreatedAt    time.Time      `gorm:"not null" json:"createdAt"`
}

func (Statement) TableName() string { return "xapi_statement" }
