package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Course struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description;type:text" json:"description"`
	Category       string         `gorm:"column:category" json:"category,omitempty"`
	ComplianceArea string         `gorm:"column:compliance_area" json:"complianceArea,omitempty"`
	Level          string         `gorm:"column:level" json:"level,omitempty"`
	Tags           datatypes.JSON `gorm:"column:tags" json:"tags"`
	DurationMins   *int           `gorm:"column:duration_mins" json:"durationMins,omitempty"`

	Modules []*CourseModule `gorm:"foreignKey:CourseID;references:ID;constraint:OnDelete:CASCADE" json:"modules,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Course) TableName() string { return "course" }

type CourseModule struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID   uuid.UUID `gorm:"type:uuid;not null;index" json:"courseId"`
	Title      string    `gorm:"column:title;not null" json:"title"`
	Objective  string    `gorm:"column:objective;type:text" json:"objective,omitempty"`
	OrderIndex int       `gorm:"column:order_index;not null;default:0" json:"orderIndex"`

	Lessons []*Lesson `gorm:"foreignKey:ModuleID;references:ID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (CourseModule) TableName() string { return "course_module" }

type Lesson struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID     uuid.UUID `gorm:"type:uuid;not null;index" json:"moduleId"`
	Title        string    `gorm:"column:title;not null" json:"title"`
	Content      string    `gorm:"column:content;type:text" json:"content"`
	MediaURL     string    `gorm:"column:media_url" json:"mediaUrl,omitempty"`
	DurationMins *int      `gorm:"column:duration_mins" json:"durationMins,omitempty"`
	OrderIndex   int       `gorm:"column:order_index;not null;default:0" json:"orderIndex"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Lesson) TableName() string { return "lesson" }
