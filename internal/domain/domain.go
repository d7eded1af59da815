package domain

import (
	"github.com/ethixlearn/ethixlearn-backend/internal/domain/learning"
	"github.com/ethixlearn/ethixlearn-backend/internal/domain/user"
)

const (
	RoleAdmin   = user.RoleAdmin
	RoleLearner = user.RoleLearner
)

type User = user.User

var (
	NormalizeEmail = user.NormalizeEmail
	NormalizeRole  = user.NormalizeRole
)

type Course = learning.Course
type CourseModule = learning.CourseModule
type Lesson = learning.Lesson

type Enrollment = learning.Enrollment
type EnrollmentPatch = learning.EnrollmentPatch
type LearningAttempt = learning.LearningAttempt
type ProgressSnapshot = learning.ProgressSnapshot
type Statement = learning.Statement

// Models lists every persisted model in dependency order for migrations.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&CourseModule{},
		&Lesson{},
		&Enrollment{},
		&LearningAttempt{},
		&ProgressSnapshot{},
		&Statement{},
	}
}
