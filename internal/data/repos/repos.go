package repos

import (
	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos/learning"
	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos/user"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type CourseRepo = learning.CourseRepo
type CourseModuleRepo = learning.CourseModuleRepo
type LessonRepo = learning.LessonRepo

type EnrollmentRepo = learning.EnrollmentRepo
type LearningAttemptRepo = learning.LearningAttemptRepo
type ProgressSnapshotRepo = learning.ProgressSnapshotRepo
type StatementRepo = learning.StatementRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}
func NewCourseModuleRepo(db *gorm.DB, baseLog *logger.Logger) CourseModuleRepo {
	return learning.NewCourseModuleRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}
func NewLearningAttemptRepo(db *gorm.DB, baseLog *logger.Logger) LearningAttemptRepo {
	return learning.NewLearningAttemptRepo(db, baseLog)
}
func NewProgressSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) ProgressSnapshotRepo {
	return learning.NewProgressSnapshotRepo(db, baseLog)
}
func NewStatementRepo(db *gorm.DB, baseLog *logger.Logger) StatementRepo {
	return learning.NewStatementRepo(db, baseLog)
}
