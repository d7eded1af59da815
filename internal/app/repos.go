package app

import (
	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

type Repos struct {
	User             repos.UserRepo
	Course           repos.CourseRepo
	CourseModule     repos.CourseModuleRepo
	Lesson           repos.LessonRepo
	Enrollment       repos.EnrollmentRepo
	LearningAttempt  repos.LearningAttemptRepo
	ProgressSnapshot repos.ProgressSnapshotRepo
	Statement        repos.StatementRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		Course:           repos.NewCourseRepo(db, log),
		CourseModule:     repos.NewCourseModuleRepo(db, log),
		Lesson:           repos.NewLessonRepo(db, log),
		Enrollment:       repos.NewEnrollmentRepo(db, log),
		LearningAttempt:  repos.NewLearningAttemptRepo(db, log),
		ProgressSnapshot: repos.NewProgressSnapshotRepo(db, log),
		Statement:        repos.NewStatementRepo(db, log),
	}
}
