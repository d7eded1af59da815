package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UniqueEmail keeps fixtures from colliding on the shared Postgres database.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s+%s@example.com", prefix, uuid.NewString()[:8])
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	return SeedUserWithRole(tb, ctx, tx, email, types.RoleLearner)
}

func SeedUserWithRole(tb testing.TB, ctx context.Context, tx *gorm.DB, email, role string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Test Learner",
		Role:     role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedCourse creates a course with one module holding two lessons.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Course {
	tb.Helper()
	courseID := uuid.New()
	moduleID := uuid.New()
	c := &types.Course{
		ID:             courseID,
		Title:          title,
		Description:    "desc",
		ComplianceArea: "Anti-bribery",
		Tags:           datatypes.JSON([]byte(`["ethics"]`)),
		Modules: []*types.CourseModule{
			{
				ID:         moduleID,
				CourseID:   courseID,
				Title:      "Module 1",
				OrderIndex: 0,
				Lessons: []*types.Lesson{
					{ID: uuid.New(), ModuleID: moduleID, Title: "Lesson 2", Content: "b", OrderIndex: 1},
					{ID: uuid.New(), ModuleID: moduleID, Title: "Lesson 1", Content: "a", OrderIndex: 0},
				},
			},
		},
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func PtrFloat(v float64) *float64 { return &v }
