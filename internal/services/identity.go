package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/domain/xapi"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

const (
	msgCrossSubject      = "Not authorized to write statements for other users"
	msgUnresolvedLearner = "Unable to determine learner for statement"
	msgCourseRequired    = "Course id is required"
	msgInvalidCourseID   = "Invalid course id"
)

// IdentityResolver decides whose enrollment a statement applies to and for
// which course.
type IdentityResolver interface {
	// ResolveSubject returns the learner a statement is recorded for. caller is
	// nil when ingestion runs without authentication.
	ResolveSubject(ctx context.Context, caller *ctxutil.RequestData, targetUserID string, stmt *xapi.Statement) (uuid.UUID, error)
	// ResolveCourse prefers the explicit id and falls back to the trailing
	// segment of context.course.id.
	ResolveCourse(explicitCourseID string, stmt *xapi.Statement) (uuid.UUID, error)
}

type identityResolver struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewIdentityResolver(log *logger.Logger, userRepo repos.UserRepo) IdentityResolver {
	return &identityResolver{log: log.With("service", "IdentityResolver"), userRepo: userRepo}
}

func (r *identityResolver) ResolveSubject(ctx context.Context, caller *ctxutil.RequestData, targetUserID string, stmt *xapi.Statement) (uuid.UUID, error) {
	targetUserID = strings.TrimSpace(targetUserID)

	if caller != nil && caller.UserID != uuid.Nil {
		if targetUserID == "" {
			return caller.UserID, nil
		}
		target, err := uuid.Parse(targetUserID)
		if err != nil {
			if caller.Role != types.RoleAdmin {
				return uuid.Nil, apierr.Forbidden(msgCrossSubject)
			}
			return uuid.Nil, apierr.Resolution(msgUnresolvedLearner)
		}
		if target == caller.UserID {
			return target, nil
		}
		if caller.Role != types.RoleAdmin {
			r.log.Warn("Cross-subject statement rejected", "user_id", caller.UserID.String(), "subject_id", target.String())
			return uuid.Nil, apierr.Forbidden(msgCrossSubject)
		}
		return r.existingUser(ctx, target)
	}

	if targetUserID != "" {
		target, err := uuid.Parse(targetUserID)
		if err != nil {
			return uuid.Nil, apierr.Resolution(msgUnresolvedLearner)
		}
		return r.existingUser(ctx, target)
	}

	email := types.NormalizeEmail(stmt.ActorEmail())
	if email == "" {
		return uuid.Nil, apierr.Resolution(msgUnresolvedLearner)
	}
	u, err := r.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve learner by mailbox: %w", err)
	}
	if u == nil {
		return uuid.Nil, apierr.Resolution(msgUnresolvedLearner)
	}
	return u.ID, nil
}

func (r *identityResolver) existingUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	u, err := r.userRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load learner: %w", err)
	}
	if u == nil {
		return uuid.Nil, apierr.Resolution(msgUnresolvedLearner)
	}
	return u.ID, nil
}

func (r *identityResolver) ResolveCourse(explicitCourseID string, stmt *xapi.Statement) (uuid.UUID, error) {
	raw := strings.TrimSpace(explicitCourseID)
	if raw == "" {
		raw = stmt.ContextCourseID()
	}
	if raw == "" {
		return uuid.Nil, apierr.Resolution(msgCourseRequired)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierr.Resolution(msgInvalidCourseID)
	}
	return id, nil
}
