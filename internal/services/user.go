package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Name     *string
	Role     *string
	Password *string
}

// UserService is the admin-facing account management surface.
type UserService interface {
	List(ctx context.Context) ([]*types.User, error)
	Create(ctx context.Context, in CreateUserInput) (*types.User, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*types.User, error)
	// Delete removes the account and its enrollments. Admins cannot delete
	// themselves.
	Delete(ctx context.Context, caller *ctxutil.RequestData, id string) error
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	cascade  enrollmentCascade
	cost     int
}

type UserServiceDeps struct {
	Users       repos.UserRepo
	Enrollments repos.EnrollmentRepo
	Attempts    repos.LearningAttemptRepo
	Snapshots   repos.ProgressSnapshotRepo
	Statements  repos.StatementRepo
	BcryptCost  int
}

func NewUserService(db *gorm.DB, log *logger.Logger, deps UserServiceDeps) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:       db,
		log:      serviceLog,
		userRepo: deps.Users,
		cascade: enrollmentCascade{
			enrollments: deps.Enrollments,
			attempts:    deps.Attempts,
			snapshots:   deps.Snapshots,
			statements:  deps.Statements,
		},
		cost: normalizeBcryptCost(deps.BcryptCost),
	}
}

func (us *userService) List(ctx context.Context) ([]*types.User, error) {
	users, err := us.userRepo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (us *userService) Create(ctx context.Context, in CreateUserInput) (*types.User, error) {
	email := types.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apierr.Validation(msgCredentialsRequired)
	}
	dbc := dbctx.Context{Ctx: ctx}
	exists, err := us.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apierr.Conflict(msgEmailTaken)
	}
	hash, err := hashPassword(in.Password, us.cost)
	if err != nil {
		return nil, err
	}
	u := &types.User{
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(in.Name),
		Role:     types.NormalizeRole(in.Role),
	}
	if err := us.userRepo.Create(dbc, u); err != nil {
		if isUniqueViolation(err) {
			return nil, apierr.Conflict(msgEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (us *userService) Update(ctx context.Context, id string, in UpdateUserInput) (*types.User, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apierr.NotFound("User not found")
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := us.userRepo.GetByID(dbc, uid)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if existing == nil {
		return nil, apierr.NotFound("User not found")
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil && strings.TrimSpace(*in.Role) != "" {
		updates["role"] = types.NormalizeRole(*in.Role)
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := hashPassword(*in.Password, us.cost)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}
	if len(updates) == 0 {
		return existing, nil
	}
	if err := us.userRepo.UpdateFields(dbc, uid, updates); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return us.userRepo.GetByID(dbc, uid)
}

func (us *userService) Delete(ctx context.Context, caller *ctxutil.RequestData, id string) error {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return apierr.NotFound("User not found")
	}
	if caller != nil && caller.UserID == uid {
		return apierr.Validation("Admins cannot delete themselves")
	}
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := us.userRepo.GetByID(dbc, uid)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			return apierr.NotFound("User not found")
		}
		ids, err := us.cascade.enrollments.ListIDsByUserID(dbc, uid)
		if err != nil {
			return fmt.Errorf("list enrollments: %w", err)
		}
		if err := us.cascade.delete(dbc, ids); err != nil {
			return err
		}
		return us.userRepo.Delete(dbc, uid)
	})
	if err != nil {
		return err
	}
	us.log.Info("User deleted", "user_id", uid.String())
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint failed")
}
