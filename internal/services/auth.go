package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/repos"
	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/dbctx"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

const (
	msgCredentialsRequired = "Email and password are required"
	msgEmailTaken          = "Email already registered"
	msgInvalidCredentials  = "Invalid credentials"
)

type AuthService interface {
	// Register creates a learner account. While no admin exists the new
	// account is promoted to ADMIN.
	Register(ctx context.Context, in RegisterInput) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	// VerifyToken checks a bearer token and returns the caller it identifies.
	VerifyToken(ctx context.Context, tokenString string) (*ctxutil.RequestData, error)
	Me(ctx context.Context) (*types.User, error)
	// EnsureAdmin creates an admin account, or promotes the existing account
	// with that email.
	EnsureAdmin(ctx context.Context, in RegisterInput) (*types.User, error)
	GetAccessTTL() time.Duration
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type AuthConfig struct {
	JWTSecretKey string
	AccessTTL    time.Duration
	BcryptCost   int
}

type JWTClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	userRepo  repos.UserRepo
	secret    []byte
	accessTTL time.Duration
	cost      int
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, cfg AuthConfig) AuthService {
	serviceLog := log.With("service", "AuthService")
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 7 * 24 * time.Hour
	}
	return &authService{
		db:        db,
		log:       serviceLog,
		userRepo:  userRepo,
		secret:    []byte(cfg.JWTSecretKey),
		accessTTL: cfg.AccessTTL,
		cost:      normalizeBcryptCost(cfg.BcryptCost),
	}
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, string, error) {
	email := types.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, "", apierr.Validation(msgCredentialsRequired)
	}
	hash, err := hashPassword(in.Password, as.cost)
	if err != nil {
		return nil, "", err
	}

	var created *types.User
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict(msgEmailTaken)
		}
		admins, err := as.userRepo.CountByRole(dbc, types.RoleAdmin)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		role := types.RoleLearner
		if admins == 0 {
			role = types.RoleAdmin
		}
		u := &types.User{
			Email:    email,
			Password: hash,
			Name:     strings.TrimSpace(in.Name),
			Role:     role,
		}
		if err := as.userRepo.Create(dbc, u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if created.Role == types.RoleAdmin {
		as.log.Info("Bootstrap admin registered", "user_id", created.ID.String())
	}

	token, err := as.generateAccessToken(created)
	if err != nil {
		// The account exists; the client can log in once signing is configured.
		as.log.Error("Failed to sign access token", "error", err)
		return created, "", nil
	}
	return created, token, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	email = types.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", apierr.Validation(msgCredentialsRequired)
	}
	u, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, "", apierr.Auth(msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, "", apierr.Auth(msgInvalidCredentials)
	}
	token, err := as.generateAccessToken(u)
	if err != nil {
		as.log.Error("Failed to sign access token", "error", err)
		return u, "", nil
	}
	return u, token, nil
}

func (as *authService) VerifyToken(ctx context.Context, tokenString string) (*ctxutil.RequestData, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, apierr.Auth("Missing Authorization header")
	}
	if len(as.secret) == 0 {
		return nil, apierr.Auth("JWT secret is not configured")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierr.Auth("Token expired")
		}
		return nil, apierr.Auth("Invalid token")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, apierr.Auth("Invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apierr.Auth("Invalid token subject")
	}

	// The stored role wins over the claim so demotions apply immediately.
	u, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load token subject: %w", err)
	}
	if u == nil {
		return nil, apierr.Auth("User not found")
	}
	return &ctxutil.RequestData{UserID: u.ID, Role: u.Role}, nil
}

func (as *authService) Me(ctx context.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Auth("Missing Authorization header")
	}
	u, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.Auth("User not found")
	}
	return u, nil
}

func (as *authService) EnsureAdmin(ctx context.Context, in RegisterInput) (*types.User, error) {
	email := types.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apierr.Validation(msgCredentialsRequired)
	}
	hash, err := hashPassword(in.Password, as.cost)
	if err != nil {
		return nil, err
	}
	var out *types.User
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userRepo.GetByEmail(dbc, email)
		if err != nil {
			return err
		}
		if existing != nil {
			updates := map[string]interface{}{"role": types.RoleAdmin, "password": hash}
			if name := strings.TrimSpace(in.Name); name != "" {
				updates["name"] = name
			}
			if err := as.userRepo.UpdateFields(dbc, existing.ID, updates); err != nil {
				return err
			}
			out, err = as.userRepo.GetByID(dbc, existing.ID)
			return err
		}
		u := &types.User{Email: email, Password: hash, Name: strings.TrimSpace(in.Name), Role: types.RoleAdmin}
		if err := as.userRepo.Create(dbc, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("Admin account ensured", "user_id", out.ID.String())
	return out, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) generateAccessToken(u *types.User) (string, error) {
	if len(as.secret) == 0 {
		return "", errors.New("JWT secret is not configured")
	}
	now := time.Now()
	claims := JWTClaims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.secret)
}

func normalizeBcryptCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}
