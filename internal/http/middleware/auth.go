package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/ethixlearn/ethixlearn-backend/internal/domain"
	"github.com/ethixlearn/ethixlearn-backend/internal/http/response"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
	"github.com/ethixlearn/ethixlearn-backend/internal/services"
)

const msgMissingAuth = "Missing Authorization header"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// RequireAuth rejects the request with 401 unless it carries a valid bearer
// token, then stores the caller in the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			response.RespondErr(c, apierr.Auth(msgMissingAuth))
			return
		}
		if !am.attach(c, tokenString) {
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller when a token is present and lets anonymous
// requests through. A token that is present but invalid is still a 401.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractBearer(c); tokenString != "" && !am.attach(c, tokenString) {
			return
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondErr(c, apierr.Auth(msgMissingAuth))
			return
		}
		if rd.Role != types.RoleAdmin {
			response.RespondErr(c, apierr.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) attach(c *gin.Context, tokenString string) bool {
	rd, err := am.authService.VerifyToken(c.Request.Context(), tokenString)
	if err != nil {
		am.log.Debug("Rejected bearer token", "error", err)
		response.RespondErr(c, err)
		return false
	}
	c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
	return true
}

func extractBearer(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
