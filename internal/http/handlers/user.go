package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ethixlearn/ethixlearn-backend/internal/http/response"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/users
func (uh *UserHandler) List(c *gin.Context) {
	users, err := uh.userService.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"users": users})
}

// POST /api/users
// body: { "email", "password", "name", "role" }
func (uh *UserHandler) Create(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role" binding:"omitempty,oneof=ADMIN LEARNER"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	u, err := uh.userService.Create(c.Request.Context(), services.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": u})
}

// PUT /api/users/:id
// body: any of { "name", "role", "password" }
func (uh *UserHandler) Update(c *gin.Context) {
	var req struct {
		Name     *string `json:"name"`
		Role     *string `json:"role" binding:"omitempty,oneof=ADMIN LEARNER"`
		Password *string `json:"password"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	u, err := uh.userService.Update(c.Request.Context(), c.Param("id"), services.UpdateUserInput{
		Name:     req.Name,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// DELETE /api/users/:id
func (uh *UserHandler) Delete(c *gin.Context) {
	caller := ctxutil.GetRequestData(c.Request.Context())
	if err := uh.userService.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "User deleted"})
}
