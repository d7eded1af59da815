package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ethixlearn/ethixlearn-backend/internal/http/response"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/services"
)

type EnrollmentHandler struct {
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// GET /api/enrollments?userId=
func (eh *EnrollmentHandler) List(c *gin.Context) {
	caller := ctxutil.GetRequestData(c.Request.Context())
	enrollments, err := eh.enrollmentService.List(c.Request.Context(), caller, c.Query("userId"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollments": enrollments})
}

// POST /api/enrollments
// body: { "userId", "courseId" }
func (eh *EnrollmentHandler) Assign(c *gin.Context) {
	var req struct {
		UserID   string `json:"userId"`
		CourseID string `json:"courseId"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	enrollment, _, err := eh.enrollmentService.Assign(c.Request.Context(), req.UserID, req.CourseID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"enrollment": enrollment})
}
