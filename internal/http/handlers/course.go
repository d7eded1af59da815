package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ethixlearn/ethixlearn-backend/internal/http/response"
	"github.com/ethixlearn/ethixlearn-backend/internal/services"
)

type CourseHandler struct {
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// GET /api/courses
func (ch *CourseHandler) List(c *gin.Context) {
	courses, err := ch.courseService.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (ch *CourseHandler) Get(c *gin.Context) {
	course, err := ch.courseService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// POST /api/courses
func (ch *CourseHandler) Create(c *gin.Context) {
	var draft services.CourseDraft
	if err := bindJSON(c, &draft); err != nil {
		response.RespondErr(c, err)
		return
	}
	course, err := ch.courseService.Create(c.Request.Context(), draft)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	courses, err := ch.courseService.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"course": course, "courses": courses})
}

// PUT /api/courses
// The draft carries the course id; modules and lessons are synced to it.
func (ch *CourseHandler) Update(c *gin.Context) {
	var draft services.CourseDraft
	if err := bindJSON(c, &draft); err != nil {
		response.RespondErr(c, err)
		return
	}
	course, err := ch.courseService.Update(c.Request.Context(), draft)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	courses, err := ch.courseService.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course, "courses": courses})
}

// DELETE /api/courses/:id
func (ch *CourseHandler) Delete(c *gin.Context) {
	if err := ch.courseService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Course deleted"})
}
