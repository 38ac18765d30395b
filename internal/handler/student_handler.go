package handler

import (
	"net/http"

	"github.com/classroomhq/classroom-backend/internal/middleware"
	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/response"
	"github.com/classroomhq/classroom-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// StudentHandler serves the student portal under /students.
type StudentHandler struct {
	enrollmentService *service.EnrollmentService
	log               zerolog.Logger
}

func NewStudentHandler(enrollmentService *service.EnrollmentService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		enrollmentService: enrollmentService,
		log:               log.With().Str("component", "student_handler").Logger(),
	}
}

// JoinClass godoc
// POST /students/classes/join
func (h *StudentHandler) JoinClass(c *gin.Context) {
	var req model.JoinClassRequest
	if !bind(c, &req) {
		return
	}
	class, err := h.enrollmentService.Join(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, class)
}

// ListClasses godoc
// GET /students/classes
func (h *StudentHandler) ListClasses(c *gin.Context) {
	classes, err := h.enrollmentService.ListClasses(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, classes)
}

// LeaveClass godoc
// DELETE /students/classes/:id
func (h *StudentHandler) LeaveClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.enrollmentService.Leave(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.NoContent(c)
}

// ListAssignments godoc
// GET /students/assignments
func (h *StudentHandler) ListAssignments(c *gin.Context) {
	out, err := h.enrollmentService.ListAssignments(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// ListTimetable godoc
// GET /students/timetable
func (h *StudentHandler) ListTimetable(c *gin.Context) {
	out, err := h.enrollmentService.ListTimetable(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// ListGrades godoc
// GET /students/grades
func (h *StudentHandler) ListGrades(c *gin.Context) {
	out, err := h.enrollmentService.ListGrades(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}
