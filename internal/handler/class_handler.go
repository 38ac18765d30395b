package handler

import (
	"bytes"
	"net/http"

	"github.com/classroomhq/classroom-backend/internal/export"
	"github.com/classroomhq/classroom-backend/internal/middleware"
	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/response"
	"github.com/classroomhq/classroom-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ClassHandler serves the teacher side of classes.
type ClassHandler struct {
	classService *service.ClassService
	log          zerolog.Logger
}

func NewClassHandler(classService *service.ClassService, log zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		classService: classService,
		log:          log.With().Str("component", "class_handler").Logger(),
	}
}

// Create godoc
// POST /classes
func (h *ClassHandler) Create(c *gin.Context) {
	var req model.CreateClassRequest
	if !bind(c, &req) {
		return
	}

	class, err := h.classService.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, class)
}

// List godoc
// GET /classes
// Teachers get the classes they own, students the ones they joined.
func (h *ClassHandler) List(c *gin.Context) {
	classes, err := h.classService.List(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, classes)
}

// Get godoc
// GET /classes/:id
func (h *ClassHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	class, err := h.classService.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, class)
}

// Update godoc
// PATCH /classes/:id
func (h *ClassHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateClassRequest
	if !bind(c, &req) {
		return
	}

	class, err := h.classService.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, class)
}

// Delete godoc
// DELETE /classes/:id
// Also removes the class's assignments, grades, timetable and enrollments.
func (h *ClassHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.classService.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.NoContent(c)
}

// ListStudents godoc
// GET /classes/:id/students
func (h *ClassHandler) ListStudents(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	students, err := h.classService.ListStudents(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, students)
}

// Gradebook godoc
// GET /classes/:id/gradebook
// Downloads the class gradebook as an XLSX workbook.
func (h *ClassHandler) Gradebook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	gb, err := h.classService.Gradebook(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	// Render fully before writing headers so a failure can still be a JSON error.
	var buf bytes.Buffer
	if err := export.WriteGradebook(&buf, gb); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.GradebookFilename(gb.Class)+`"`)
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
