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

type GradeHandler struct {
	gradeService *service.GradeService
	log          zerolog.Logger
}

func NewGradeHandler(gradeService *service.GradeService, log zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		gradeService: gradeService,
		log:          log.With().Str("component", "grade_handler").Logger(),
	}
}

// Create godoc
// POST /grades
func (h *GradeHandler) Create(c *gin.Context) {
	var req model.CreateGradeRequest
	if !bind(c, &req) {
		return
	}
	g, err := h.gradeService.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, g)
}

// List godoc
// GET /grades?assignment_id=&student_id=
func (h *GradeHandler) List(c *gin.Context) {
	var f model.GradeFilter
	var ok bool
	if f.AssignmentID, ok = queryID(c, "assignment_id"); !ok {
		return
	}
	if f.StudentID, ok = queryID(c, "student_id"); !ok {
		return
	}
	out, err := h.gradeService.List(c.Request.Context(), middleware.GetPrincipal(c), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Get godoc
// GET /grades/:id
func (h *GradeHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	g, err := h.gradeService.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, g)
}

// Update godoc
// PATCH /grades/:id
// Changes score and/or feedback; feedback:null clears it.
func (h *GradeHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateGradeRequest
	if !bind(c, &req) {
		return
	}
	g, err := h.gradeService.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, g)
}

// Delete godoc
// DELETE /grades/:id
func (h *GradeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.gradeService.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.NoContent(c)
}
