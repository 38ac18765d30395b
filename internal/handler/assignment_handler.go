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

type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	log               zerolog.Logger
}

func NewAssignmentHandler(assignmentService *service.AssignmentService, log zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		log:               log.With().Str("component", "assignment_handler").Logger(),
	}
}

// Create godoc
// POST /assignments
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req model.CreateAssignmentRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.assignmentService.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, a)
}

// List godoc
// GET /assignments?class_id=
func (h *AssignmentHandler) List(c *gin.Context) {
	classID, ok := queryID(c, "class_id")
	if !ok {
		return
	}
	out, err := h.assignmentService.List(c.Request.Context(), middleware.GetPrincipal(c), classID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Get godoc
// GET /assignments/:id
func (h *AssignmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.assignmentService.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

// Update godoc
// PATCH /assignments/:id
func (h *AssignmentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAssignmentRequest
	if !bind(c, &req) {
		return
	}
	a, err := h.assignmentService.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

// Delete godoc
// DELETE /assignments/:id
func (h *AssignmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.assignmentService.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.NoContent(c)
}
