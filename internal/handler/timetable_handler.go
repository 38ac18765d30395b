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

type TimetableHandler struct {
	timetableService *service.TimetableService
	log              zerolog.Logger
}

func NewTimetableHandler(timetableService *service.TimetableService, log zerolog.Logger) *TimetableHandler {
	return &TimetableHandler{
		timetableService: timetableService,
		log:              log.With().Str("component", "timetable_handler").Logger(),
	}
}

// Create godoc
// POST /timetable
func (h *TimetableHandler) Create(c *gin.Context) {
	var req model.CreateTimetableEntryRequest
	if !bind(c, &req) {
		return
	}
	e, err := h.timetableService.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, e)
}

// List godoc
// GET /timetable?class_id=
func (h *TimetableHandler) List(c *gin.Context) {
	classID, ok := queryID(c, "class_id")
	if !ok {
		return
	}
	out, err := h.timetableService.List(c.Request.Context(), middleware.GetPrincipal(c), classID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Get godoc
// GET /timetable/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.timetableService.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

// Update godoc
// PATCH /timetable/:id
// The merged slot must still end after it starts.
func (h *TimetableHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateTimetableEntryRequest
	if !bind(c, &req) {
		return
	}
	e, err := h.timetableService.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

// Delete godoc
// DELETE /timetable/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.timetableService.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.NoContent(c)
}
