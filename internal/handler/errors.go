package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/classroomhq/classroom-backend/internal/response"
	"github.com/classroomhq/classroom-backend/internal/service"
	"github.com/classroomhq/classroom-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// respondError translates a service error into the response envelope.
// Anything unrecognised is logged and reported as an opaque 500.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, verr.Fields)
	case errors.Is(err, service.ErrUnauthenticated):
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrUsernameTaken):
		response.Fail(c, http.StatusBadRequest, response.ErrUsernameTaken)
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Fail(c, http.StatusBadRequest, response.ErrAlreadyEnrolled)
	case errors.Is(err, service.ErrConflict):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		_ = c.Error(err)
		log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// bind decodes the JSON body into dst, writing the failure response itself.
// It reports whether the handler should continue.
func bind(c *gin.Context, dst interface{}) bool {
	err := validator.Bind(c, dst)
	if err == nil {
		return true
	}
	var fields validator.FieldErrors
	if errors.As(err, &fields) {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return false
	}
	response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, map[string]string{"detail": err.Error()})
	return false
}

// parseID reads a positive id that fits the int4 key columns. tooLarge is
// set for well-formed ids beyond that range: no row can carry them.
func parseID(raw string) (id int, tooLarge bool, ok bool) {
	n, err := strconv.ParseInt(raw, 10, 32)
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return 0, true, false
	}
	if err != nil || n <= 0 {
		return 0, false, false
	}
	return int(n), false, true
}

// pathID parses a positive integer path parameter. Ids past the key range
// answer 404 like any other missing row.
func pathID(c *gin.Context, name string) (int, bool) {
	id, tooLarge, ok := parseID(c.Param(name))
	switch {
	case tooLarge:
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case !ok:
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
	}
	return id, ok
}

// queryID parses an optional positive integer query parameter.
func queryID(c *gin.Context, name string) (*int, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return nil, true
	}
	id, tooLarge, ok := parseID(raw)
	switch {
	case tooLarge:
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil, false
	case !ok:
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation,
			map[string]string{name: name + " must be a positive integer"})
		return nil, false
	}
	return &id, true
}
