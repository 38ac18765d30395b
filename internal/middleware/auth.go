package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/response"
	"github.com/classroomhq/classroom-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// ContextKeySession is the Gin context key for the authenticated session.
	ContextKeySession = "session"
)

// RequireAuth resolves the bearer token to a session and stores it in the
// Gin context. Missing or rejected tokens abort with 401.
func RequireAuth(authService *service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		sess, err := authService.Authenticate(c.Request.Context(), tokenStr)
		if errors.Is(err, service.ErrUnauthenticated) {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Authentication failed")
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Set(ContextKeySession, sess)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated principal holds one
// of roles. Must run after RequireAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSession(c)
		if sess == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if err := service.RequireRole(sess.Principal, roles...); err != nil {
			response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
			return
		}
		c.Next()
	}
}

// GetSession retrieves the session stored by RequireAuth.
func GetSession(c *gin.Context) *service.Session {
	val, exists := c.Get(ContextKeySession)
	if !exists {
		return nil
	}
	sess, ok := val.(*service.Session)
	if !ok {
		return nil
	}
	return sess
}

// GetPrincipal returns the authenticated principal, or the zero value when
// the request is anonymous.
func GetPrincipal(c *gin.Context) model.Principal {
	if sess := GetSession(c); sess != nil {
		return sess.Principal
	}
	return model.Principal{}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
