package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/classroomhq/classroom-backend/internal/logger"
	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository/memory"
	"github.com/classroomhq/classroom-backend/internal/response"
	"github.com/classroomhq/classroom-backend/internal/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	counter := &fakeCounter{counts: make(map[string]int64)}
	rl := NewRateLimiter(counter, 2, time.Minute, logger.Discard())
	now := time.Date(2024, 9, 1, 8, 0, 30, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.Use(rl.Middleware())
	r.POST("/auth/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodPost, "/auth/login", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
	w := serve(r, http.MethodPost, "/auth/login", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "31" {
		t.Errorf("Retry-After = %q, want 31", got)
	}

	now = now.Add(time.Minute)
	if w := serve(r, http.MethodPost, "/auth/login", ""); w.Code != http.StatusOK {
		t.Fatalf("next window: status %d", w.Code)
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	counter := &fakeCounter{err: errors.New("redis down")}
	rl := NewRateLimiter(counter, 1, time.Minute, logger.Discard())

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := serve(r, http.MethodGet, "/", ""); w.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", w.Code)
		}
	}
}

func newAuthRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	log := logger.Discard()
	store := memory.NewStore()
	tokens := service.NewTokenService("middleware-test-secret-of-32-bytes!!", time.Hour)
	auth := service.NewAuthService(store, tokens, service.NewMemoryRevocationList(), bcrypt.MinCost, log)

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	authed := r.Group("/", RequireAuth(auth, log))
	authed.GET("/me", func(c *gin.Context) {
		response.Success(c, http.StatusOK, GetPrincipal(c))
	})
	authed.GET("/teachers-only", RequireRole(model.RoleTeacher), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, auth
}

func login(t *testing.T, auth *service.AuthService, username string, role model.Role) string {
	t.Helper()
	ctx := context.Background()
	if _, err := auth.Signup(ctx, model.SignupRequest{Username: username, Password: "password123", Role: role}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	tok, err := auth.Login(ctx, model.LoginRequest{Username: username, Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return tok.AccessToken
}

func TestRequireAuth(t *testing.T) {
	r, auth := newAuthRouter(t)
	token := login(t, auth, "alice", model.RoleTeacher)

	w := serve(r, http.MethodGet, "/me", token)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Fatalf("status %d body %s", w.Code, w.Body)
	}

	tests := []struct {
		name   string
		header string
		code   response.ErrCode
	}{
		{"missing", "", response.ErrTokenRequired},
		{"wrong scheme", "Basic " + token, response.ErrTokenRequired},
		{"empty bearer", "Bearer ", response.ErrTokenRequired},
		{"garbage", "Bearer nope", response.ErrTokenInvalid},
		{"tampered", "Bearer " + token + "A", response.ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status %d, want 401", w.Code)
			}
			if !strings.Contains(w.Body.String(), string(tt.code)) {
				t.Errorf("body %s, want code %s", w.Body, tt.code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r, auth := newAuthRouter(t)
	teacher := login(t, auth, "alice", model.RoleTeacher)
	student := login(t, auth, "bob", model.RoleStudent)

	if w := serve(r, http.MethodGet, "/teachers-only", teacher); w.Code != http.StatusNoContent {
		t.Fatalf("teacher: status %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/teachers-only", student); w.Code != http.StatusForbidden {
		t.Fatalf("student: status %d, want 403", w.Code)
	}
	if w := serve(r, http.MethodGet, "/teachers-only", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d, want 401", w.Code)
	}
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.Use(NoStore())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/", "")
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}
