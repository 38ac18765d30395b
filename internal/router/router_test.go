package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/classroomhq/classroom-backend/internal/config"
	"github.com/classroomhq/classroom-backend/internal/export"
	"github.com/classroomhq/classroom-backend/internal/handler"
	"github.com/classroomhq/classroom-backend/internal/logger"
	"github.com/classroomhq/classroom-backend/internal/middleware"
	"github.com/classroomhq/classroom-backend/internal/repository/memory"
	"github.com/classroomhq/classroom-backend/internal/service"
	"github.com/classroomhq/classroom-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	store   *memory.Store
	classes *service.ClassService
	health  error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, &config.Config{GinMode: gin.TestMode}, nil)
}

func newTestServerWith(t *testing.T, cfg *config.Config, authLimiter *middleware.RateLimiter) *testServer {
	t.Helper()
	validator.Setup()
	log := logger.Discard()

	store := memory.NewStore()
	tokens := service.NewTokenService("router-test-secret-with-32-bytes-min", 30*time.Minute)
	authService := service.NewAuthService(store, tokens, service.NewMemoryRevocationList(), bcrypt.MinCost, log)
	classService := service.NewClassService(store, 6, log)

	ts := &testServer{t: t, store: store, classes: classService}
	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": func(context.Context) error { return ts.health },
		}, log),
		Auth:       handler.NewAuthHandler(authService, log),
		Class:      handler.NewClassHandler(classService, log),
		Student:    handler.NewStudentHandler(service.NewEnrollmentService(store, log), log),
		Assignment: handler.NewAssignmentHandler(service.NewAssignmentService(store, log), log),
		Timetable:  handler.NewTimetableHandler(service.NewTimetableService(store, log), log),
		Grade:      handler.NewGradeHandler(service.NewGradeService(store, false, log), log),
	}
	ts.router = SetupRouter(authService, handlers, cfg, authLimiter, log)
	return ts
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Metadata struct {
		RequestID string `json:"request_id"`
	} `json:"metadata"`
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			ts.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// expect checks the status and decodes data into out when out is non-nil.
func (ts *testServer) expect(w *httptest.ResponseRecorder, status int, out interface{}) envelope {
	ts.t.Helper()
	if w.Code != status {
		ts.t.Fatalf("status = %d, want %d; body %s", w.Code, status, w.Body)
	}
	var env envelope
	if w.Body.Len() == 0 {
		return env
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		ts.t.Fatalf("decode envelope: %v; body %s", err, w.Body)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			ts.t.Fatalf("decode data: %v; body %s", err, w.Body)
		}
	}
	return env
}

func (ts *testServer) expectCode(w *httptest.ResponseRecorder, status int, code string) envelope {
	ts.t.Helper()
	env := ts.expect(w, status, nil)
	if env.Error == nil || env.Error.Code != code {
		ts.t.Fatalf("error = %+v, want %s; body %s", env.Error, code, w.Body)
	}
	return env
}

func (ts *testServer) signupAndLogin(username, role string) string {
	ts.t.Helper()
	creds := map[string]string{"username": username, "password": "password123", "role": role}
	ts.expect(ts.do(http.MethodPost, "/auth/signup", "", creds), http.StatusOK, nil)

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	ts.expect(ts.do(http.MethodPost, "/auth/login", "", creds), http.StatusOK, &tok)
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		ts.t.Fatalf("login response = %+v", tok)
	}
	return tok.AccessToken
}

func (ts *testServer) userID(token string) int {
	ts.t.Helper()
	var me struct {
		ID int `json:"id"`
	}
	ts.expect(ts.do(http.MethodGet, "/auth/me", token, nil), http.StatusOK, &me)
	return me.ID
}

type classDTO struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	JoinCode string `json:"join_code"`
}

func (ts *testServer) createClass(token, name string) classDTO {
	ts.t.Helper()
	var c classDTO
	ts.expect(ts.do(http.MethodPost, "/classes", token, map[string]string{"name": name}), http.StatusCreated, &c)
	return c
}

func TestEndToEndJoinScenario(t *testing.T) {
	ts := newTestServer(t)
	ts.classes.SetJoinCodeGenerator(func() (string, error) { return "abc123XY", nil })

	teacher := ts.signupAndLogin("teacher1", "teacher")
	class := ts.createClass(teacher, "Algebra I")
	if class.JoinCode != "abc123XY" || class.ID == 0 {
		t.Fatalf("class = %+v", class)
	}

	student := ts.signupAndLogin("student1", "student")
	ts.expect(ts.do(http.MethodPost, "/students/classes/join", student, map[string]string{"join_code": "abc123XY"}), http.StatusOK, nil)

	var enrolled []classDTO
	ts.expect(ts.do(http.MethodGet, "/students/classes", student, nil), http.StatusOK, &enrolled)
	if len(enrolled) != 1 || enrolled[0].Name != "Algebra I" {
		t.Fatalf("enrolled = %+v", enrolled)
	}

	ts.expectCode(ts.do(http.MethodPost, "/students/classes/join", student, map[string]string{"join_code": "abc123XY"}),
		http.StatusBadRequest, "ALREADY_ENROLLED")
	if n := ts.store.EnrollmentCount(ts.userID(student), class.ID); n != 1 {
		t.Fatalf("enrollment rows = %d, want 1", n)
	}
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signupAndLogin("alice", "teacher")

	ts.expectCode(ts.do(http.MethodPost, "/auth/signup", "", map[string]string{"username": "alice", "password": "password123", "role": "student"}),
		http.StatusBadRequest, "USERNAME_TAKEN")
	ts.expectCode(ts.do(http.MethodPost, "/auth/signup", "", map[string]string{"username": "bob", "password": "password123", "role": "admin"}),
		http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	ts.expectCode(ts.do(http.MethodPost, "/auth/signup", "", `{"username":`),
		http.StatusBadRequest, "INVALID_PAYLOAD")

	ts.expectCode(ts.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "wrong-password"}),
		http.StatusUnauthorized, "INVALID_CREDENTIALS")
	ts.expectCode(ts.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "nobody", "password": "wrong-password"}),
		http.StatusUnauthorized, "INVALID_CREDENTIALS")

	w := ts.do(http.MethodGet, "/auth/me", token, nil)
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	ts.expect(w, http.StatusOK, &me)
	if me.Username != "alice" || me.Role != "teacher" {
		t.Errorf("me = %+v", me)
	}

	ts.expect(ts.do(http.MethodPost, "/auth/logout", token, nil), http.StatusNoContent, nil)
	ts.expectCode(ts.do(http.MethodGet, "/auth/me", token, nil), http.StatusUnauthorized, "TOKEN_INVALID")
}

func TestUnauthenticatedAndForbidden(t *testing.T) {
	ts := newTestServer(t)
	student := ts.signupAndLogin("bob", "student")
	parent := ts.signupAndLogin("pat", "parent")

	for _, path := range []string{"/classes", "/assignments", "/timetable", "/grades", "/students/classes"} {
		ts.expectCode(ts.do(http.MethodGet, path, "", nil), http.StatusUnauthorized, "TOKEN_REQUIRED")
		ts.expectCode(ts.do(http.MethodGet, path, "garbage", nil), http.StatusUnauthorized, "TOKEN_INVALID")
	}

	ts.expectCode(ts.do(http.MethodPost, "/classes", student, map[string]string{"name": "Algebra I"}), http.StatusForbidden, "FORBIDDEN")
	ts.expectCode(ts.do(http.MethodGet, "/assignments", student, nil), http.StatusForbidden, "FORBIDDEN")
	ts.expectCode(ts.do(http.MethodGet, "/students/classes", parent, nil), http.StatusForbidden, "FORBIDDEN")

	var classes []classDTO
	ts.expect(ts.do(http.MethodGet, "/classes", parent, nil), http.StatusOK, &classes)
	if classes == nil || len(classes) != 0 {
		t.Errorf("parent classes = %v, want empty list", classes)
	}
}

func TestOwnershipReturnsNotFound(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signupAndLogin("alice", "teacher")
	mallory := ts.signupAndLogin("mallory", "teacher")
	bobID := ts.userID(ts.signupAndLogin("bob", "student"))
	class := ts.createClass(alice, "Algebra I")

	var a struct{ ID int }
	ts.expect(ts.do(http.MethodPost, "/assignments", alice, map[string]interface{}{"class_id": class.ID, "title": "Homework 1"}), http.StatusCreated, &a)
	var slot struct{ ID int }
	ts.expect(ts.do(http.MethodPost, "/timetable", alice, map[string]interface{}{
		"class_id": class.ID, "day_of_week": 0, "start_time": "09:00", "end_time": "10:00",
	}), http.StatusCreated, &slot)
	var g struct{ ID int }
	ts.expect(ts.do(http.MethodPost, "/grades", alice, map[string]interface{}{
		"assignment_id": a.ID, "student_id": bobID, "score": 88,
	}), http.StatusCreated, &g)

	paths := []string{
		fmt.Sprintf("/classes/%d", class.ID),
		fmt.Sprintf("/assignments/%d", a.ID),
		fmt.Sprintf("/timetable/%d", slot.ID),
		fmt.Sprintf("/grades/%d", g.ID),
	}
	for _, p := range paths {
		ts.expectCode(ts.do(http.MethodGet, p, mallory, nil), http.StatusNotFound, "NOT_FOUND")
		ts.expectCode(ts.do(http.MethodPatch, p, mallory, `{}`), http.StatusNotFound, "NOT_FOUND")
		ts.expectCode(ts.do(http.MethodDelete, p, mallory, nil), http.StatusNotFound, "NOT_FOUND")
	}
	ts.expectCode(ts.do(http.MethodGet, fmt.Sprintf("/assignments?class_id=%d", class.ID), mallory, nil), http.StatusNotFound, "NOT_FOUND")
	ts.expectCode(ts.do(http.MethodGet, fmt.Sprintf("/grades?assignment_id=%d", a.ID), mallory, nil), http.StatusNotFound, "NOT_FOUND")
	ts.expectCode(ts.do(http.MethodGet, fmt.Sprintf("/classes/%d/gradebook", class.ID), mallory, nil), http.StatusNotFound, "NOT_FOUND")

	for _, p := range paths {
		ts.expect(ts.do(http.MethodGet, p, alice, nil), http.StatusOK, nil)
	}
	ts.expect(ts.do(http.MethodDelete, paths[0], alice, nil), http.StatusNoContent, nil)
	for _, p := range paths {
		ts.expectCode(ts.do(http.MethodGet, p, alice, nil), http.StatusNotFound, "NOT_FOUND")
	}
}

func TestValidationResponses(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signupAndLogin("alice", "teacher")
	bobID := ts.userID(ts.signupAndLogin("bob", "student"))
	class := ts.createClass(alice, "Algebra I")

	var a struct{ ID int }
	ts.expect(ts.do(http.MethodPost, "/assignments", alice, map[string]interface{}{"class_id": class.ID, "title": "Homework 1"}), http.StatusCreated, &a)

	for _, score := range []float64{-0.01, 100.01} {
		env := ts.expectCode(ts.do(http.MethodPost, "/grades", alice, map[string]interface{}{
			"assignment_id": a.ID, "student_id": bobID, "score": score,
		}), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
		if _, ok := env.Error.Fields["score"]; !ok {
			t.Errorf("score %v: fields = %v", score, env.Error.Fields)
		}
	}
	for _, score := range []float64{0, 100} {
		ts.expect(ts.do(http.MethodPost, "/grades", alice, map[string]interface{}{
			"assignment_id": a.ID, "student_id": bobID, "score": score,
		}), http.StatusCreated, nil)
	}
	ts.expectCode(ts.do(http.MethodPost, "/grades", alice, map[string]interface{}{
		"assignment_id": a.ID, "student_id": bobID,
	}), http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	ts.expectCode(ts.do(http.MethodPost, "/timetable", alice, map[string]interface{}{
		"class_id": class.ID, "day_of_week": 1, "start_time": "09:00", "end_time": "09:00",
	}), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	var slot struct {
		ID        int    `json:"id"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	ts.expect(ts.do(http.MethodPost, "/timetable", alice, map[string]interface{}{
		"class_id": class.ID, "day_of_week": 1, "start_time": "09:00", "end_time": "09:01",
	}), http.StatusCreated, &slot)
	if slot.StartTime != "09:00:00" || slot.EndTime != "09:01:00" {
		t.Errorf("slot = %+v", slot)
	}
	ts.expectCode(ts.do(http.MethodPost, "/timetable", alice, map[string]interface{}{
		"class_id": class.ID, "day_of_week": 1, "start_time": "9am", "end_time": "10:00",
	}), http.StatusBadRequest, "INVALID_PAYLOAD")

	ts.expectCode(ts.do(http.MethodGet, "/assignments/abc", alice, nil), http.StatusBadRequest, "INVALID_ID")
	ts.expectCode(ts.do(http.MethodGet, "/assignments?class_id=x", alice, nil), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestIDsBeyondKeyRange(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signupAndLogin("alice", "teacher")
	bob := ts.signupAndLogin("bob", "student")
	bobID := ts.userID(bob)
	class := ts.createClass(alice, "Algebra I")

	const huge = "4294967296"
	for _, p := range []string{"/classes/" + huge, "/assignments/" + huge, "/timetable/" + huge, "/grades/" + huge} {
		ts.expectCode(ts.do(http.MethodGet, p, alice, nil), http.StatusNotFound, "NOT_FOUND")
		ts.expectCode(ts.do(http.MethodDelete, p, alice, nil), http.StatusNotFound, "NOT_FOUND")
	}
	ts.expectCode(ts.do(http.MethodDelete, "/students/classes/"+huge, bob, nil), http.StatusNotFound, "NOT_FOUND")
	ts.expectCode(ts.do(http.MethodGet, "/assignments?class_id="+huge, alice, nil), http.StatusNotFound, "NOT_FOUND")
	ts.expectCode(ts.do(http.MethodGet, "/grades?student_id="+huge, alice, nil), http.StatusNotFound, "NOT_FOUND")

	bodies := []struct {
		path  string
		field string
		body  map[string]interface{}
	}{
		{"/assignments", "class_id", map[string]interface{}{"class_id": int64(4294967296), "title": "Homework 1"}},
		{"/timetable", "class_id", map[string]interface{}{
			"class_id": int64(4294967296), "day_of_week": 1, "start_time": "09:00", "end_time": "10:00",
		}},
		{"/grades", "assignment_id", map[string]interface{}{"assignment_id": int64(4294967296), "student_id": bobID, "score": 50}},
		{"/grades", "student_id", map[string]interface{}{"assignment_id": 1, "student_id": int64(4294967296), "score": 50}},
	}
	for _, b := range bodies {
		env := ts.expectCode(ts.do(http.MethodPost, b.path, alice, b.body), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
		if _, ok := env.Error.Fields[b.field]; !ok {
			t.Errorf("%s: fields = %v, want %s", b.path, env.Error.Fields, b.field)
		}
	}
	ts.expect(ts.do(http.MethodGet, fmt.Sprintf("/classes/%d", class.ID), alice, nil), http.StatusOK, nil)
}

func TestPartialUpdates(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signupAndLogin("alice", "teacher")
	class := ts.createClass(alice, "Algebra I")

	type assignmentDTO struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		Description *string `json:"description"`
		DueDate     *string `json:"due_date"`
	}
	var a assignmentDTO
	ts.expect(ts.do(http.MethodPost, "/assignments", alice, map[string]interface{}{
		"class_id": class.ID, "title": "Homework 1", "description": "Read ch. 1", "due_date": "2024-09-15T23:59:00Z",
	}), http.StatusCreated, &a)

	path := fmt.Sprintf("/assignments/%d", a.ID)
	var updated assignmentDTO
	ts.expect(ts.do(http.MethodPatch, path, alice, `{"description":null}`), http.StatusOK, &updated)
	if updated.Title != "Homework 1" || updated.Description != nil || updated.DueDate == nil {
		t.Errorf("updated = %+v", updated)
	}
	ts.expectCode(ts.do(http.MethodPatch, path, alice, `{"title":null}`), http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestGradebookDownload(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.signupAndLogin("alice", "teacher")
	bob := ts.signupAndLogin("bob", "student")
	class := ts.createClass(alice, "Algebra I")
	ts.expect(ts.do(http.MethodPost, "/students/classes/join", bob, map[string]string{"join_code": class.JoinCode}), http.StatusOK, nil)

	var a struct{ ID int }
	ts.expect(ts.do(http.MethodPost, "/assignments", alice, map[string]interface{}{"class_id": class.ID, "title": "Homework 1"}), http.StatusCreated, &a)
	ts.expect(ts.do(http.MethodPost, "/grades", alice, map[string]interface{}{"assignment_id": a.ID, "student_id": ts.userID(bob), "score": 91}), http.StatusCreated, nil)

	w := ts.do(http.MethodGet, fmt.Sprintf("/classes/%d/gradebook", class.ID), alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != export.ContentTypeXLSX {
		t.Errorf("Content-Type = %q", ct)
	}

	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	v, err := f.GetCellValue("Gradebook", "B2")
	if err != nil || v != "91" {
		t.Errorf("B2 = %q, %v", v, err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	ts.expect(ts.do(http.MethodGet, "/health", "", nil), http.StatusOK, nil)

	ts.health = errors.New("connection refused")
	env := ts.expect(ts.do(http.MethodGet, "/health", "", nil), http.StatusServiceUnavailable, nil)
	if env.Metadata.RequestID == "" {
		t.Error("missing request id")
	}
}

type countingWindow struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (c *countingWindow) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key], nil
}

func TestAuthRateLimitClientIP(t *testing.T) {
	login := func(ts *testServer, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			bytes.NewBufferString(`{"username":"alice","password":"wrong-password"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		return w.Code
	}
	newServer := func(proxies []string) *testServer {
		limiter := middleware.NewRateLimiter(&countingWindow{counts: make(map[string]int64)}, 2, time.Minute, logger.Discard())
		return newTestServerWith(t, &config.Config{GinMode: gin.TestMode, TrustedProxies: proxies}, limiter)
	}

	t.Run("forwarded header ignored without trusted proxies", func(t *testing.T) {
		ts := newServer(nil)
		codes := []int{
			login(ts, "203.0.113.1"),
			login(ts, "203.0.113.2"),
			login(ts, "203.0.113.3"),
		}
		if codes[0] != http.StatusUnauthorized || codes[1] != http.StatusUnauthorized {
			t.Fatalf("first attempts = %v, want 401", codes[:2])
		}
		if codes[2] != http.StatusTooManyRequests {
			t.Fatalf("third attempt = %d, want 429 despite a new X-Forwarded-For", codes[2])
		}
	})

	t.Run("forwarded header honoured from trusted proxy", func(t *testing.T) {
		// httptest requests come from 192.0.2.1.
		ts := newServer([]string{"192.0.2.1"})
		for i := 1; i <= 3; i++ {
			if code := login(ts, fmt.Sprintf("203.0.113.%d", i)); code != http.StatusUnauthorized {
				t.Fatalf("attempt %d from distinct client = %d, want 401", i, code)
			}
		}
		login(ts, "203.0.113.9")
		if code := login(ts, "203.0.113.9"); code != http.StatusUnauthorized {
			t.Fatalf("second attempt of one client = %d, want 401", code)
		}
		if code := login(ts, "203.0.113.9"); code != http.StatusTooManyRequests {
			t.Fatalf("third attempt of one client = %d, want 429", code)
		}
	})
}
