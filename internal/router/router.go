package router

import (
	"time"

	"github.com/classroomhq/classroom-backend/internal/config"
	"github.com/classroomhq/classroom-backend/internal/handler"
	"github.com/classroomhq/classroom-backend/internal/middleware"
	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/response"
	"github.com/classroomhq/classroom-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	Class      *handler.ClassHandler
	Student    *handler.StudentHandler
	Assignment *handler.AssignmentHandler
	Timetable  *handler.TimetableHandler
	Grade      *handler.GradeHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// authLimiter may be nil to disable rate limiting of /auth.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	authLimiter *middleware.RateLimiter,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ClientIP keys the auth rate limit, so forwarding headers are only
	// believed from configured proxies.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).
			Msg("Invalid TRUSTED_PROXIES, trusting no proxy")
		_ = router.SetTrustedProxies(nil)
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper:   middleware.SkipPathSuffix("/gradebook"),
	}))

	router.GET("/health", handlers.Health.Health)

	requireAuth := middleware.RequireAuth(authService, log)
	teacherOnly := middleware.RequireRole(model.RoleTeacher)
	studentOnly := middleware.RequireRole(model.RoleStudent)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/auth")
	auth.Use(middleware.NoStore())
	if authLimiter != nil {
		auth.Use(authLimiter.Middleware())
	}
	{
		auth.POST("/signup", handlers.Auth.Signup)
		auth.POST("/login", handlers.Auth.Login)

		auth.GET("/me", requireAuth, handlers.Auth.Me)
		auth.POST("/logout", requireAuth, handlers.Auth.Logout)
	}

	// ─── 2. Classes (any role lists, teacher manages) ──────────────────
	classes := router.Group("/classes")
	classes.Use(requireAuth)
	{
		classes.GET("", handlers.Class.List)
		classes.POST("", teacherOnly, handlers.Class.Create)
		classes.GET("/:id", teacherOnly, handlers.Class.Get)
		classes.PATCH("/:id", teacherOnly, handlers.Class.Update)
		classes.DELETE("/:id", teacherOnly, handlers.Class.Delete)
		classes.GET("/:id/students", teacherOnly, handlers.Class.ListStudents)
		classes.GET("/:id/gradebook", teacherOnly, handlers.Class.Gradebook)
	}

	// ─── 3. Student Portal ─────────────────────────────────────────────
	students := router.Group("/students")
	students.Use(requireAuth, studentOnly)
	{
		students.POST("/classes/join", handlers.Student.JoinClass)
		students.GET("/classes", handlers.Student.ListClasses)
		students.DELETE("/classes/:id", handlers.Student.LeaveClass)
		students.GET("/assignments", handlers.Student.ListAssignments)
		students.GET("/timetable", handlers.Student.ListTimetable)
		students.GET("/grades", handlers.Student.ListGrades)
	}

	// ─── 4. Teacher Resources (owner-scoped) ───────────────────────────
	teacher := router.Group("")
	teacher.Use(requireAuth, teacherOnly)
	{
		teacher.POST("/assignments", handlers.Assignment.Create)
		teacher.GET("/assignments", handlers.Assignment.List)
		teacher.GET("/assignments/:id", handlers.Assignment.Get)
		teacher.PATCH("/assignments/:id", handlers.Assignment.Update)
		teacher.DELETE("/assignments/:id", handlers.Assignment.Delete)

		teacher.POST("/timetable", handlers.Timetable.Create)
		teacher.GET("/timetable", handlers.Timetable.List)
		teacher.GET("/timetable/:id", handlers.Timetable.Get)
		teacher.PATCH("/timetable/:id", handlers.Timetable.Update)
		teacher.DELETE("/timetable/:id", handlers.Timetable.Delete)

		teacher.POST("/grades", handlers.Grade.Create)
		teacher.GET("/grades", handlers.Grade.List)
		teacher.GET("/grades/:id", handlers.Grade.Get)
		teacher.PATCH("/grades/:id", handlers.Grade.Update)
		teacher.DELETE("/grades/:id", handlers.Grade.Delete)
	}

	return router
}
