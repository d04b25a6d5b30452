// Package router assembles the HTTP surface of the grade book.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/handler"
	internalmiddleware "github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/requestid"
)

// Options carries the wired handlers and cross-cutting settings.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Auth           *service.AuthService

	AuthHandler      *handler.AuthHandler
	BootstrapHandler *handler.BootstrapHandler
	StudentHandler   *handler.StudentHandler
	GradeHandler     *handler.GradeHandler
	SessionHandler   *handler.SessionHandler
	TeacherHandler   *handler.TeacherHandler
	SettingsHandler  *handler.SettingsHandler
	RecapHandler     *handler.RecapHandler
	ReportHandler    *handler.ReportHandler
	MetricsHandler   *handler.MetricsHandler
}

// New builds the gin engine with every route registered.
func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	if opts.Metrics != nil {
		r.Use(internalmiddleware.Metrics(opts.Metrics))
	}

	r.GET("/health", opts.MetricsHandler.Health)
	r.GET("/ready", opts.MetricsHandler.Ready)
	r.GET("/metrics", opts.MetricsHandler.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	api.POST("/auth/login", opts.AuthHandler.Login)
	api.GET("/reports/download/:token", opts.ReportHandler.Download)

	authed := api.Group("")
	authed.Use(internalmiddleware.JWT(opts.Auth))
	register(authed, opts)

	return r
}

func register(g *gin.RouterGroup, opts Options) {
	can := internalmiddleware.RequireCapabilities
	audit := func(action string) gin.HandlerFunc {
		return internalmiddleware.Audit(opts.Logger, action)
	}

	g.GET("/auth/me", opts.AuthHandler.Me)
	g.GET("/bootstrap", opts.BootstrapHandler.Get)
	g.POST("/bootstrap/reload", internalmiddleware.RequireKinds(models.ViewerAdmin), audit("bootstrap.reload"), opts.BootstrapHandler.Reload)

	students := g.Group("/students")
	students.GET("", can(models.CapViewReports), opts.StudentHandler.List)
	students.POST("", can(models.CapManageStudents), audit("student.create"), opts.StudentHandler.Create)
	students.POST("/import", can(models.CapManageStudents), audit("student.import"), opts.StudentHandler.Import)
	students.GET("/:id", opts.StudentHandler.Get)
	students.PUT("/:id", can(models.CapManageStudents), audit("student.update"), opts.StudentHandler.Update)
	students.DELETE("/:id", can(models.CapManageStudents), audit("student.delete"), opts.StudentHandler.Delete)

	g.PUT("/grades", can(models.CapEditGrades), audit("grade.save"), opts.GradeHandler.Save)
	g.POST("/grades/reset", can(models.CapManageStudents), audit("grade.reset"), opts.GradeHandler.Reset)

	sessions := g.Group("/sessions")
	sessions.GET("", can(models.CapViewReports), opts.SessionHandler.List)
	sessions.POST("", can(models.CapManageSessions), audit("session.open"), opts.SessionHandler.Open)
	sessions.GET("/available", can(models.CapManageSessions), opts.SessionHandler.Available)
	sessions.DELETE("/:id", can(models.CapManageSessions), audit("session.delete"), opts.SessionHandler.Delete)

	teachers := g.Group("/teachers", can(models.CapManageTeachers))
	teachers.GET("", opts.TeacherHandler.List)
	teachers.POST("", audit("teacher.create"), opts.TeacherHandler.Create)
	teachers.PUT("/:id", audit("teacher.update"), opts.TeacherHandler.Update)
	teachers.DELETE("/:id", audit("teacher.delete"), opts.TeacherHandler.Delete)

	g.GET("/settings", opts.SettingsHandler.Get)
	g.PUT("/settings", can(models.CapManageSettings), audit("settings.save"), opts.SettingsHandler.Save)
	g.GET("/chapter-configs/:subject", opts.SettingsHandler.GetChapterConfig)
	g.PUT("/chapter-configs/:subject", can(models.CapManageSettings), audit("chapter_config.save"), opts.SettingsHandler.SaveChapterConfig)

	g.GET("/recap", can(models.CapViewReports), opts.RecapHandler.Recap)
	g.GET("/monitoring", can(models.CapViewReports), opts.RecapHandler.Monitoring)
	g.GET("/me/grades", can(models.CapViewOwnGrades), opts.RecapHandler.MyGrades)
	g.POST("/reports", can(models.CapViewReports), opts.ReportHandler.Generate)
}
