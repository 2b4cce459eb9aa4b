package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sekolah-api/internal/config"
	"github.com/noah-isme/sekolah-api/internal/handler"
	"github.com/noah-isme/sekolah-api/internal/middleware"
	"github.com/noah-isme/sekolah-api/internal/models"
	"github.com/noah-isme/sekolah-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentTypeHandler *handler.AssessmentTypeHandler
	SubmissionHandler     *handler.SubmissionHandler
	GradingHandler        *handler.GradingHandler
	ReportHandler         *handler.ReportHandler
	ActivityHandler       *handler.ActivityHandler
	HealthProbes          map[string]handler.HealthProbe
	RateLimitStorage      fiber.Storage
	JWTMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staff := middleware.RequireRole(models.RoleAdmin, models.RoleTeacher)

	if deps.AssessmentTypeHandler != nil {
		group := api.Group("/assessment-types", jwtMiddleware, staff)
		deps.AssessmentTypeHandler.Register(group)
	}

	if deps.SubmissionHandler != nil || deps.GradingHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		if deps.GradingHandler != nil {
			submissions.Put("/:id/grade",
				staff,
				middleware.RateLimit("grading", cfg.GradingRateLimit, time.Minute, deps.RateLimitStorage),
				deps.GradingHandler.Grade,
			)
		}
		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.Register(submissions)
		}
	}

	if deps.GradingHandler != nil {
		api.Get("/final-grades/verify", jwtMiddleware, staff, deps.GradingHandler.VerifyFinalGrade)
	}

	if deps.ReportHandler != nil {
		reports := api.Group("/reports", jwtMiddleware)
		deps.ReportHandler.Register(reports)
	}

	if deps.ActivityHandler != nil {
		api.Get("/activity", jwtMiddleware, middleware.RequireRole(models.RoleAdmin), deps.ActivityHandler.List)
	}
}
