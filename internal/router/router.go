package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gradeflow/gradeflow-api/internal/config"
	"github.com/gradeflow/gradeflow-api/internal/handler"
	"github.com/gradeflow/gradeflow-api/internal/middleware"
	"github.com/gradeflow/gradeflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EvaluationHandler *handler.EvaluationHandler
	HistoryHandler    *handler.HistoryHandler
	StudentHandler    *handler.StudentHandler
	ScreenshotHandler *handler.ScreenshotHandler
	RosterHandler     *handler.RosterHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.EvaluationHandler != nil || deps.HistoryHandler != nil {
		evaluations := api.Group("/evaluations")
		evaluations.Use(middleware.RateLimit("evaluations", 30, time.Minute))
		if deps.EvaluationHandler != nil {
			deps.EvaluationHandler.Register(evaluations)
		}
		if deps.HistoryHandler != nil {
			deps.HistoryHandler.Register(evaluations)
		}
	}

	if deps.StudentHandler != nil {
		students := api.Group("/students")
		deps.StudentHandler.Register(students)
	}

	if deps.ScreenshotHandler != nil {
		screenshots := api.Group("/screenshots")
		screenshots.Use(middleware.RateLimit("screenshots", 60, time.Minute))
		deps.ScreenshotHandler.Register(screenshots)
	}

	if deps.RosterHandler != nil {
		admin := api.Group("/admin")
		deps.RosterHandler.Register(admin)
	}
}
