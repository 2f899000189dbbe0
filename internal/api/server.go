// Package api wires the home view's HTTP surface.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/api/handlers"
	"github.com/maheshrc27/postpilot/internal/api/middleware"
	"github.com/maheshrc27/postpilot/internal/backend"
	"github.com/maheshrc27/postpilot/internal/service"
)

type Deps struct {
	Views    *service.ViewRegistry
	Backend  *backend.Client
	Location *time.Location
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

func NewServer(cfg config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		BodyLimit:    50 * 1024 * 1024, // 50 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	if deps.AccessLog {
		app.Use(logger.New())
	}
	// Pages are same-origin; only listed front ends get credentialed CORS.
	if len(cfg.AllowedOrigins) > 0 {
		allowed := make(map[string]bool, len(cfg.AllowedOrigins))
		for _, o := range cfg.AllowedOrigins {
			allowed[strings.ToLower(o)] = true
		}
		app.Use(cors.New(cors.Config{
			AllowOriginsFunc: func(origin string) bool {
				return allowed[origin]
			},
			AllowMethods:     "GET,POST,OPTIONS",
			AllowHeaders:     "Origin, Content-Type, Accept",
			AllowCredentials: true,
			MaxAge:           3600,
		}))
	}

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	authMiddleware := middleware.NewAuthMiddleware(cfg)
	home := handlers.NewHomeHandler(deps.Views, deps.Backend, deps.Location)

	auth := authMiddleware.AuthMiddleware()
	app.Get("/", auth, home.Home)
	app.Post("/sections/:section/toggle", auth, home.ToggleSection)
	app.Post("/connect/:platform", auth, home.Connect)
	app.Post("/posts/schedule", auth, home.SchedulePost)
	app.Post("/notice/dismiss", auth, home.DismissNotice)

	api := app.Group("/api", auth)
	api.Get("/home", home.HomeState)
	api.Post("/sections/:section/toggle", home.ToggleSection)
	api.Post("/connect/:platform", home.Connect)
	api.Post("/posts/schedule", home.SchedulePost)
	api.Post("/notice/dismiss", home.DismissNotice)

	return app
}
