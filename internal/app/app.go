// Package app wires configuration, store, asset sink and event publisher
// into a Fiber application.
package app

import (
	"errors"

	"recipebox/internal/assets"
	"recipebox/internal/config"
	"recipebox/internal/handlers"
	"recipebox/internal/logging"
	"recipebox/internal/services"
	"recipebox/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
)

// Deps are the collaborators New builds the application from.
type Deps struct {
	Config *config.Config
	Store  store.Availability
	Assets assets.Store
	// Events may be nil, in which case no domain events are published.
	Events services.EventPublisher
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

// New builds the Fiber app with every route mounted.
func New(d Deps) *fiber.App {
	cfg := d.Config

	authService := services.NewAuthService(d.Store, cfg.JWTSecret, cfg.TokenTTL)
	recipeService := services.NewRecipeService(d.Store, assets.NewManager(d.Assets), d.Events)
	reviewService := services.NewReviewService(d.Store, d.Events)

	authHandler := handlers.NewAuthHandler(authService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, authService)
	reviewHandler := handlers.NewReviewHandler(reviewService, authService)
	healthHandler := handlers.NewHealthHandler(d.Store)

	app := fiber.New(fiber.Config{
		AppName:      "recipebox",
		BodyLimit:    cfg.MaxUploadBytes,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}

	healthHandler.RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if local, ok := d.Assets.(*assets.LocalStore); ok {
		app.Use(cfg.Assets.URLPrefix, filesystem.New(filesystem.Config{
			Root: afero.NewHttpFs(local.FS()),
		}))
	}

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	recipeHandler.RegisterRoutes(api)
	reviewHandler.RegisterRoutes(api)

	return app
}

// errorHandler renders framework errors (unknown route, oversized body,
// recovered panics) in the same {"error": message} shape as the handlers.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		logging.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
