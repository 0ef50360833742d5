package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// ServerConfig carries the fiber limits taken from the service config.
type ServerConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

// NewApp builds a fiber app with every route registered.
func NewApp(cfg ServerConfig, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "fosd",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	SetupRoutes(app, deps)
	return app
}

// SetupRoutes registers the middleware chain and all routes on app.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(requestid.New())
	app.Use(AccessLogMiddleware(deps))

	if deps.Metrics != nil {
		handler := deps.Metrics.Handler()
		app.Get("/metrics", func(c *fiber.Ctx) error {
			fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
			return nil
		})
	}

	app.Get("/v1/health", HealthHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/resect", ResectHandler(deps))
	v1.Post("/resect/sketch", SketchHandler(deps))
	v1.Post("/convert", ConvertHandler(deps))
}
