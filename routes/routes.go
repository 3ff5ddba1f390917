// path: routes/routes.go
package routes

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/controllers"
	"github.com/learnercloudtech/Karunya-Kripa/metrics"
	"github.com/learnercloudtech/Karunya-Kripa/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Options configure the HTTP app around the API handlers.
type Options struct {
	AllowOrigins string
	UploadDir    string
	BodyLimit    int
	Metrics      *metrics.Metrics
	// AccessLog receives the request lines; nil means stdout.
	AccessLog io.Writer
	Logger    *zap.Logger
}

// NewApp builds the fiber app: middleware, static media, health, metrics
// and the API routes.
func NewApp(api *controllers.API, opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stdout
	}
	log := opts.Logger.Named("http")

	app := fiber.New(fiber.Config{
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	// Log concise request lines
	app.Use(logger.New(logger.Config{
		TimeFormat: "15:04:05",
		Output:     opts.AccessLog,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowOrigins,
		AllowMethods:     "GET,POST,PATCH,OPTIONS",
		AllowHeaders:     "*",
		ExposeHeaders:    controllers.HeaderNextCursor,
		AllowCredentials: false,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	// Early debug line (also shows OPTIONS)
	app.Use(func(c *fiber.Ctx) error {
		log.Debug("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("origin", c.Get("Origin")),
			zap.String("ct", c.Get("Content-Type")))
		return c.Next()
	})

	if opts.UploadDir != "" {
		app.Static(strings.TrimSuffix(storage.URLPrefix, "/"), opts.UploadDir)
	}

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	Register(app, api)
	return app
}

// Register attaches all API endpoints to the app.
func Register(app *fiber.App, h *controllers.API) {
	api := app.Group("/api")

	api.Post("/locate", h.HandleLocate)

	api.Post("/reports", h.HandlePostReport)
	api.Get("/reports", h.HandleListReports)
	api.Patch("/reports/:id/status", h.HandleUpdateStatus)

	api.Post("/volunteers", h.HandlePostVolunteer)
	api.Get("/volunteers", h.HandleListVolunteers)
}
