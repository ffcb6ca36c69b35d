package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/metrics"
)

const defaultBodyLimit = 10 << 20

type Dependencies struct {
	Pipeline handler.Pipeline
	Auditor  audit.Logger
	Metrics  *metrics.Manager
	// Probes are run by /ready, keyed by the name reported in checks.
	Probes map[string]handler.Probe
}

type Options struct {
	// BodyLimit caps the request body in bytes. Larger uploads get 413.
	BodyLimit   int
	SwaggerHost string
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
	opts   Options
}

func NewRouter(logger *slog.Logger, deps *Dependencies, opts Options) *Router {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = defaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Facegate API",
		BodyLimit:    opts.BodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
		opts:   opts,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	r.app.Use(middleware.Logger(r.logger))
	if r.deps != nil && r.deps.Metrics != nil {
		r.app.Use(middleware.Metrics(r.deps.Metrics))
	}
	// Inside Logger and Metrics so a recovered panic is logged and counted
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	// Swagger documentation
	sw := docs.NewSwagger(r.opts.SwaggerHost)
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Service endpoints
	healthHandler := handler.NewHealthHandler()
	if r.deps != nil {
		for name, probe := range r.deps.Probes {
			healthHandler.AddProbe(name, probe)
		}
	}
	r.app.Get("/", healthHandler.Info)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	if r.deps.Metrics != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(r.deps.Metrics.Handler()))
	}

	// Face routes
	if r.deps.Pipeline != nil {
		faceHandler := handler.NewFaceHandler(r.deps.Pipeline, r.deps.Auditor, r.logger)
		r.app.Post(handler.EndpointEnroll, faceHandler.Enroll)
		r.app.Post(handler.EndpointVerify, faceHandler.Verify)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
