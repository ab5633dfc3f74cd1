// Package rest exposes the driving-event API over HTTP using fiber.
package rest

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/drivesense/internal/logging"
	"github.com/dmitrijs2005/drivesense/internal/server/config"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const shutdownTimeout = 5 * time.Second

// Deps are the services the HTTP layer calls into.
type Deps struct {
	Users  UserService
	Events EventService
	Styles StyleService
	Models Classifier
}

type Server struct {
	address string
	app     *fiber.App
	logger  logging.Logger
}

func NewServer(cfg *config.Config, d Deps, l logging.Logger) *Server {
	logger := l.With("module", "http_server")
	metrics := NewMetrics()

	h := &Handlers{
		users:         d.Users,
		events:        d.Events,
		styles:        d.Styles,
		models:        d.Models,
		metrics:       metrics,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		enforceActive: cfg.EnforceActiveOnAccess,
	}

	app := fiber.New(fiber.Config{
		AppName:               "drivesense",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(requestLogger(logger, metrics))
	app.Use(recover.New())
	app.Use(corsMiddleware(cfg.AllowedOrigins))

	app.Get("/", h.Root)
	app.Get("/health", h.Health)
	app.Get("/metrics", metrics.handler())

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", h.Login)

	ev := api.Group("/driving-events", h.requireUser)
	ev.Post("/", h.CreateEvent)
	ev.Get("/", h.ListEvents)
	ev.Get("/:id", h.GetEvent)

	pred := api.Group("/predictions", h.requireUser)
	pred.Post("/driving-event", h.PredictEvent)
	pred.Post("/driving-style", h.PredictStyle)
	pred.Post("/driving-style/save", h.SaveStyle)
	pred.Get("/driving-style/latest", h.LatestStyle)
	pred.Get("/driving-style/history", h.StyleHistory)

	return &Server{address: cfg.HTTPAddr, app: app, logger: logger}
}

func corsMiddleware(origins []string) fiber.Handler {
	allow := strings.Join(origins, ",")
	return cors.New(cors.Config{
		AllowOrigins:     allow,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: allow != "" && allow != "*",
		ExposeHeaders:    "X-Request-ID, X-Process-Time",
	})
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- s.app.Listen(s.address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}
