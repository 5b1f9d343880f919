// Package server exposes the marketplace over HTTP and a websocket event
// stream.
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"skillswap/internal/config"
	"skillswap/internal/featureflags"
	"skillswap/internal/middleware"
	"skillswap/internal/models"
	"skillswap/internal/notifications"
	"skillswap/internal/observability"
	"skillswap/internal/service"
	"skillswap/internal/store"
)

const defaultOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// httpMetrics returns the process-wide fiberprometheus instance. Its
// collectors live in the default registry, which accepts them only once.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New("skillswap-api")
	})
	return prom
}

// Options are the optional collaborators of a Server.
type Options struct {
	// Publisher receives moderation events; nil disables publishing.
	Publisher service.ModerationPublisher
	// Redis backs the per-route rate limits; nil disables them.
	Redis *redis.Client
	// Clock overrides the service clock in tests.
	Clock func() time.Time
}

// Server holds all dependencies and provides handlers.
type Server struct {
	config   *config.Config
	store    *store.Store
	services *service.Services
	flags    *featureflags.Manager
	hub      *notifications.Hub
	limiter  *middleware.RateLimiter
	app      *fiber.App
	unfollow func()
	logger   *slog.Logger
}

// NewServer wires the services over st and builds the fiber app.
func NewServer(cfg *config.Config, st *store.Store, opts Options) *Server {
	flags := featureflags.NewManager(cfg.FeatureFlags)
	s := &Server{
		config: cfg,
		store:  st,
		services: service.New(service.Deps{
			Store:     st,
			Flags:     flags,
			Publisher: opts.Publisher,
			Clock:     opts.Clock,
		}),
		flags:   flags,
		hub:     notifications.NewHub(),
		limiter: middleware.NewRateLimiter(opts.Redis, cfg.IsProduction(), middleware.FailOpen),
		logger:  observability.Component("server"),
	}
	s.unfollow = s.hub.Follow(st)

	s.app = fiber.New(fiber.Config{
		AppName:      "SkillSwap API",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)
	return s
}

// App returns the fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(s.sessionLocals())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(httpMetrics().Middleware)
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)
	httpMetrics().RegisterAt(app, "/metrics")

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute), s.Register)
	auth.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute), s.Login)
	auth.Post("/demo", s.DemoLogin)
	auth.Post("/logout", s.Logout)
	api.Get("/session", s.GetSession)

	// Specific /users routes before the generic /:id.
	users := api.Group("/users")
	users.Get("/", s.GetDirectory)
	users.Get("/locations", s.GetLocations)
	users.Put("/me", s.UpdateMyProfile)
	users.Post("/me/skills/:kind", s.AddSkill)
	users.Delete("/me/skills/:kind/:skill", s.RemoveSkill)
	users.Get("/:id", s.GetUser)

	api.Get("/dashboard", s.GetDashboard)
	api.Get("/messages", s.GetMessages)

	swaps := api.Group("/swaps")
	swaps.Get("/", s.GetSwaps)
	swaps.Post("/", s.limiter.Limit("create_swap", 20, time.Minute), s.CreateSwap)
	swaps.Post("/:id/accept", s.AcceptSwap)
	swaps.Post("/:id/reject", s.RejectSwap)
	swaps.Post("/:id/cancel", s.CancelSwap)
	swaps.Post("/:id/complete", s.CompleteSwap)
	swaps.Post("/:id/feedback", s.LeaveFeedback)
	swaps.Delete("/:id", s.DeleteSwap)

	admin := api.Group("/admin", s.AdminRequired())
	admin.Get("/stats", s.GetAdminStats)
	admin.Get("/report", s.GetAdminReport)
	admin.Get("/users", s.GetAdminUsers)
	admin.Get("/swaps", s.GetAdminSwaps)
	admin.Get("/feedback", s.GetAdminFeedback)
	admin.Get("/feature-flags", s.GetFeatureFlags)
	admin.Post("/users/:id/ban", s.BanUser)
	admin.Post("/users/:id/unban", s.UnbanUser)
	admin.Post("/users/:id/promote", s.PromoteUser)
	admin.Post("/users/:id/demote", s.DemoteUser)
	admin.Post("/messages", s.BroadcastMessage)

	app.Get("/ws/events", s.upgradeRequired, s.WebsocketHandler())
}

// HealthCheck reports liveness and the number of open event streams.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "up",
		"storage":     s.config.StorageDriver,
		"connections": s.hub.Count(),
		"time":        time.Now().UTC(),
	})
}

// sessionLocals exposes the session user's id to later middleware.
func (s *Server) sessionLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := s.store.Snapshot().SessionID(); id != "" {
			c.Locals(middleware.LocalUserID, id)
		}
		return c.Next()
	}
}

// AdminRequired rejects requests unless an unbanned admin is logged in.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		me, err := s.services.Auth.CurrentUser(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		if me.IsBanned {
			return respondError(c, models.NewForbiddenError("Your account has been banned"))
		}
		if !me.IsAdmin {
			return respondError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	s.logger.ErrorContext(c.UserContext(), "unhandled request error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// Start serves HTTP until the app is shut down.
func (s *Server) Start() error {
	s.logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and closes every event stream.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.unfollow != nil {
		s.unfollow()
	}
	var errs []error
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	s.logger.Info("server shutdown complete")
	return errors.Join(errs...)
}
