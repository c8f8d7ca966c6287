package config

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Egham-7/pitchside/internal/api"
	"github.com/Egham-7/pitchside/internal/config"
	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/middleware"
	"github.com/Egham-7/pitchside/internal/services/request"
	"github.com/Egham-7/pitchside/internal/services/response"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 30 * time.Second

// Server is a pitchside HTTP server instance.
type Server struct {
	config *config.Config
	comps  *Components
	app    *fiber.App
}

// NewServer creates a server for cfg. cfg must not be nil.
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() to create config")
	}
	return &Server{config: cfg}
}

// Run starts the server and blocks until SIGINT or SIGTERM.
func (s *Server) Run() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	SetupLogLevel(s.config)

	comps, err := Build(s.config)
	if err != nil {
		return err
	}
	s.comps = comps
	defer comps.Close()

	s.app = NewApp(comps)

	listenAddr := ":" + s.config.Server.Port
	fmt.Printf("pitchside starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", s.config.Server.Environment)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := s.app.Listen(listenAddr); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		fiberlog.Info("Shutdown signal received, draining requests...")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	fiberlog.Info("Server shutdown completed")
	return nil
}

// NewApp builds the fiber app with middleware and routes over comps.
func NewApp(comps *Components) *fiber.App {
	cfg := comps.Config
	app := fiber.New(fiber.Config{
		AppName:           "pitchside",
		EnablePrintRoutes: false,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		CaseSensitive:     true,
		ServerHeader:      "pitchside",
		ErrorHandler:      errorHandler,
	})

	setupMiddleware(app, cfg)
	setupRoutes(app, comps)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return response.NewBaseService().Error(c, fe.Code, fe.Message, "http", strings.ReplaceAll(strings.ToUpper(fiberutils.StatusMessage(fe.Code)), " ", "_"))
	}
	return response.NewBaseService().AppError(c, err)
}

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	isProd := cfg.IsProduction()

	app.Use(recover.New(recover.Config{EnableStackTrace: !isProd}))
	app.Use(request.NewBaseService().Middleware())

	perMinute := cfg.Server.RateLimitPerMin
	app.Use(limiter.New(limiter.Config{
		Max:               perMinute,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == cfg.Metrics.Path
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.NewBaseService().AppError(c, models.NewRateLimitError(fmt.Sprintf("%d requests per minute", perMinute)))
		},
	}))

	requestTimeout := time.Duration(cfg.Server.RequestTimeoutMs) * time.Millisecond
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	format := "[${time}] ${status} - ${latency} ${method} ${path} ${locals:request_id} ${error}\n"
	if isProd {
		format = "${time} ${status} ${method} ${path} ${latency} ${bytesSent}b ${locals:request_id}\n"
	}
	app.Use(logger.New(logger.Config{Format: format, Output: os.Stdout}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		MaxAge:        86400,
		ExposeHeaders: "Content-Length, Content-Type, X-Request-ID",
	}))

	if !isProd {
		app.Use(pprof.New())
	}
}

func setupRoutes(app *fiber.App, comps *Components) {
	cfg := comps.Config

	app.Get("/", welcomeHandler())

	var db api.Pinger
	if comps.DB != nil {
		db = comps.DB
	}
	app.Get("/health", api.NewHealthHandler(comps.Redis, db, comps.Registry).WithCache(comps.Cache).HealthCheck)

	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	v1 := app.Group("/v1")
	v1.Post("/answer", api.NewAnswerHandler(comps.Pipeline).Answer)

	var usageReader api.UsageReader
	if comps.Usage != nil {
		usageReader = comps.Usage
	}
	adminHandler := api.NewAdminHandler(comps.Cache, usageReader)
	admin := app.Group("/admin", middleware.NewAdminAuth(cfg.Admin).Handler())
	admin.Get("/cache/stats", adminHandler.CacheStats)
	admin.Delete("/cache", adminHandler.PurgeCache)
	admin.Delete("/cache/entry", adminHandler.RemoveEntry)
	admin.Get("/usage/stats", adminHandler.UsageStats)
	admin.Get("/usage/recent", adminHandler.RecentAnswers)
}

func welcomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":    "pitchside football answers",
			"go_version": runtime.Version(),
			"status":     "running",
			"endpoints": fiber.Map{
				"answer": "/v1/answer",
				"health": "/health",
				"admin":  "/admin",
			},
		})
	}
}

// SetupLogLevel applies server.log_level to fiberlog.
func SetupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "", "info":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}
}
