package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/browserpilot/api/handlers"
	"github.com/BaSui01/browserpilot/automation"
	"github.com/BaSui01/browserpilot/browser"
	"github.com/BaSui01/browserpilot/config"
	"github.com/BaSui01/browserpilot/internal/database"
	"github.com/BaSui01/browserpilot/internal/metrics"
	"github.com/BaSui01/browserpilot/internal/server"
	"github.com/BaSui01/browserpilot/intervention"
)

// =============================================================================
// 🖥️ Server
// =============================================================================

// Server wires the browser session, intervention store, automation
// service and HTTP surface together.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	session     *browser.Session
	coordinator *intervention.Coordinator
	service     *automation.Service

	healthHandler *handlers.HealthHandler

	metricsCollector *metrics.Collector

	dbPool     *database.PoolManager
	redisStore *intervention.RedisStore

	rateLimiterCancel context.CancelFunc
}

// NewServer creates the server.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
	}
}

// =============================================================================
// 🚀 Startup
// =============================================================================

// Start launches the browser, opens the intervention store and begins
// serving.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("browserpilot", s.logger)

	session, err := browser.NewSession(browserConfig(s.cfg.Browser), s.logger)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	s.session = session

	store, err := s.openStore()
	if err != nil {
		return fmt.Errorf("open intervention store: %w", err)
	}
	s.coordinator = intervention.NewCoordinator(store, s.cfg.Intervention.DefaultTimeout, s.logger)
	s.coordinator.SetMetrics(s.metricsCollector)

	s.service = automation.NewService(s.session, s.coordinator, s.logger)
	s.service.SetMetrics(s.metricsCollector)

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("intervention_store", s.cfg.Intervention.Store),
		zap.Bool("live_stream", s.cfg.Live.Enabled),
	)

	return nil
}

// browserConfig maps the service configuration onto browser launch
// settings.
func browserConfig(cfg config.BrowserConfig) browser.Config {
	return browser.Config{
		Headless:          cfg.Headless,
		Display:           cfg.Display,
		ExecPath:          cfg.ExecPath,
		ViewportWidth:     cfg.ViewportWidth,
		ViewportHeight:    cfg.ViewportHeight,
		UserAgent:         cfg.UserAgent,
		ProxyURL:          cfg.ProxyURL,
		NavigationTimeout: cfg.NavigationTimeout,
		ActionTimeout:     cfg.ActionTimeout,
	}
}

// openStore builds the configured intervention store backend.
func (s *Server) openStore() (intervention.Store, error) {
	switch s.cfg.Intervention.Store {
	case "memory", "":
		return intervention.NewInMemoryStore(), nil

	case "redis":
		store, err := intervention.NewRedisStore(intervention.RedisStoreConfig{
			Addr:      s.cfg.Redis.Addr,
			Password:  s.cfg.Redis.Password,
			DB:        s.cfg.Redis.DB,
			KeyPrefix: s.cfg.Redis.KeyPrefix,
			TTL:       s.cfg.Redis.TTL,
		})
		if err != nil {
			return nil, err
		}
		s.redisStore = store
		return store, nil

	case "database":
		db, err := openDatabase(s.cfg.Database, s.logger)
		if err != nil {
			return nil, err
		}
		pool, err := database.NewPoolManager(db, database.PoolConfig{
			MaxIdleConns:        s.cfg.Database.MaxIdleConns,
			MaxOpenConns:        s.cfg.Database.MaxOpenConns,
			ConnMaxLifetime:     s.cfg.Database.ConnMaxLifetime,
			HealthCheckInterval: 0,
		}, s.logger)
		if err != nil {
			return nil, err
		}
		s.dbPool = pool
		return intervention.NewGormStore(pool.DB())

	default:
		return nil, fmt.Errorf("unknown intervention store %q", s.cfg.Intervention.Store)
	}
}

// =============================================================================
// 🌐 HTTP server
// =============================================================================

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	s.healthHandler = handlers.NewHealthHandler("browserpilot", Version, s.logger)
	s.registerReadinessChecks()

	router := &handlers.Router{
		Automation: handlers.NewAutomationHandler(s.service, s.logger),
		Health:     s.healthHandler,
		Metrics:    s.metricsCollector,
	}
	if s.cfg.Live.Enabled {
		router.Live = handlers.NewLiveHandler(
			s.session,
			s.cfg.Live.FrameInterval,
			s.cfg.Live.Quality,
			s.logger,
		)
	}
	router.Mount(mux)

	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/version", "/metrics"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		CORS(s.cfg.Server.CORSOrigins),
	}
	if s.cfg.Telemetry.Enabled {
		middlewares = append(middlewares, OTelTracing())
	}
	if s.cfg.Server.RateLimitRPS > 0 {
		middlewares = append(middlewares,
			RateLimiter(rateLimiterCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}
	if len(s.cfg.Auth.APIKeys) > 0 {
		middlewares = append(middlewares,
			APIKeyAuth(s.cfg.Auth.APIKeys, skipAuthPaths, s.cfg.Auth.AllowQueryAPIKey, s.logger))
	}
	if s.cfg.Auth.JWT.Enabled {
		// Operators resolve interventions through these endpoints.
		protect := []string{
			"/automation/complete_intervention",
			"/automation/cancel_intervention",
			"/automation/list_interventions",
		}
		middlewares = append(middlewares, JWTAuth(s.cfg.Auth.JWT, protect, s.logger))
	}

	handler := Chain(mux, middlewares...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     s.cfg.Server.IdleTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	return s.httpManager.Start()
}

// registerReadinessChecks wires the /ready probes: browser session
// liveness plus the durable store, when one is configured.
func (s *Server) registerReadinessChecks() {
	s.healthHandler.RegisterCheck(handlers.CheckFunc{
		CheckName: "browser",
		Fn: func(ctx context.Context) error {
			if s.session.TabCount() == 0 {
				return fmt.Errorf("no open tabs")
			}
			return nil
		},
	})

	switch {
	case s.redisStore != nil:
		s.healthHandler.RegisterCheck(handlers.CheckFunc{
			CheckName: "redis",
			Fn:        s.redisStore.Ping,
		})
	case s.dbPool != nil:
		s.healthHandler.RegisterCheck(handlers.CheckFunc{
			CheckName: "database",
			Fn:        s.dbPool.Ping,
		})
	}
}

// =============================================================================
// 📊 Metrics server
// =============================================================================

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	return s.metricsManager.Start()
}

// =============================================================================
// 🛑 Shutdown
// =============================================================================

// WaitForShutdown blocks until a shutdown signal, then tears everything
// down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops the servers and closes the browser and store.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")

	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}

	if s.session != nil {
		if err := s.session.Close(); err != nil {
			s.logger.Error("browser shutdown error", zap.Error(err))
		}
	}

	if s.dbPool != nil {
		if err := s.dbPool.Close(); err != nil {
			s.logger.Error("database pool shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("graceful shutdown completed")
}

// openDatabase opens the archive database per configuration.
func openDatabase(dbCfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	dialector, err := dbDialector(dbCfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	logger.Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}
