package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/FileMaster/internal/config"
	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/domain/files"
	httpapi "github.com/GriffinCanCode/FileMaster/internal/http"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/auditstore"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/FileMaster/internal/logging"
	"github.com/GriffinCanCode/FileMaster/internal/mcpserver"
	"github.com/GriffinCanCode/FileMaster/internal/middleware"
	"github.com/GriffinCanCode/FileMaster/internal/providers/filesystem"
	"github.com/GriffinCanCode/FileMaster/internal/service"
	"github.com/GriffinCanCode/FileMaster/internal/ws"
)

const (
	// MCPBasePath is where the MCP SSE transport is mounted.
	MCPBasePath = "/mcp"
	// SearchStreamPath is the WebSocket search endpoint.
	SearchStreamPath = "/ws/search"

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	config   *config.Config
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	files    *files.Service
	registry *service.Registry
	mcp      *mcpserver.Server
	router   *gin.Engine
	closers  []io.Closer
}

// NewServer wires the audit sinks, the file service and every transport.
// cfg must already have the policy applied.
func NewServer(ctx context.Context, cfg *config.Config, policy *config.Policy, logger *logging.Logger) (*Server, error) {
	settings, err := policy.Settings()
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing FileMaster server",
		zap.Strings("allowed_directories", settings.AllowedDirectories()),
		zap.Int64("max_file_size", settings.MaxFileSize()),
		zap.Bool("delete_enabled", settings.DeleteEnabled()),
	)

	s := &Server{config: cfg, logger: logger}

	// Initialize metrics first (needed by other components)
	s.metrics = monitoring.NewMetrics()

	recorder, querier, err := s.openAudit(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.files = files.NewService(settings, recorder, files.WithLogger(logger))
	s.registry = service.NewRegistry()
	if err := s.registry.Register(filesystem.NewProvider(s.files,
		filesystem.WithLogger(logger),
		filesystem.WithObserver(s.metrics),
	)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to register filesystem provider: %w", err)
	}
	stats := s.registry.Stats()
	logger.Info("Registered services",
		zap.Any("services", stats["total_services"]),
		zap.Any("tools", stats["total_tools"]),
	)

	s.mcp = mcpserver.New(s.registry, s.files, httpapi.Version, logger)
	s.router = s.buildRouter(querier)

	logger.Info("Server initialized successfully")
	return s, nil
}

// openAudit assembles the audit chain: the security log, the optional
// SQLite store behind a breaker, the in-memory ring and the event counter.
func (s *Server) openAudit(ctx context.Context) (audit.Recorder, auditstore.Querier, error) {
	cfg := s.config.Audit

	fileSink, err := auditstore.OpenFile(cfg.LogPath)
	if err != nil {
		return nil, nil, err
	}
	s.closers = append(s.closers, fileSink)

	memory := audit.NewMemory(cfg.MemoryEvents)
	var querier auditstore.Querier = auditstore.MemoryQuerier{Memory: memory}

	var store audit.Recorder
	if cfg.DBPath != "" {
		db, err := auditstore.OpenSQL(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		s.closers = append(s.closers, db)
		breaker := resilience.New("audit-db", resilience.Settings{
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			OnStateChange: func(name string, from, to resilience.State) {
				s.logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
		guarded := auditstore.NewGuarded(auditstore.Logged(db, s.logger), breaker)
		s.metrics.WatchDropped("sqlite", guarded.Dropped)
		store = guarded
		querier = db
		s.logger.Info("Audit database enabled", zap.String("path", cfg.DBPath))
	}

	recorder := audit.Multi(
		auditstore.Logged(fileSink, s.logger),
		store,
		memory,
		s.metrics.Recorder(),
	)
	return recorder, querier, nil
}

func (s *Server) buildRouter(querier auditstore.Querier) *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(), middleware.Actor())
	router.Use(middleware.Logger(s.logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
			IdleTTL:           10 * time.Minute,
			OnLimited:         func(*gin.Context) { s.metrics.IncRateLimited() },
		}))
	}
	router.Use(monitoring.Middleware(s.metrics))

	handlers := httpapi.NewHandlers(s.registry, s.files, querier, s.metrics, s.logger)
	handlers.Register(router)

	// WebSocket
	wsHandler := ws.NewHandler(s.files, ws.WithMetrics(s.metrics), ws.WithLogger(s.logger))
	router.GET(SearchStreamPath, wsHandler.HandleConnection)

	// MCP over SSE
	sse := gin.WrapH(s.mcp.SSEHandler(MCPBasePath))
	router.GET(MCPBasePath+"/sse", sse)
	router.POST(MCPBasePath+"/message", sse)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))

	return router
}

// Handler returns the root handler. Streaming endpoints bypass compression.
func (s *Server) Handler() http.Handler {
	gz := gzhttp.GzipHandler(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == SearchStreamPath || strings.HasPrefix(r.URL.Path, MCPBasePath+"/") {
			s.router.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Run listens on the configured address and serves until ctx ends, then
// shuts down gracefully. Binding must finish within the startup timeout.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()

	listenCtx, cancel := context.WithTimeout(ctx, s.config.Server.StartupTimeout)
	ln, err := (&net.ListenConfig{}).Listen(listenCtx, "tcp", addr)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          zap.NewStdLog(s.logger.Logger),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// RunStdio serves MCP over stdin and stdout until ctx ends.
func (s *Server) RunStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("Serving MCP over stdio")
	return s.mcp.ServeStdio(ctx, in, out)
}

// Files returns the file service.
func (s *Server) Files() *files.Service { return s.files }

// Close releases the audit sinks and flushes the logger.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Error("Failed to close resource", zap.Error(err))
			errs = append(errs, err)
		}
	}
	s.closers = nil
	_ = s.logger.Sync()
	return errors.Join(errs...)
}
