package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/Fawazpw/Project-Sol/internal/api/http"
	"github.com/Fawazpw/Project-Sol/internal/api/middleware"
	"github.com/Fawazpw/Project-Sol/internal/api/ws"
	"github.com/Fawazpw/Project-Sol/internal/domain/navigation"
	"github.com/Fawazpw/Project-Sol/internal/domain/tab"
	"github.com/Fawazpw/Project-Sol/internal/infrastructure/config"
	"github.com/Fawazpw/Project-Sol/internal/infrastructure/logging"
	"github.com/Fawazpw/Project-Sol/internal/infrastructure/monitoring"
	"github.com/Fawazpw/Project-Sol/internal/infrastructure/tracing"
	"github.com/Fawazpw/Project-Sol/internal/preferences"
	"github.com/Fawazpw/Project-Sol/internal/shared/id"
	"github.com/Fawazpw/Project-Sol/internal/store/sqlite"
	"github.com/Fawazpw/Project-Sol/internal/surface"
	"github.com/Fawazpw/Project-Sol/internal/surface/chrome"
	"github.com/Fawazpw/Project-Sol/internal/surface/headless"
	"github.com/Fawazpw/Project-Sol/internal/window"
)

// Server wraps the control API and the windows behind it
type Server struct {
	config  *config.Config
	router  *gin.Engine
	http    *http.Server
	windows *window.Manager
	db      *sqlite.Store
	driver  *chrome.Driver
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
	logger  *logging.Logger
	log     *zap.Logger

	quitOnce sync.Once
	quit     chan struct{}
}

// New creates a server. Nothing listens and no window exists until Start.
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	log := logger.Component("server")

	log.Info("Initializing Sol",
		zap.String("addr", cfg.Server.Addr),
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.String("surface", cfg.Surface.Driver),
	)

	metrics := monitoring.NewMetrics()

	db, err := sqlite.Open(cfg.Storage.DBPath(),
		sqlite.WithMkdirAll(),
		sqlite.WithLogger(logger.Component("store")),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	stores := db.Set()

	prefs, err := preferences.Open(cfg.Storage.PreferencesPath())
	if err != nil {
		log.Warn("Using default preferences", zap.Error(err))
	}

	s := &Server{
		config:  cfg,
		db:      db,
		metrics: metrics,
		tracer:  tracing.New(logger.Component("trace"), 500*time.Millisecond),
		logger:  logger,
		log:     log,
		quit:    make(chan struct{}),
	}

	var surfaces window.Surfaces
	switch cfg.Surface.Driver {
	case "rod":
		s.driver = chrome.NewDriver(chrome.Config{
			RemoteURL: cfg.Surface.RodURL,
			Headless:  cfg.Surface.RodHeadless,
			Logger:    logger.Component("chrome"),
		})
		surfaces = window.SurfacesFunc(func(incognito bool) (surface.Factory, error) {
			return s.driver.Partition(incognito)
		})
	default:
		surfaces = window.SurfacesFunc(func(incognito bool) (surface.Factory, error) {
			name := "default"
			if incognito {
				name = id.NewPartition()
			}
			return headless.NewFactory(name), nil
		})
	}

	s.windows = window.NewManager(window.Options{
		Surfaces: surfaces,
		Guard: &surface.GuardSettings{
			Threshold: cfg.Surface.FailureThreshold,
			Cooldown:  cfg.Surface.Cooldown,
		},
		Stores:         stores,
		Prefs:          prefs,
		Resolver:       navigation.NewResolver(cfg.Browser.SearchURL),
		Home:           navigation.External(cfg.Browser.HomeURL),
		Titles:         tab.NewTitles(cfg.Browser.TitleSuffixes, cfg.Browser.TitleLimit),
		ClosedTabLimit: cfg.Browser.ClosedTabLimit,
		Metrics:        metrics,
		Chrome:         shell{s},
		Logger:         logger,
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		log.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	apihttp.NewHandlers(s.windows, stores, prefs, logger.Component("api")).Register(router)
	router.GET("/windows/:wid/stream", ws.NewHandler(s.windows, metrics, logger.Component("ws")).HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s.router = router
	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Server initialized successfully")
	return s, nil
}

// Router exposes the gin engine.
func (s *Server) Router() *gin.Engine { return s.router }

// Windows exposes the window manager.
func (s *Server) Windows() *window.Manager { return s.windows }

// Quit is closed when a window runs the quit command.
func (s *Server) Quit() <-chan struct{} { return s.quit }

// Start brings the surface driver up and opens the first normal window,
// which restores the previous session.
func (s *Server) Start(ctx context.Context) (*window.Window, error) {
	if s.driver != nil {
		if err := s.driver.Start(ctx); err != nil {
			return nil, fmt.Errorf("start browser: %w", err)
		}
	}
	w, err := s.windows.Open(ctx, window.ModeNormal)
	if err != nil {
		return nil, fmt.Errorf("open first window: %w", err)
	}
	return w, nil
}

// Run serves the control API until Close.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.log.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server: the API stops accepting requests,
// every window is torn down, then the browser and database are closed.
func (s *Server) Close(ctx context.Context) error {
	s.log.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.windows.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("window shutdown: %w", err))
	}
	if s.driver != nil {
		if err := s.driver.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	s.tracer.Close()

	err := errors.Join(errs...)
	if err != nil {
		s.log.Error("Shutdown finished with errors", zap.Error(err))
	}
	_ = s.logger.Sync()
	return err
}

// shell carries window-chrome commands that have no effect on tabs. There
// is no native window to resize, so fullscreen and devtools are logged.
type shell struct{ s *Server }

func (sh shell) ToggleFullscreen(windowID id.WindowID) error {
	sh.s.log.Info("Fullscreen toggled", zap.String("window_id", windowID.String()))
	return nil
}

func (sh shell) ToggleDevTools(windowID id.WindowID, tabID id.NodeID) error {
	sh.s.log.Info("DevTools toggled",
		zap.String("window_id", windowID.String()),
		zap.String("tab_id", tabID.String()),
	)
	return nil
}

func (sh shell) Quit() error {
	sh.s.quitOnce.Do(func() { close(sh.s.quit) })
	return nil
}
