package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/salih12s/trucksbus-pwa/internal/api/http"
	"github.com/salih12s/trucksbus-pwa/internal/api/middleware"
	"github.com/salih12s/trucksbus-pwa/internal/config"
	"github.com/salih12s/trucksbus-pwa/internal/coordinator"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/monitoring"
	"github.com/salih12s/trucksbus-pwa/internal/netwatch"
	"github.com/salih12s/trucksbus-pwa/internal/notify"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
	"github.com/salih12s/trucksbus-pwa/internal/store"
	"github.com/salih12s/trucksbus-pwa/internal/syncq"
	"github.com/salih12s/trucksbus-pwa/internal/worker"
	"github.com/salih12s/trucksbus-pwa/internal/ws"
)

// Server wires the coordinator, its host surfaces, and the HTTP adapter.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	coord  *coordinator.Coordinator
	store  *store.Store
	prober *netwatch.Prober
	log    *logging.Logger
	http   *http.Server
}

// New builds a server from configuration. Host surfaces are assembled
// from the enabled config sections; anything disabled simply leaves its
// capability unsupported.
func New(cfg *config.Config) (*Server, error) {
	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	caps := platform.Capabilities{platform.CapNotifications: true}

	var st *store.Store
	if cfg.Storage.Enabled {
		collections := splitCollections(cfg.Storage.Collections)
		st, err = store.Open(cfg.Storage.Path, collections)
		if err != nil {
			return nil, fmt.Errorf("open offline store: %w", err)
		}
		caps[platform.CapDurableStorage] = true
		log.Info("offline store opened",
			zap.String("path", cfg.Storage.Path),
			zap.Strings("collections", collections))
	}

	var runtime *worker.Runtime
	if cfg.Worker.Enabled {
		runtime = worker.New(cfg.Worker.Version, log)
		caps[platform.CapWorker] = true
	}

	notifier := notify.NewLocalNotifier(platform.PermissionDefault, true)

	var push platform.PushService
	if cfg.Push.BackendURL != "" {
		push = notify.NewBackendPush(cfg.Push.BackendURL)
		caps[platform.CapPush] = true
	}

	var prober *netwatch.Prober
	var conn platform.ConnectionInfo
	if cfg.Connectivity.Enabled && cfg.Connectivity.ProbeURL != "" {
		prober = netwatch.NewProber(cfg.Connectivity.ProbeURL, cfg.Connectivity.Interval)
		conn = prober
		caps[platform.CapConnectionInfo] = true
	}

	var workerSurface platform.WorkerRuntime
	if runtime != nil {
		workerSurface = runtime
	}
	host := platform.NewHost(caps, workerSurface, notifier, push, conn)

	metrics := monitoring.New()
	coord := coordinator.GetOrCreate(coordinator.Options{
		Host:    host,
		Store:   st,
		Log:     log,
		Metrics: metrics,
		Push:    cfg.Push,
		Sync:    cfg.Sync,
	})

	// The flusher is the worker's sync handler: every deferred tag
	// replays its collection's unsynced records to the backend.
	if runtime != nil && st != nil && cfg.Sync.Endpoint != "" {
		flusher := syncq.NewFlusher(st, cfg.Sync.Endpoint, cfg.Sync.MaxRetries, coord.Bus(), log)
		runtime.SetSyncHandler(flusher.Flush)
	}

	router := newRouter(cfg, coord, runtime, metrics, log)

	return &Server{
		cfg:    cfg,
		router: router,
		coord:  coord,
		store:  st,
		prober: prober,
		log:    log,
		http: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func newRouter(cfg *config.Config, coord *coordinator.Coordinator, runtime *worker.Runtime, metrics *monitoring.Metrics, log *logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	handlers := apihttp.NewHandlers(coord, runtime)
	wsHandler := ws.NewHandler(coord, metrics, log)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/status", handlers.Status)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Worker lifecycle
	router.POST("/register", handlers.Register)
	router.DELETE("/register", handlers.Unregister)
	router.POST("/update", handlers.Update)
	router.POST("/worker/deploy", handlers.DeployWorker)

	// Install prompt
	router.POST("/events/install-offer", handlers.CaptureInstallOffer)
	router.POST("/install", handlers.Install)

	// Notifications
	router.POST("/notifications/request", handlers.RequestNotifications)

	// Offline writes and deferred sync
	router.POST("/offline/:collection", handlers.Persist)
	router.POST("/sync/:tag", handlers.RegisterSync)

	// Event stream
	router.GET("/stream", wsHandler.HandleConnection)

	// PWA assets. The worker script must be served from the root scope
	// and never cached, or clients keep running stale versions.
	assets := cfg.Server.AssetsDir
	router.GET("/manifest.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/manifest+json")
		c.File(filepath.Join(assets, "manifest.json"))
	})
	router.GET("/sw.js", func(c *gin.Context) {
		c.Header("Service-Worker-Allowed", "/")
		c.Header("Cache-Control", "no-cache")
		c.File(filepath.Join(assets, "sw.js"))
	})

	return router
}

// Run starts the coordinator's background loops and serves HTTP until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.coord.Start(ctx)
	if s.prober != nil {
		s.prober.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("adapter listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// Close releases the durable store.
func (s *Server) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warn("closing offline store", zap.Error(err))
			return err
		}
	}
	return nil
}

func splitCollections(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
