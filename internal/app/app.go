package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	server "github.com/yungbote/outbound-messaging-backend/internal/http"
	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type Options struct {
	Version string
	// DryRun swaps the messaging platform for the in-memory one.
	DryRun bool
}

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Server   *server.Server
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, opts Options) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log, opts.Version)
	if logMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log)

	clients, err := wireClients(ctx, log, cfg, opts.DryRun)
	if err != nil {
		log.Sync()
		return nil, err
	}
	serviceset := wireServices(log, cfg, clients)
	handlerset := wireHandlers(log, cfg, serviceset)
	middleware := wireMiddleware(log, cfg, serviceset)
	srv := server.NewServer(":"+cfg.Port, routerConfig(log, cfg, handlerset, middleware, metrics))

	return &App{
		Log:          log,
		Cfg:          cfg,
		Server:       srv,
		Clients:      clients,
		Services:     serviceset,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP (and the metrics listener when configured) until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
		if err := a.Server.Run(gctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		a.Log.Info("HTTP server stopped")
		return nil
	})
	if a.Metrics != nil && a.Cfg.MetricsAddr != "" {
		a.Metrics.StartServer(gctx, a.Log, a.Cfg.MetricsAddr)
	}
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
