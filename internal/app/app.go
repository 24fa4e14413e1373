package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/recipebook-backend/internal/dispatch"
	"github.com/yungbote/recipebook-backend/internal/http"
	"github.com/yungbote/recipebook-backend/internal/observability"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
	"github.com/yungbote/recipebook-backend/internal/realtime"
	"github.com/yungbote/recipebook-backend/internal/services"
)

const redisCollectorInterval = 15 * time.Second

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Pool     *dispatch.Pool
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics
	Server   *http.Server
	Router   *gin.Engine

	otelShutdown func(context.Context) error

	mu           sync.Mutex
	cancel       context.CancelFunc
	stopNotifier func()
	closed       bool
}

// New loads configuration from the environment and wires the whole service.
func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	a, err := NewWithConfig(context.Background(), log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Endpoint:    cfg.Otel.Endpoint,
		Insecure:    cfg.Otel.Insecure,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		SampleRatio: cfg.Otel.SampleRatio,
	})
	metrics := observability.Init(log, cfg.MetricsEnabled)

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}

	pool := dispatch.NewPool(dispatch.Options{
		Workers:      cfg.Dispatch.Workers,
		QueueSize:    cfg.Dispatch.QueueSize,
		OnQueueDepth: metrics.SetDispatchQueueDepth,
	}, log)

	ssehub := realtime.NewSSEHub(log)
	emit := &services.BusEmitter{Bus: clients.Bus, Log: log}

	reposet := wireRepos(clients.Store, cfg, log)
	serviceset := wireServices(log, cfg, reposet, pool, emit, clients.Store)
	handlerset := wireHandlers(log, serviceset, ssehub, metrics)
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Pool:         pool,
		SSEHub:       ssehub,
		Metrics:      metrics,
		Server:       server,
		Router:       server.Engine,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background machinery: dispatch workers, the bus
// forwarder into the local hub, notifications and the redis collector.
func (a *App) Start() {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil || a.closed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Pool.Start()
	if err := a.Clients.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
		a.Log.Warn("realtime forwarder not started", "error", err)
	}
	a.stopNotifier = a.Services.Notifier.Watch(a.Services.Recipes.Slots())
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, redisCollectorInterval)
	}
}

// Run serves HTTP on the configured port until Close.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr())
	return a.Server.Run(a.Cfg.Addr())
}

// Close stops serving, drains pending work and releases every client.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	cancel, stopNotifier := a.cancel, a.stopNotifier
	a.mu.Unlock()

	var errs []error
	a.SSEHub.CloseAll()
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if stopNotifier != nil {
		stopNotifier()
	}
	if err := a.Pool.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("dispatch drain: %w", err))
	}
	if a.Repos.Writer != nil {
		a.Repos.Writer.Close()
	}
	if cancel != nil {
		cancel()
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
