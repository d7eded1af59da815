package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/db"
	"github.com/ethixlearn/ethixlearn-backend/internal/http"
	"github.com/ethixlearn/ethixlearn-backend/internal/observability"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

// NewLogger builds the process logger from LOG_MODE before the rest of the
// configuration is loaded.
func NewLogger(mode string) (*logger.Logger, error) {
	if mode == "" {
		mode = "development"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// OpenDatabase connects and migrates.
func OpenDatabase(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	theDB, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.Migrate(theDB, log); err != nil {
		_ = db.Close(theDB)
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	return theDB, nil
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	theDB, err := OpenDatabase(log, cfg)
	if err != nil {
		return nil, err
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.Init(log, theDB)
	}
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = db.Close(theDB)
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = db.Close(theDB)
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Starting server", "address", a.Cfg.Address(), "auth_mode", a.Cfg.AuthMode)
	return a.Server.Run(ctx, a.Cfg.Address())
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Clients.Close()
	if err := db.Close(a.DB); err != nil {
		a.Log.Warn("database close failed", "error", err)
	}
	a.Log.Sync()
}
