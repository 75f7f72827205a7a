package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/db"
	httpx "github.com/yungbote/coursecraft-backend/internal/http"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/envutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	shutdownOtel func(context.Context) error
}

// Bootstrap applies .env when present, then builds the logger and configuration shared by every
// command. Variables already set in the environment win over .env.
func Bootstrap() (*logger.Logger, Config, error) {
	envErr := godotenv.Load()
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, Config{}, fmt.Errorf("init logger: %w", err)
	}
	if envErr == nil {
		log.Info("Loaded .env")
	}
	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, Config{}, fmt.Errorf("load config: %w", err)
	}
	return log, cfg, nil
}

// New opens the database, runs migrations and wires every component. Close releases what New
// acquired, including on a partial failure.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}
	if cfg.MetricsEnabled {
		a.Metrics = observability.New()
	}
	a.shutdownOtel = observability.InitOTel(ctx, log, cfg.Otel)

	dbs, err := db.Open(cfg.DB, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.DB = dbs
	if err := dbs.AutoMigrateAll(); err != nil {
		a.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	a.Repos = wireRepos(dbs.DB(), log)
	clients, err := wireClients(ctx, log, cfg, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clients

	svc, err := wireServices(dbs.DB(), log, cfg, a.Repos, clients, a.Metrics)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Services = svc
	return a, nil
}

func (a *App) GormDB() *gorm.DB {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.DB()
}

// Serve runs the HTTP server and background collectors until ctx is canceled or one of them
// fails.
func (a *App) Serve(ctx context.Context) error {
	if a == nil || a.DB == nil {
		return errors.New("app not initialized")
	}
	rc := wireRouterConfig(a.Log, a.Cfg, a.Services, a.GormDB(), a.Clients.Redis, a.Metrics)
	server := httpx.NewServer(":"+a.Cfg.Port, rc)

	g, gctx := errgroup.WithContext(ctx)
	a.Metrics.StartDBCollector(gctx, a.Log, a.GormDB(), a.Cfg.MetricsInterval)
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(gctx, a.Log, a.Clients.Redis, a.Cfg.MetricsInterval)
	}
	g.Go(func() error {
		return server.Run(gctx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.close(a.Log)
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("closing database", "error", err)
		}
	}
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(context.Background()); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
	}
	a.Log.Sync()
}
