// Package app wires the catalog, settings store, provider, calculator and
// HTTP server from a Config. Both binaries build on it.
package app

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"move-quote/adapters/notify"
	"move-quote/adapters/storage"
	"move-quote/api"
	"move-quote/core/catalog"
	"move-quote/core/items"
	"move-quote/core/quote"
	"move-quote/core/settings"
	"move-quote/internal/config"
	qerrors "move-quote/internal/errors"
	"move-quote/internal/logging"
)

// App holds the wired components
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Catalog    *catalog.Catalog
	Normalizer *items.Normalizer
	Store      storage.Store
	Settings   *settings.Provider
	Calculator *quote.Calculator

	redis *redis.Client
}

// New builds every component. Settings are not loaded yet; call
// LoadSettings before serving.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)

	cat, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	fallback, err := cfg.FallbackVolume()
	if err != nil {
		return nil, qerrors.Wrap(qerrors.TypeConfig, "fallback volume", err)
	}
	normalizer, err := items.New(cat, items.WithFallbackVolume(fallback))
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, qerrors.Storage("open settings store", err)
	}

	provider := settings.NewProvider(store,
		settings.WithTimeout(cfg.ReloadTimeout()),
		settings.WithLogger(logger.Named("settings")),
	)

	calc, err := quote.NewCalculator(normalizer, provider, quote.WithLogger(logger.Named("quote")))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Catalog:    cat,
		Normalizer: normalizer,
		Store:      store,
		Settings:   provider,
		Calculator: calc,
	}
	if cfg.Notify.RedisAddr != "" {
		a.redis = notify.NewClient(cfg.Notify.RedisAddr)
	}

	logger.Info("app initialized",
		zap.Int("catalog_items", cat.Len()),
		zap.String("settings_source", store.Name()),
	)
	return a, nil
}

// LoadCatalog loads the configured catalog, or the built-in one
func LoadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	opt := catalog.WithSimilarityThreshold(cfg.Catalog.SimilarityThreshold)
	var (
		cat *catalog.Catalog
		err error
	)
	if cfg.Catalog.Path != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.Path, opt)
	} else {
		cat, err = catalog.Default(opt)
	}
	if err != nil {
		return nil, qerrors.Wrap(qerrors.TypeCatalog, "load catalog", err)
	}
	return cat, nil
}

// LoadSettings performs the initial reload. A failure is logged and the
// compiled-in defaults stay in force.
func (a *App) LoadSettings(ctx context.Context) *settings.Snapshot {
	snap, err := a.Settings.ReloadWithRetry(ctx)
	if err != nil {
		a.Logger.Warn("initial settings load failed, using defaults", zap.Error(err))
		return a.Settings.Current()
	}
	return snap
}

// Redis returns the notification client, or nil when not configured
func (a *App) Redis() *redis.Client {
	return a.redis
}

// Server builds the HTTP API over the app's components
func (a *App) Server(version string) (*api.Server, error) {
	return api.NewServer(api.Deps{
		Quoter:   a.Calculator,
		Settings: a.Settings,
		Catalog:  a.Catalog,
		Version:  version,
		Logger:   a.Logger.Named("api"),
	})
}

// Serve runs the API, the settings poller and the change subscriber until
// ctx is cancelled or one of them fails
func (a *App) Serve(ctx context.Context, version string) error {
	srv, err := a.Server(version)
	if err != nil {
		return err
	}

	a.LoadSettings(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, a.Config.Server.Addr)
	})
	if interval := a.Config.PollInterval(); interval > 0 {
		g.Go(func() error {
			return ignoreCancel(a.Settings.Watch(ctx, interval))
		})
	}
	if a.redis != nil {
		sub := notify.NewSubscriber(a.redis, a.Config.Notify.Channel, a.Settings, a.Logger.Named("notify"))
		g.Go(func() error {
			return ignoreCancel(sub.Run(ctx))
		})
	}
	return g.Wait()
}

// Close releases the store and the Redis client
func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = multierr.Append(err, a.Store.Close())
	}
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	return err
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
