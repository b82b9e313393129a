// Package app assembles the lookup pipeline from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pharmacy-locator/internal/config"
	"github.com/UnknownOlympus/pharmacy-locator/internal/geocoding"
	"github.com/UnknownOlympus/pharmacy-locator/internal/hours"
	"github.com/UnknownOlympus/pharmacy-locator/internal/location"
	"github.com/UnknownOlympus/pharmacy-locator/internal/metrics"
	"github.com/UnknownOlympus/pharmacy-locator/internal/registry"
	"github.com/UnknownOlympus/pharmacy-locator/internal/repository"
	"github.com/UnknownOlympus/pharmacy-locator/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

// App is a wired lookup service together with its optional journal.
type App struct {
	Service *service.LookupService
	Journal repository.Interface // Journal is nil when no database is configured.
	Metrics *metrics.Metrics

	closers []func()
}

// New validates cfg and builds every collaborator of the lookup service.
// Metrics are registered on reg.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := cfg.TimeZone()
	if err != nil {
		return nil, err
	}

	locator, err := location.NewLocator(location.Config{
		Type:      location.LocatorType(cfg.Location.Type),
		Consent:   cfg.Location.Consent,
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
		BaseURL:   cfg.Location.BaseURL,
		Timeout:   cfg.Location.Timeout,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create locator: %w", err)
	}

	geocoder, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Geocoder.Type),
		APIKey:    cfg.Geocoder.APIKey,
		RateLimit: cfg.Geocoder.RateLimit,
		Language:  cfg.Geocoder.Language,
		Region:    cfg.Geocoder.Region,
		SubRegion: cfg.Geocoder.SubRegion,
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoding provider: %w", err)
	}
	if cfg.Geocoder.CacheTTL > 0 {
		geocoder = geocoding.NewCachingProvider(geocoder, cfg.Geocoder.CacheTTL, log)
	}

	gateway, err := registry.NewClient(registry.ClientConfig{
		BaseURL:    cfg.Registry.BaseURL,
		ServiceKey: cfg.Registry.ServiceKey,
		RateLimit:  cfg.Registry.RateLimit,
		Timeout:    cfg.Registry.Timeout,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry client: %w", err)
	}

	app := &App{Metrics: metrics.NewMetrics(reg)}
	opts := service.Options{
		MaxRows: cfg.Registry.MaxRows,
		Timeout: cfg.LookupTimeout,
		Days:    hours.NewDayResolver(loc, nil),
	}

	if cfg.Database.Enabled() {
		pool, errDB := repository.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if errDB != nil {
			return nil, fmt.Errorf("failed to connect to journal database: %w", errDB)
		}
		app.closers = append(app.closers, pool.Close)

		repo := repository.NewRepository(pool, log)
		if errDB = repo.EnsureSchema(ctx); errDB != nil {
			app.Close()
			return nil, errDB
		}
		app.Journal = repo
		opts.Journal = repo
	}

	app.Service = service.NewLookupService(log, locator, geocoder, gateway, app.Metrics, opts)

	log.InfoContext(ctx, "Lookup pipeline assembled",
		"locator", cfg.Location.Type,
		"geocoder", cfg.Geocoder.Type,
		"journal", cfg.Database.Enabled(),
		"timezone", loc.String(),
	)

	return app, nil
}

// Close releases the resources held by the app.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
