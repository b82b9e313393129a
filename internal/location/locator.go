// Package location acquires the coordinates a lookup cycle starts from.
package location

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// Locator requests permission to read the device position and returns a single
// coordinate. CurrentCoordinates fails with models.ErrPermissionDenied when
// permission was not granted, and with models.ErrLocationUnavailable when the
// positioning source times out or errors.
type Locator interface {
	RequestPermission(ctx context.Context) bool
	CurrentCoordinates(ctx context.Context) (*models.Coordinates, error)
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// LocatorType represents the source of the device position.
type LocatorType string

const (
	// LocatorTypeStatic reports a fixed, configured coordinate.
	LocatorTypeStatic LocatorType = "static"
	// LocatorTypeIPAPI resolves the host's public IP address through ip-api.com.
	LocatorTypeIPAPI LocatorType = "ipapi"
)

// Config holds configuration for creating a locator.
type Config struct {
	Type      LocatorType   // Type of locator to create
	Consent   bool          // Consent is the user's answer to the permission prompt
	Latitude  float64       // Latitude used by the static locator
	Longitude float64       // Longitude used by the static locator
	BaseURL   string        // BaseURL overrides the ip-api endpoint
	Timeout   time.Duration // Timeout bounds a single positioning request
	Logger    *slog.Logger  // Logger for the locator
}

// NewLocator creates a locator based on the provided configuration.
func NewLocator(cfg Config) (Locator, error) {
	switch cfg.Type {
	case LocatorTypeStatic:
		return NewStaticLocator(
			models.Coordinates{Latitude: cfg.Latitude, Longitude: cfg.Longitude}, cfg.Consent, cfg.Logger,
		), nil
	case LocatorTypeIPAPI:
		timeout := cfg.Timeout
		if timeout <= 0 {
			const defaultTimeout = 15
			timeout = defaultTimeout * time.Second
		}
		return NewIPLocator(&http.Client{Timeout: timeout}, cfg.BaseURL, cfg.Consent, cfg.Logger), nil
	default:
		return nil, fmt.Errorf("%w: unsupported locator type: %s", models.ErrConfiguration, cfg.Type)
	}
}
