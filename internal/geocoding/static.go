package geocoding

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// StaticProvider answers every coordinate with the same address. It is meant for
// offline development and for deployments pinned to one district.
type StaticProvider struct {
	address models.Address
	log     *slog.Logger
}

// NewStaticProvider creates a provider that always returns address.
func NewStaticProvider(address models.Address, log *slog.Logger) *StaticProvider {
	return &StaticProvider{address: address, log: log}
}

// ReverseGeocode returns the configured address.
func (sp *StaticProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.Address, error) {
	sp.log.DebugContext(ctx, "Using static address", "lat", coords.Latitude, "lon", coords.Longitude,
		"region", sp.address.Region, "sub_region", sp.address.SubRegion)

	address := sp.address
	return &address, nil
}
