package geocoding

import (
	"context"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// Provider is an interface that defines a method for reverse geocoding a coordinate.
// ReverseGeocode returns the province and district the coordinate lies in, or an
// error wrapping models.ErrGeocodeFailure when the provider fails or finds no match.
type Provider interface {
	ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.Address, error)
}
