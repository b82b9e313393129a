package geocoding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes.
type GoogleProvider struct {
	client   GoogleAPIClient // client is the Google Maps API client
	language string          // language of the returned component names
	log      *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = fmt.Errorf("%w: get empty response from Google Maps API", models.ErrGeocodeFailure)

// Component types are tried in order; the first match wins.
var (
	googleRegionTypes    = []string{"administrative_area_level_1"}
	googleSubRegionTypes = []string{"sublocality_level_1", "administrative_area_level_2", "locality"}
)

// NewGoogleProvider creates a Google provider on top of an existing Maps client.
func NewGoogleProvider(client GoogleAPIClient, language string, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, language: language, log: log}
}

// ReverseGeocode resolves the coordinate with the Google Maps Geocoding API and
// picks the province and district out of the returned address components.
func (gp *GoogleProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.Address, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", coords.Latitude, "lon", coords.Longitude)

	req := maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: coords.Latitude, Lng: coords.Longitude},
		Language: gp.language,
	}
	results, err := gp.client.ReverseGeocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to reverse geocode: %w", models.ErrGeocodeFailure, err)
	}

	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}

	address := models.Address{
		Region:    findComponent(results, googleRegionTypes),
		SubRegion: findComponent(results, googleSubRegionTypes),
	}
	if address.Region == "" || address.SubRegion == "" {
		gp.log.WarnContext(ctx, "Google Maps result lacks administrative areas",
			"region", address.Region, "sub_region", address.SubRegion)
		return nil, fmt.Errorf("%w: no administrative area in Google Maps response", models.ErrGeocodeFailure)
	}

	return &address, nil
}

func findComponent(results []maps.GeocodingResult, types []string) string {
	for _, want := range types {
		for _, result := range results {
			for _, component := range result.AddressComponents {
				for _, typ := range component.Types {
					if typ == want {
						return component.LongName
					}
				}
			}
		}
	}
	return ""
}
