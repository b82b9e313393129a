package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"googlemaps.github.io/maps"
)

// ProviderType represents the type of geocoding provider.
type ProviderType string

const (
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim geocoding provider.
	ProviderTypeNominatim ProviderType = "nominatim"
	// ProviderTypeVisicom represents Visicom Maps geocoding provider.
	ProviderTypeVisicom ProviderType = "visicom"
	// ProviderTypeStatic answers every coordinate with a configured address.
	ProviderTypeStatic ProviderType = "static"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType // Type of provider to create
	APIKey    string       // API key (used by Google and Visicom providers)
	RateLimit int          // Rate limit for requests per second
	Language  string       // Preferred language of returned names
	Region    string       // Region answered by the static provider
	SubRegion string       // Sub-region answered by the static provider
	Logger    *slog.Logger // Logger for the provider
}

// NewProvider creates a geocoding provider based on the provided configuration.
//
// Supported provider types:
// - "google": Google Maps Geocoding API (requires API key)
// - "nominatim": OpenStreetMap Nominatim API (free, no API key required)
// - "visicom": Visicom data API (requires API key)
// - "static": fixed address from configuration
//
// Returns an error wrapping models.ErrConfiguration if the provider type is
// unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return newNominatimProvider(config)
	case ProviderTypeVisicom:
		return newVisicomProvider(config)
	case ProviderTypeStatic:
		return newStaticProvider(config)
	default:
		return nil, fmt.Errorf("%w: unsupported provider type: %s", models.ErrConfiguration, config.Type)
	}
}

// newGoogleProvider creates a Google Maps geocoding provider.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, errors.New("API key is required for Google provider"))
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}

	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Language, config.Logger), nil
}

// newNominatimProvider creates a Nominatim geocoding provider.
func newNominatimProvider(config ProviderConfig) (Provider, error) {
	return NewNominatimProvider(config.Language, config.Logger), nil
}

// newVisicomProvider creates a Visicom geocoding provider.
func newVisicomProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: %w", models.ErrConfiguration, errors.New("API key is required for Visicom provider"))
	}

	if config.RateLimit == 0 {
		config.RateLimit = 5
		config.Logger.Warn("Rate limit for Visicom API not set, set a default value", "value", config.RateLimit)
	}

	return NewVisicomProvider(config.APIKey, config.RateLimit, config.Logger), nil
}

// newStaticProvider creates a provider answering with the configured address.
func newStaticProvider(config ProviderConfig) (Provider, error) {
	if config.Region == "" || config.SubRegion == "" {
		return nil, fmt.Errorf("%w: region and sub-region are required for static provider", models.ErrConfiguration)
	}

	return NewStaticProvider(models.Address{Region: config.Region, SubRegion: config.SubRegion}, config.Logger), nil
}
