package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// NominatimBaseURL is the public Nominatim reverse geocoding endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/reverse"

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client   HTTPClient   // HTTP client for making requests
	baseURL  string       // Base URL for the Nominatim API
	language string       // Preferred language of returned names
	log      *slog.Logger // Logger for logging operations
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimResponse represents the JSON response from the Nominatim reverse API.
type nominatimResponse struct {
	Error   string            `json:"error"`
	Address map[string]string `json:"address"`
}

// Address detail keys, most specific first for districts.
var (
	nominatimRegionKeys    = []string{"state", "province", "city"}
	nominatimSubRegionKeys = []string{"borough", "city_district", "county", "district", "city", "town", "village"}
)

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = fmt.Errorf("%w: nominatim API returned empty response", models.ErrGeocodeFailure)
)

const nominatimUserAgent = "Pharmacy-Locator/1.0 (https://github.com/UnknownOlympus/pharmacy-locator)"

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(language string, log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return NewNominatimProviderWithClient(&http.Client{Timeout: timeout * time.Second}, language, log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, language string, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:   client,
		baseURL:  NominatimBaseURL,
		language: language,
		log:      log,
		// User-Agent MUST include valid contact info per Nominatim usage policy:
		// https://operations.osmfoundation.org/policies/nominatim/
		userAgent: nominatimUserAgent,
	}
}

// ReverseGeocode converts a coordinate to a province and district using the Nominatim API.
// It respects Nominatim's usage policy by including a User-Agent header.
func (np *NominatimProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.Address, error) {
	np.log.DebugContext(ctx, "Reverse geocoding using Nominatim", "lat", coords.Latitude, "lon", coords.Longitude)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse base URL: %w", models.ErrGeocodeFailure, err)
	}

	query := reqURL.Query()
	query.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	query.Set("format", "json")
	query.Set("zoom", "14")          // Suburb level keeps every administrative parent
	query.Set("addressdetails", "1") // Include detailed address breakdown
	if np.language != "" {
		query.Set("accept-language", np.language)
	}
	reqURL.RawQuery = query.Encode()

	np.log.DebugContext(ctx, "Nominatim request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", models.ErrGeocodeFailure, err)
	}

	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute geocoding request: %w", models.ErrGeocodeFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: nominatim API returned status %d: %s",
			models.ErrGeocodeFailure, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", models.ErrGeocodeFailure, err)
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	var result nominatimResponse
	if err = json.Unmarshal(body, &result); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("%w: failed to decode nominatim response: %w", models.ErrGeocodeFailure, err)
	}

	if result.Error != "" || len(result.Address) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	region := firstValue(result.Address, nominatimRegionKeys, "")
	subRegion := firstValue(result.Address, nominatimSubRegionKeys, region)
	if region == "" || subRegion == "" {
		np.log.WarnContext(ctx, "Nominatim address lacks administrative areas", "address", result.Address)
		return nil, fmt.Errorf("%w: no administrative area in nominatim response", models.ErrGeocodeFailure)
	}

	return &models.Address{Region: region, SubRegion: subRegion}, nil
}

// firstValue returns the first non-empty value among keys that differs from skip.
func firstValue(details map[string]string, keys []string, skip string) string {
	for _, key := range keys {
		if value := details[key]; value != "" && value != skip {
			return value
		}
	}
	return ""
}
