package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"golang.org/x/time/rate"
)

// VisicomBaseURL -- Visicom API base URL.
const VisicomBaseURL = "https://api.visicom.ua/data-api/5.0/uk/geocode.json"

// VisicomProvider implements reverse geocoding using Visicom API.
type VisicomProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Visicom API
	apiKey  string        // API key with geocoding access
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for Visicom provider.
var (
	ErrVisicomEmptyResponse = fmt.Errorf("%w: visicom API returned empty response", models.ErrGeocodeFailure)
	ErrVisicomUnathorized   = errors.New("visicom API unathorized (invalid API key)")
)

// Visicom API response (simplified for the administrative lookup).
type visicomResponse struct {
	Properties struct {
		Name   string `json:"name"`
		Level1 string `json:"level1"` // province
		Level2 string `json:"level2"` // district
	} `json:"properties"`
}

// NewVisicomProvider creates a new Visicom geocoding provider.
func NewVisicomProvider(apiKey string, rateLimit int, log *slog.Logger) *VisicomProvider {
	const timeout = 10

	return NewVisicomProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		apiKey,
		rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		log,
	)
}

// NewVisicomProviderWithClient allows injecting custom HTTP client.
func NewVisicomProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *VisicomProvider {
	return &VisicomProvider{
		client:  client,
		baseURL: VisicomBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// ReverseGeocode finds the administrative district containing coords using Visicom API.
func (vp *VisicomProvider) ReverseGeocode(
	ctx context.Context,
	coords models.Coordinates,
) (*models.Address, error) {
	if err := vp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit exceeded: %w", models.ErrGeocodeFailure, err)
	}

	vp.log.DebugContext(ctx, "Reverse geocoding using Visicom", "lat", coords.Latitude, "lon", coords.Longitude)

	reqURL, err := url.Parse(vp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse base URL: %w", models.ErrGeocodeFailure, err)
	}

	query := reqURL.Query()
	query.Set("near", strconv.FormatFloat(coords.Longitude, 'f', -1, 64)+","+
		strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("categories", "adm_district")
	query.Set("limit", "1")
	query.Set("key", vp.apiKey)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", models.ErrGeocodeFailure, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := vp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute geocoding request: %w", models.ErrGeocodeFailure, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, models.Wrap(models.ErrGeocodeFailure, ErrVisicomUnathorized)
	default:
		body, _ := io.ReadAll(resp.Body)
		vp.log.ErrorContext(ctx, "Visicom API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: visicom API returned status %d: %s",
			models.ErrGeocodeFailure, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", models.ErrGeocodeFailure, err)
	}

	vp.log.DebugContext(ctx, "Visicom raw response", "body", string(body))

	var result visicomResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode visicom response: %w", models.ErrGeocodeFailure, err)
	}

	props := result.Properties
	subRegion := props.Level2
	if subRegion == "" {
		subRegion = props.Name
	}
	if props.Level1 == "" || subRegion == "" {
		return nil, ErrVisicomEmptyResponse
	}

	vp.log.InfoContext(ctx, "Visicom found result", "region", props.Level1, "sub_region", subRegion)

	return &models.Address{Region: props.Level1, SubRegion: subRegion}, nil
}
