package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// IPAPIBaseURL is the public ip-api.com JSON endpoint.
const IPAPIBaseURL = "http://ip-api.com/json/"

// IPLocator approximates the device position from its public IP address.
type IPLocator struct {
	client  HTTPClient
	baseURL string
	consent bool
	granted atomic.Bool
	log     *slog.Logger
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// NewIPLocator creates an ip-api.com locator. An empty baseURL selects IPAPIBaseURL.
func NewIPLocator(client HTTPClient, baseURL string, consent bool, log *slog.Logger) *IPLocator {
	if baseURL == "" {
		baseURL = IPAPIBaseURL
	}
	return &IPLocator{client: client, baseURL: baseURL, consent: consent, log: log}
}

// RequestPermission records the configured consent as the permission answer.
func (il *IPLocator) RequestPermission(ctx context.Context) bool {
	il.granted.Store(il.consent)
	il.log.DebugContext(ctx, "Location permission requested", "granted", il.consent)

	return il.consent
}

// CurrentCoordinates performs a single ip-api.com lookup.
func (il *IPLocator) CurrentCoordinates(ctx context.Context) (*models.Coordinates, error) {
	if !il.granted.Load() {
		return nil, models.ErrPermissionDenied
	}

	reqURL, err := url.Parse(il.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse base URL: %w", models.ErrConfiguration, err)
	}
	query := reqURL.Query()
	query.Set("fields", "status,message,lat,lon")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, models.Wrap(models.ErrLocationUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := il.client.Do(req)
	if err != nil {
		il.log.ErrorContext(ctx, "IP geolocation request failed", "error", err)
		return nil, models.Wrap(models.ErrLocationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ip-api returned status %d: %s",
			models.ErrLocationUnavailable, resp.StatusCode, string(body))
	}

	var decoded ipAPIResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode ip-api response: %w", models.ErrLocationUnavailable, err)
	}

	if decoded.Status != "success" {
		return nil, fmt.Errorf("%w: ip-api lookup failed: %s", models.ErrLocationUnavailable, decoded.Message)
	}

	il.log.DebugContext(ctx, "IP geolocation resolved", "lat", decoded.Lat, "lon", decoded.Lon)

	return &models.Coordinates{Latitude: decoded.Lat, Longitude: decoded.Lon}, nil
}
