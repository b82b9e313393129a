package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the registry service root on the public data portal.
	DefaultBaseURL = "http://apis.data.go.kr/B552657/ErmctInsttInfoInqireService"
	// PharmacyListPath is the pharmacy list operation.
	PharmacyListPath = "/getParmacyListInfoInqire"
	// DefaultMaxRows caps the single page that is requested.
	DefaultMaxRows = 70
)

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Query selects the pharmacies of one district for one day.
type Query struct {
	Region    string         // Q0, province level
	SubRegion string         // Q1, district level
	Day       models.DayCode // QT
	MaxRows   int            // numOfRows, DefaultMaxRows when zero
}

// ClientConfig holds configuration for creating a registry client.
type ClientConfig struct {
	BaseURL    string        // BaseURL defaults to DefaultBaseURL
	ServiceKey string        // ServiceKey is the data portal credential
	RateLimit  float64       // RateLimit in requests per second, unlimited when zero
	Timeout    time.Duration // Timeout of a single HTTP request
	Logger     *slog.Logger
}

// Client fetches and parses registry pages.
type Client struct {
	client     HTTPClient
	baseURL    string
	serviceKey string
	limiter    *rate.Limiter
	log        *slog.Logger
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("registry returned status %d: %s", e.Code, e.Body)
}

// NewClient creates a registry client with its own http.Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		const defaultTimeout = 15
		timeout = defaultTimeout * time.Second
	}
	return NewClientWithHTTP(&http.Client{Timeout: timeout}, cfg)
}

// NewClientWithHTTP creates a registry client on top of an injected HTTP client.
// A missing service key is reported as models.ErrConfiguration.
func NewClientWithHTTP(httpClient HTTPClient, cfg ClientConfig) (*Client, error) {
	key := strings.TrimSpace(cfg.ServiceKey)
	if key == "" {
		return nil, fmt.Errorf("%w: registry service key is not set", models.ErrConfiguration)
	}
	// The portal hands out both a raw and a URL-encoded key; keep the raw one so
	// it is encoded exactly once.
	if decoded, err := url.QueryUnescape(key); err == nil {
		key = decoded
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := rate.Inf
	burst := 0
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	return &Client{
		client:     httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: key,
		limiter:    rate.NewLimiter(limit, burst),
		log:        cfg.Logger,
	}, nil
}

// FetchRegistry requests the first page of pharmacies for the query and parses it.
// Transport failures and non-2xx answers wrap models.ErrNetwork, undecodable
// payloads wrap models.ErrMalformedResponse and a non-success result code is
// returned as *models.RegistryError.
func (c *Client) FetchRegistry(ctx context.Context, query Query) (*Envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.Wrap(models.ErrNetwork, err)
	}

	reqURL, err := url.Parse(c.baseURL + PharmacyListPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse base URL: %w", models.ErrConfiguration, err)
	}

	maxRows := query.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	params := reqURL.Query()
	params.Set("serviceKey", c.serviceKey)
	params.Set("Q0", query.Region)
	params.Set("Q1", query.SubRegion)
	params.Set("QT", query.Day.String())
	params.Set("numOfRows", strconv.Itoa(maxRows))
	params.Set("pageNo", "1")
	params.Set("_type", "json")
	reqURL.RawQuery = params.Encode()

	c.log.DebugContext(ctx, "Registry request", "region", query.Region, "sub_region", query.SubRegion,
		"day", query.Day, "rows", maxRows)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute registry request: %w", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", models.ErrNetwork, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.ErrorContext(ctx, "Registry API error", "status", resp.StatusCode, "body", string(body))
		return nil, models.Wrap(models.ErrNetwork, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(body)),
		})
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '<' {
		// Gateway-level failures such as an unregistered key come back as XML.
		return nil, fmt.Errorf("%w: registry answered with XML: %s", models.ErrMalformedResponse, snippet(trimmed))
	}

	env, err := ParseEnvelope(body)
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to parse registry response", "error", err, "body", snippet(body))
		return nil, err
	}

	if err = env.Err(); err != nil {
		c.log.WarnContext(ctx, "Registry returned an error result",
			"code", env.Header.ResultCode, "message", env.Header.ResultMsg)
		return nil, err
	}

	c.log.DebugContext(ctx, "Registry response received", "code", env.Header.ResultCode,
		"total_count", env.Body.TotalCount)

	return env, nil
}

func snippet(body []byte) string {
	const maxLen = 200
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
