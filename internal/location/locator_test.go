package location_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/pharmacy-locator/internal/location"
	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestStaticLocator(t *testing.T) {
	ctx := t.Context()
	coords := models.Coordinates{Latitude: 37.4784, Longitude: 126.9516}

	t.Run("permission granted", func(t *testing.T) {
		locator := location.NewStaticLocator(coords, true, slog.Default())

		require.True(t, locator.RequestPermission(ctx))
		got, err := locator.CurrentCoordinates(ctx)

		require.NoError(t, err)
		assert.Equal(t, coords, *got)
	})

	t.Run("permission denied", func(t *testing.T) {
		locator := location.NewStaticLocator(coords, false, slog.Default())

		require.False(t, locator.RequestPermission(ctx))
		got, err := locator.CurrentCoordinates(ctx)

		require.ErrorIs(t, err, models.ErrPermissionDenied)
		assert.Nil(t, got)
	})

	t.Run("permission never requested", func(t *testing.T) {
		locator := location.NewStaticLocator(coords, true, slog.Default())

		_, err := locator.CurrentCoordinates(ctx)

		require.ErrorIs(t, err, models.ErrPermissionDenied)
	})

	t.Run("cancelled context", func(t *testing.T) {
		locator := location.NewStaticLocator(coords, true, slog.Default())
		locator.RequestPermission(ctx)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := locator.CurrentCoordinates(cctx)

		require.ErrorIs(t, err, models.ErrLocationUnavailable)
	})
}

func TestIPLocator(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()

	t.Run("successful lookup", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), "ip-api.com/json")
				assert.Equal(t, "status,message,lat,lon", req.URL.Query().Get("fields"))
				return okResponse(`{"status":"success","lat":37.5665,"lon":126.978}`), nil
			},
		}
		locator := location.NewIPLocator(client, "", true, logger)
		locator.RequestPermission(ctx)

		coords, err := locator.CurrentCoordinates(ctx)

		require.NoError(t, err)
		assert.InEpsilon(t, 37.5665, coords.Latitude, 0.0001)
		assert.InEpsilon(t, 126.978, coords.Longitude, 0.0001)
	})

	t.Run("denied without request", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("no request expected")
				return nil, assert.AnError
			},
		}
		locator := location.NewIPLocator(client, "", false, logger)
		locator.RequestPermission(ctx)

		_, err := locator.CurrentCoordinates(ctx)

		require.ErrorIs(t, err, models.ErrPermissionDenied)
	})

	t.Run("transport error", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}
		locator := location.NewIPLocator(client, "", true, logger)
		locator.RequestPermission(ctx)

		_, err := locator.CurrentCoordinates(ctx)

		require.ErrorIs(t, err, models.ErrLocationUnavailable)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("lookup failure status", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return okResponse(`{"status":"fail","message":"private range"}`), nil
			},
		}
		locator := location.NewIPLocator(client, "", true, logger)
		locator.RequestPermission(ctx)

		_, err := locator.CurrentCoordinates(ctx)

		require.ErrorIs(t, err, models.ErrLocationUnavailable)
		assert.Contains(t, err.Error(), "private range")
	})

	t.Run("http error status", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusTooManyRequests,
					Body:       io.NopCloser(bytes.NewBufferString("slow down")),
				}, nil
			},
		}
		locator := location.NewIPLocator(client, "", true, logger)
		locator.RequestPermission(ctx)

		_, err := locator.CurrentCoordinates(ctx)

		require.ErrorIs(t, err, models.ErrLocationUnavailable)
		assert.Contains(t, err.Error(), "status 429")
	})
}

func TestNewLocator(t *testing.T) {
	logger := slog.Default()

	t.Run("static", func(t *testing.T) {
		locator, err := location.NewLocator(location.Config{Type: location.LocatorTypeStatic, Logger: logger})

		require.NoError(t, err)
		_, ok := locator.(*location.StaticLocator)
		assert.True(t, ok, "expected *StaticLocator")
	})

	t.Run("ipapi", func(t *testing.T) {
		locator, err := location.NewLocator(location.Config{Type: location.LocatorTypeIPAPI, Logger: logger})

		require.NoError(t, err)
		_, ok := locator.(*location.IPLocator)
		assert.True(t, ok, "expected *IPLocator")
	})

	t.Run("unsupported", func(t *testing.T) {
		locator, err := location.NewLocator(location.Config{Type: "gps", Logger: logger})

		require.ErrorIs(t, err, models.ErrConfiguration)
		assert.Nil(t, locator)
		assert.Contains(t, err.Error(), "unsupported locator type: gps")
	})
}
