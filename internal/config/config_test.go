package config_test

import (
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/pharmacy-locator/internal/config"
	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MustLoadDefaults(t *testing.T) {
	t.Setenv("PHARMACY_REGISTRY_SERVICE_KEY", "testServiceKey")

	cfg := config.MustLoad()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, 30*time.Second, cfg.LookupTimeout)
	assert.Equal(t, "testServiceKey", cfg.Registry.ServiceKey)
	assert.Equal(t, 70, cfg.Registry.MaxRows)
	assert.InDelta(t, 5, cfg.Registry.RateLimit, 0)
	assert.Equal(t, "static", cfg.Location.Type)
	assert.True(t, cfg.Location.Consent)
	assert.Equal(t, 15*time.Second, cfg.Location.Timeout)
	assert.Equal(t, "static", cfg.Geocoder.Type)
	assert.Equal(t, "관악구", cfg.Geocoder.SubRegion)
	assert.Equal(t, 10*time.Minute, cfg.Geocoder.CacheTTL)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.False(t, cfg.Database.Enabled())
	require.NoError(t, cfg.Validate())
}

func Test_MustLoadFromEnv(t *testing.T) {
	t.Setenv("PHARMACY_ENV", "local")
	t.Setenv("PHARMACY_PORT", "9090")
	t.Setenv("PHARMACY_LOOKUP_TIMEOUT", "5s")
	t.Setenv("PHARMACY_LOCATION_TYPE", "ipapi")
	t.Setenv("PHARMACY_LOCATION_CONSENT", "false")
	t.Setenv("PHARMACY_LOCATION_TIMEOUT", "3s")
	t.Setenv("PHARMACY_GEOCODER_TYPE", "google")
	t.Setenv("PHARMACY_GEOCODER_API_KEY", "testAPIKey")
	t.Setenv("PHARMACY_DB_HOST", "testHost")
	t.Setenv("PHARMACY_DB_PORT", "12345")
	t.Setenv("PHARMACY_DB_USER", "admin")
	t.Setenv("PHARMACY_DB_PASSWORD", "adminpass")
	t.Setenv("PHARMACY_DB_NAME", "testName")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.LookupTimeout)
	assert.Equal(t, "ipapi", cfg.Location.Type)
	assert.False(t, cfg.Location.Consent)
	assert.Equal(t, 3*time.Second, cfg.Location.Timeout)
	assert.Equal(t, "google", cfg.Geocoder.Type)
	assert.Equal(t, "testAPIKey", cfg.Geocoder.APIKey)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "testHost", cfg.Database.Host)
	assert.Equal(t, "12345", cfg.Database.Port)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.Equal(t, "adminpass", cfg.Database.Password)
	assert.Equal(t, "testName", cfg.Database.Name)
}

func Test_MustLoadFromFile(t *testing.T) {
	defer filet.CleanUp(t)
	file := filet.TmpFile(t, "", `
env: development
port: 8181
registry:
  service_key: fileServiceKey
  rows: 30
  rate: 2.5
geocoder:
  region: 부산광역시
  sub_region: 해운대구
`)
	t.Setenv("PHARMACY_CONFIG_FILE", file.Name())
	t.Setenv("PHARMACY_PORT", "8282")

	cfg := config.MustLoad()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8282, cfg.Port)
	assert.Equal(t, "fileServiceKey", cfg.Registry.ServiceKey)
	assert.Equal(t, 30, cfg.Registry.MaxRows)
	assert.InDelta(t, 2.5, cfg.Registry.RateLimit, 0)
	assert.Equal(t, "부산광역시", cfg.Geocoder.Region)
	assert.Equal(t, "해운대구", cfg.Geocoder.SubRegion)
}

func TestMustLoad_FileError(t *testing.T) {
	t.Setenv("PHARMACY_CONFIG_FILE", "/nonexistent/pharmacy.yaml")

	assert.PanicsWithValue(t, "failed to read configuration file", func() {
		config.MustLoad()
	})
}

func TestMustLoad_PortError(t *testing.T) {
	t.Setenv("PHARMACY_PORT", "error_value")

	assert.PanicsWithValue(t, "failed to parse port from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_TimeoutError(t *testing.T) {
	t.Setenv("PHARMACY_LOOKUP_TIMEOUT", "error_value")

	assert.PanicsWithValue(t, "failed to parse lookup timeout from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_RowsError(t *testing.T) {
	t.Setenv("PHARMACY_REGISTRY_ROWS", "seventy")

	assert.PanicsWithValue(t, "failed to parse registry rows, must be an integer", func() {
		config.MustLoad()
	})
}

func TestMustLoad_ConsentError(t *testing.T) {
	t.Setenv("PHARMACY_LOCATION_CONSENT", "maybe")

	assert.PanicsWithValue(t, "failed to parse location consent, must be a boolean", func() {
		config.MustLoad()
	})
}

func TestMustLoad_LocationTimeoutError(t *testing.T) {
	t.Setenv("PHARMACY_LOCATION_TIMEOUT", "soon")

	assert.PanicsWithValue(t, "failed to parse location timeout", func() {
		config.MustLoad()
	})
}

func TestValidate(t *testing.T) {
	valid := config.Config{
		Timezone:      "Asia/Seoul",
		LookupTimeout: time.Second,
		Registry:      config.RegistryConfig{ServiceKey: "key", MaxRows: 70},
	}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{name: "missing service key", mutate: func(c *config.Config) { c.Registry.ServiceKey = "" }},
		{name: "zero rows", mutate: func(c *config.Config) { c.Registry.MaxRows = 0 }},
		{name: "zero timeout", mutate: func(c *config.Config) { c.LookupTimeout = 0 }},
		{name: "unknown timezone", mutate: func(c *config.Config) { c.Timezone = "Mars/Olympus" }},
	}

	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			require.ErrorIs(t, cfg.Validate(), models.ErrConfiguration)
		})
	}
}
