// Package config loads the service configuration from the environment, an
// optional .env file and an optional YAML file.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by MustLoad.
const EnvPrefix = "PHARMACY"

// Config holds the configuration settings for the pharmacy locator.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port of the HTTP API and monitoring server.
// - Timezone: The registry time zone used to pick the day code.
// - LookupTimeout: Upper bound for a single lookup cycle.
// - Registry: Pharmacy registry endpoint and credentials.
// - Location: Source of the device position.
// - Geocoder: Reverse geocoding provider settings.
// - Database: Optional PostgreSQL lookup journal.
type Config struct {
	Env           string
	Port          int
	Timezone      string
	LookupTimeout time.Duration
	Registry      RegistryConfig
	Location      LocationConfig
	Geocoder      GeocoderConfig
	Database      PostgresConfig
}

// RegistryConfig describes the pharmacy registry endpoint.
type RegistryConfig struct {
	BaseURL    string
	ServiceKey string // ServiceKey is the data.go.kr credential.
	MaxRows    int
	RateLimit  float64 // RateLimit is requests per second, 0 disables pacing.
	Timeout    time.Duration
}

// LocationConfig selects and configures the locator.
type LocationConfig struct {
	Type      string
	Consent   bool
	Latitude  float64
	Longitude float64
	BaseURL   string
	Timeout   time.Duration
}

// GeocoderConfig selects and configures the reverse geocoding provider.
type GeocoderConfig struct {
	Type      string
	APIKey    string
	RateLimit int
	Language  string
	Region    string
	SubRegion string
	CacheTTL  time.Duration // CacheTTL of 0 disables the in-memory cache.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// Enabled reports whether a journal database is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

var defaults = map[string]any{
	"env":                  "production",
	"port":                 "8080",
	"timezone":             "Asia/Seoul",
	"lookup_timeout":       "30s",
	"registry.base_url":    "http://apis.data.go.kr/B552657/ErmctInsttInfoInqireService",
	"registry.service_key": "",
	"registry.rows":        "70",
	"registry.rate":        "5",
	"registry.timeout":     "10s",
	"location.type":        "static",
	"location.consent":     "true",
	"location.latitude":    "37.4784",
	"location.longitude":   "126.9516",
	"location.url":         "http://ip-api.com/json/",
	"location.timeout":     "15s",
	"geocoder.type":        "static",
	"geocoder.api_key":     "",
	"geocoder.rate":        "1",
	"geocoder.language":    "ko",
	"geocoder.region":      "서울특별시",
	"geocoder.sub_region":  "관악구",
	"geocoder.cache_ttl":   "10m",
	"db.host":              "",
	"db.port":              "5432",
	"db.user":              "",
	"db.password":          "",
	"db.name":              "",
}

// MustLoad reads the configuration and panics when a value cannot be parsed.
// Environment variables use the PHARMACY_ prefix with dots replaced by
// underscores, e.g. PHARMACY_REGISTRY_SERVICE_KEY. PHARMACY_CONFIG_FILE may
// point at a YAML file with the same keys.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.BindEnv("config_file"); err != nil {
		panic("failed to bind configuration file variable")
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			panic("failed to read configuration file")
		}
	}

	return &Config{
		Env:           v.GetString("env"),
		Port:          mustInt(v, "port", "failed to parse port from configuration"),
		Timezone:      v.GetString("timezone"),
		LookupTimeout: mustDuration(v, "lookup_timeout", "failed to parse lookup timeout from configuration"),
		Registry: RegistryConfig{
			BaseURL:    v.GetString("registry.base_url"),
			ServiceKey: v.GetString("registry.service_key"),
			MaxRows:    mustInt(v, "registry.rows", "failed to parse registry rows, must be an integer"),
			RateLimit:  mustFloat(v, "registry.rate", "failed to parse registry rate limit"),
			Timeout:    mustDuration(v, "registry.timeout", "failed to parse registry timeout"),
		},
		Location: LocationConfig{
			Type:      v.GetString("location.type"),
			Consent:   mustBool(v, "location.consent", "failed to parse location consent, must be a boolean"),
			Latitude:  mustFloat(v, "location.latitude", "failed to parse static latitude"),
			Longitude: mustFloat(v, "location.longitude", "failed to parse static longitude"),
			BaseURL:   v.GetString("location.url"),
			Timeout:   mustDuration(v, "location.timeout", "failed to parse location timeout"),
		},
		Geocoder: GeocoderConfig{
			Type:      v.GetString("geocoder.type"),
			APIKey:    v.GetString("geocoder.api_key"),
			RateLimit: mustInt(v, "geocoder.rate", "failed to parse geocoder rate limit, must be an integer"),
			Language:  v.GetString("geocoder.language"),
			Region:    v.GetString("geocoder.region"),
			SubRegion: v.GetString("geocoder.sub_region"),
			CacheTTL:  mustDuration(v, "geocoder.cache_ttl", "failed to parse geocoder cache ttl"),
		},
		Database: PostgresConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
		},
	}
}

// Validate checks the values MustLoad cannot judge on its own.
func (c *Config) Validate() error {
	if c.Registry.ServiceKey == "" {
		return fmt.Errorf("%w: registry service key is required", models.ErrConfiguration)
	}
	if c.Registry.MaxRows <= 0 {
		return fmt.Errorf("%w: registry rows must be positive", models.ErrConfiguration)
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("%w: lookup timeout must be positive", models.ErrConfiguration)
	}
	if _, err := c.TimeZone(); err != nil {
		return err
	}
	return nil
}

// TimeZone loads the configured time zone.
func (c *Config) TimeZone() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timezone %q: %w", models.ErrConfiguration, c.Timezone, err)
	}
	return loc, nil
}

func mustInt(v *viper.Viper, key, msg string) int {
	value, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		panic(msg)
	}
	return value
}

func mustFloat(v *viper.Viper, key, msg string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
	if err != nil {
		panic(msg)
	}
	return value
}

func mustBool(v *viper.Viper, key, msg string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		panic(msg)
	}
	return value
}

func mustDuration(v *viper.Viper, key, msg string) time.Duration {
	value, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		panic(msg)
	}
	return value
}
