package config

import (
	"errors"
	"fmt"
	"io/fs"
	"nav-assistant-service/internal/domain"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port      string `toml:"port"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	UserAgent string `toml:"user_agent"`

	Geocoder         string `toml:"geocoder"` // nominatim | google
	NominatimURL     string `toml:"nominatim_url"`
	GoogleMapsAPIKey string `toml:"google_maps_api_key"`
	OSRMURL          string `toml:"osrm_url"`
	OSRMProfile      string `toml:"osrm_profile"`

	GeocodeCache    string        `toml:"geocode_cache"` // none | sqlite | postgres | redis
	DBPath          string        `toml:"db_path"`
	DatabaseURL     string        `toml:"database_url"`
	RedisURL        string        `toml:"redis_url"`
	GeocodeCacheTTL time.Duration `toml:"-"`
	SeedPath        string        `toml:"seed_path"`

	Locale                   string             `toml:"locale"`
	SpeechLang               string             `toml:"speech_lang"`
	DeviationThresholdMeters float64            `toml:"deviation_threshold_meters"`
	FollowZoom               int                `toml:"follow_zoom"`
	GeocodeTimeout           time.Duration      `toml:"-"`
	RouteTimeout             time.Duration      `toml:"-"`
	FixedDestination         *domain.Coordinate `toml:"-"`
	SessionIdleTimeout       time.Duration      `toml:"-"`
}

// Durations and the destination are read as strings from the file.
type fileConfig struct {
	Config
	GeocodeCacheTTL    string `toml:"geocode_cache_ttl"`
	GeocodeTimeout     string `toml:"geocode_timeout"`
	RouteTimeout       string `toml:"route_timeout"`
	Destination        string `toml:"destination"`
	SessionIdleTimeout string `toml:"session_idle_timeout"`
}

func Defaults() Config {
	return Config{
		Port:                     "8080",
		LogLevel:                 "info",
		LogFormat:                "text",
		UserAgent:                "nav-assistant-service/1.0",
		Geocoder:                 "nominatim",
		NominatimURL:             "https://nominatim.openstreetmap.org",
		OSRMURL:                  "https://router.project-osrm.org",
		OSRMProfile:              "driving",
		GeocodeCache:             "sqlite",
		DBPath:                   "data/nav.db",
		GeocodeCacheTTL:          30 * 24 * time.Hour,
		Locale:                   "cs-CZ",
		SpeechLang:               "cs-CZ",
		DeviationThresholdMeters: 50,
		FollowZoom:               15,
		GeocodeTimeout:           10 * time.Second,
		RouteTimeout:             10 * time.Second,
		SessionIdleTimeout:       30 * time.Minute,
	}
}

// Load resolves configuration from defaults, an optional .env file, an
// optional TOML file named by NAV_CONFIG_FILE, and finally the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load config: read .env: %w", err)
	}

	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("NAV_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Geocoder {
	case "nominatim":
		if c.NominatimURL == "" {
			return errors.New("config: NOMINATIM_URL is required")
		}
	case "google":
		if c.GoogleMapsAPIKey == "" {
			return errors.New("config: GOOGLE_MAPS_API_KEY is required when GEOCODER=google")
		}
	default:
		return fmt.Errorf("config: unknown GEOCODER %q", c.Geocoder)
	}

	switch c.GeocodeCache {
	case "none", "":
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("config: DB_PATH is required when GEOCODE_CACHE=sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when GEOCODE_CACHE=postgres")
		}
	case "redis":
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL is required when GEOCODE_CACHE=redis")
		}
	default:
		return fmt.Errorf("config: unknown GEOCODE_CACHE %q", c.GeocodeCache)
	}

	if c.OSRMURL == "" {
		return errors.New("config: OSRM_URL is required")
	}
	if c.DeviationThresholdMeters <= 0 {
		return fmt.Errorf("config: DEVIATION_THRESHOLD_METERS must be positive, got %v", c.DeviationThresholdMeters)
	}
	if c.GeocodeTimeout <= 0 || c.RouteTimeout <= 0 {
		return errors.New("config: request timeouts must be positive")
	}

	return nil
}

func applyFile(cfg *Config, path string) error {
	fc := fileConfig{Config: *cfg}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("load config: decode %q: %w", path, err)
	}
	*cfg = fc.Config

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"geocode_cache_ttl", fc.GeocodeCacheTTL, &cfg.GeocodeCacheTTL},
		{"geocode_timeout", fc.GeocodeTimeout, &cfg.GeocodeTimeout},
		{"route_timeout", fc.RouteTimeout, &cfg.RouteTimeout},
		{"session_idle_timeout", fc.SessionIdleTimeout, &cfg.SessionIdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("load config: %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if fc.Destination != "" {
		dest, err := domain.ParseCoordinate(fc.Destination)
		if err != nil {
			return fmt.Errorf("load config: destination: %w", err)
		}
		cfg.FixedDestination = &dest
	}

	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"PORT":                &cfg.Port,
		"LOG_LEVEL":           &cfg.LogLevel,
		"LOG_FORMAT":          &cfg.LogFormat,
		"HTTP_USER_AGENT":     &cfg.UserAgent,
		"GEOCODER":            &cfg.Geocoder,
		"NOMINATIM_URL":       &cfg.NominatimURL,
		"GOOGLE_MAPS_API_KEY": &cfg.GoogleMapsAPIKey,
		"OSRM_URL":            &cfg.OSRMURL,
		"OSRM_PROFILE":        &cfg.OSRMProfile,
		"GEOCODE_CACHE":       &cfg.GeocodeCache,
		"DB_PATH":             &cfg.DBPath,
		"DATABASE_URL":        &cfg.DatabaseURL,
		"REDIS_URL":           &cfg.RedisURL,
		"SEED_PATH":           &cfg.SeedPath,
		"NAV_LOCALE":          &cfg.Locale,
		"SPEECH_LANG":         &cfg.SpeechLang,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"GEOCODE_CACHE_TTL":    &cfg.GeocodeCacheTTL,
		"GEOCODE_TIMEOUT":      &cfg.GeocodeTimeout,
		"ROUTE_TIMEOUT":        &cfg.RouteTimeout,
		"SESSION_IDLE_TIMEOUT": &cfg.SessionIdleTimeout,
	}
	for key, dst := range durations {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("load config: %s: %w", key, err)
		}
		*dst = d
	}

	if v := strings.TrimSpace(os.Getenv("DEVIATION_THRESHOLD_METERS")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("load config: DEVIATION_THRESHOLD_METERS: %w", err)
		}
		cfg.DeviationThresholdMeters = f
	}

	if v := strings.TrimSpace(os.Getenv("FOLLOW_ZOOM")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("load config: FOLLOW_ZOOM: %w", err)
		}
		cfg.FollowZoom = n
	}

	if v := strings.TrimSpace(os.Getenv("NAV_DESTINATION")); v != "" {
		dest, err := domain.ParseCoordinate(v)
		if err != nil {
			return fmt.Errorf("load config: NAV_DESTINATION: %w", err)
		}
		cfg.FixedDestination = &dest
	}

	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
