package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Activity log policies for appends that follow a successful mutation
const (
	ActivityLogBestEffort = "best_effort"
	ActivityLogRetry      = "retry"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	LogFormat          string
	DatabaseURL        string
	DBMaxOpenConns     int
	RedisURL           string
	JWTSecret          string
	AppPassword        string
	AdminPasscode      string
	SessionTTL         time.Duration
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	OTLPEndpoint       string

	Places PlacesConfig

	MemberCacheTTL    time.Duration
	ActivityLogPolicy string

	NotificationRetentionDays int

	ObjectStore ObjectStoreConfig
}

// PlacesConfig configures the external place provider
type PlacesConfig struct {
	APIKey      string
	BaseURL     string
	PageDelay   time.Duration
	MaxPagesCap int
	HTTPTimeout time.Duration
	GeocodeTTL  time.Duration
}

// ObjectStoreConfig configures the export archive. An empty Endpoint disables it.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxOpen, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	sessionHours, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "168"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_HOURS: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	pageDelayMS, err := strconv.Atoi(getEnv("PLACES_PAGE_DELAY_MS", "2000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLACES_PAGE_DELAY_MS: %w", err)
	}

	maxPagesCap, err := strconv.Atoi(getEnv("PLACES_MAX_PAGES_CAP", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLACES_MAX_PAGES_CAP: %w", err)
	}
	if maxPagesCap < 1 {
		return nil, fmt.Errorf("invalid PLACES_MAX_PAGES_CAP: must be at least 1")
	}

	httpTimeout, err := strconv.Atoi(getEnv("PLACES_HTTP_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLACES_HTTP_TIMEOUT_SECONDS: %w", err)
	}

	geocodeTTL, err := strconv.Atoi(getEnv("GEOCODE_CACHE_TTL_MINUTES", "1440"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODE_CACHE_TTL_MINUTES: %w", err)
	}

	memberTTL, err := strconv.Atoi(getEnv("MEMBER_CACHE_TTL_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid MEMBER_CACHE_TTL_SECONDS: %w", err)
	}

	retentionDays, err := strconv.Atoi(getEnv("NOTIFICATION_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_RETENTION_DAYS: %w", err)
	}

	minioSSL, err := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
	}

	policy := strings.ToLower(getEnv("ACTIVITY_LOG_POLICY", ActivityLogBestEffort))
	if policy != ActivityLogBestEffort && policy != ActivityLogRetry {
		return nil, fmt.Errorf("invalid ACTIVITY_LOG_POLICY: %q", policy)
	}

	cfg := &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         port,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:     maxOpen,
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		AppPassword:        os.Getenv("APP_PASSWORD"),
		AdminPasscode:      os.Getenv("ADMIN_PASSCODE"),
		SessionTTL:         time.Duration(sessionHours) * time.Hour,
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitPerMinute: rateLimit,
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Places: PlacesConfig{
			APIKey:      os.Getenv("GOOGLE_MAPS_API_KEY"),
			BaseURL:     getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api"),
			PageDelay:   time.Duration(pageDelayMS) * time.Millisecond,
			MaxPagesCap: maxPagesCap,
			HTTPTimeout: time.Duration(httpTimeout) * time.Second,
			GeocodeTTL:  time.Duration(geocodeTTL) * time.Minute,
		},
		MemberCacheTTL:            time.Duration(memberTTL) * time.Second,
		ActivityLogPolicy:         policy,
		NotificationRetentionDays: retentionDays,
		ObjectStore: ObjectStoreConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "outreach-exports"),
			UseSSL:    minioSSL,
		},
	}

	if cfg.Environment == "production" && cfg.JWTSecret == "dev-secret-change-me" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
