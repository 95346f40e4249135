package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port         string
	ReleaseMode  bool
	AllowOrigins []string
	JWTSecret    string
	TokenTTL     time.Duration

	// GoogleClientID is the OAuth client that Google ID tokens must be
	// issued to.
	GoogleClientID string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBLogLevel string

	// Redis (OTP store, geocode cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// OTP
	OTPTTL           time.Duration
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	// Geocoding
	GeoIPPath          string
	BigDataCloudURL    string
	NominatimURL       string
	GeocodeUserAgent   string
	GeocodeTimeout     time.Duration
	GeocodeCacheTTL    time.Duration
	GeocodeConcurrency int

	// Browse client
	APIBaseURL      string
	RefreshInterval time.Duration
	RefreshMinGap   time.Duration
	ResumeGap       time.Duration
	SelectionFile   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		ReleaseMode:  getEnvAsBool("RELEASE_MODE", false),
		AllowOrigins: getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"*"}),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		TokenTTL:     getEnvAsDuration("TOKEN_TTL", 72*time.Hour),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "votehubph"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBLogLevel: getEnv("DB_LOG_LEVEL", "warn"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		OTPTTL:           getEnvAsDuration("OTP_TTL", 10*time.Minute),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getEnv("TWILIO_FROM", ""),

		GeoIPPath:          getEnv("GEOIP_DB_PATH", ""),
		BigDataCloudURL:    getEnv("BIGDATACLOUD_URL", "https://api.bigdatacloud.net/data/reverse-geocode-client"),
		NominatimURL:       getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org/reverse"),
		GeocodeUserAgent:   getEnv("GEOCODE_USER_AGENT", "VoteHubPH/1.0"),
		GeocodeTimeout:     getEnvAsDuration("GEOCODE_TIMEOUT", 5*time.Second),
		GeocodeCacheTTL:    getEnvAsDuration("GEOCODE_CACHE_TTL", time.Hour),
		GeocodeConcurrency: getEnvAsInt("GEOCODE_CONCURRENCY", 4),

		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8080"),
		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", 60*time.Second),
		RefreshMinGap:   getEnvAsDuration("REFRESH_MIN_GAP", 10*time.Second),
		ResumeGap:       getEnvAsDuration("REFRESH_RESUME_GAP", 5*time.Second),
		SelectionFile:   getEnv("SELECTION_FILE", "browse_selection.json"),
	}

	if cfg.RefreshMinGap > cfg.RefreshInterval {
		return nil, fmt.Errorf("REFRESH_MIN_GAP (%s) must not exceed REFRESH_INTERVAL (%s)", cfg.RefreshMinGap, cfg.RefreshInterval)
	}

	return cfg, nil
}

// DSN builds the postgres connection string in the form gorm's driver expects.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
