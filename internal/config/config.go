package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the application configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string
	OtelEnabled  bool

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// Free trial scan allowance per tenant. Counted against the
	// deduplicated scan ledger since tenant creation.
	FreeTrialScanLimit int
	// Window used when a tenant row is missing and no creation
	// date is available to anchor trial counting.
	TrialLookback time.Duration

	ScanTask    ScanTaskConfig
	ProductData ProductDataConfig
	UPCDB       UPCDBConfig

	RateLimit RateLimitConfig
}

// ScanTaskConfig configures the paid FNSKU-to-ASIN scan task API.
type ScanTaskConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	PollAttempts int
	PollInterval time.Duration
}

// ProductDataConfig configures the paid product enrichment API.
type ProductDataConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// UPCDBConfig configures the free UPC database API.
type UPCDBConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RateLimitConfig configures the redis-backed scan rate limiter.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ScanRate      float64
	ScanBurst     int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "scanbase"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		OtelEnabled:  getenvBool("OTEL_ENABLED", false),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "scanbase"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		FreeTrialScanLimit: getenvInt("FREE_TRIAL_SCAN_LIMIT", 50),
		TrialLookback:      getenvDuration("TRIAL_LOOKBACK", 30*24*time.Hour),

		ScanTask: ScanTaskConfig{
			BaseURL:      getenv("SCANTASK_BASE_URL", "https://ato.fnskutoasin.com"),
			APIKey:       strings.TrimSpace(getenv("SCANTASK_API_KEY", "")),
			Timeout:      getenvDuration("SCANTASK_TIMEOUT", 30*time.Second),
			PollAttempts: getenvInt("SCANTASK_POLL_ATTEMPTS", 15),
			PollInterval: getenvDuration("SCANTASK_POLL_INTERVAL", 2*time.Second),
		},
		ProductData: ProductDataConfig{
			BaseURL: getenv("PRODUCTDATA_BASE_URL", ""),
			APIKey:  strings.TrimSpace(getenv("PRODUCTDATA_API_KEY", "")),
			Timeout: getenvDuration("PRODUCTDATA_TIMEOUT", 15*time.Second),
		},
		UPCDB: UPCDBConfig{
			BaseURL: getenv("UPCDB_BASE_URL", "https://api.upcitemdb.com/prod/trial"),
			Timeout: getenvDuration("UPCDB_TIMEOUT", 10*time.Second),
		},

		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			ScanRate:      getenvFloat("RATE_LIMIT_SCAN_RATE", 5),
			ScanBurst:     getenvInt("RATE_LIMIT_SCAN_BURST", 10),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
