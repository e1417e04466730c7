package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultTableSources are the backend tables a property id is looked up in,
// in order.
var DefaultTableSources = []string{
	"properties",
	"extra_services",
	"recommended_stays",
	"weekend_deals",
	"homes_guests_love",
	"well_reviewed",
	"property_types",
	"real_estate_offers",
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SupabaseURL          string
	SupabaseKey          string
	StorageMarker        string
	StorageHTTPTimeoutMs int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	TableSources     []string
	MaxConcurrency   int
	RateLimitMs      int
	MaxRetries       int
	GalleryCacheSize int

	CSVOutputPath string
	LogLevel      string
	LogFormat     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SupabaseURL:          strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:          getEnv("SUPABASE_KEY", ""),
		StorageMarker:        getEnv("STORAGE_PUBLIC_MARKER", "/storage/v1/object/public/"),
		StorageHTTPTimeoutMs: getEnvInt("STORAGE_HTTP_TIMEOUT_MS", 10000),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "postgres"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		TableSources:     getEnvList("TABLE_SOURCES", DefaultTableSources),
		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:      getEnvInt("RATE_LIMIT_MS", 0),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		GalleryCacheSize: getEnvInt("GALLERY_CACHE_SIZE", 0),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/properties.csv"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, ignoring blank entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
