package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Shopify ShopifyConfig
	Batch   BatchConfig
	Print   PrintConfig
	Report  ReportConfig
}

// ShopifyConfig holds remote order source configuration
type ShopifyConfig struct {
	ShopURL     string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	RateLimit   float64
	RateBurst   int
}

// BatchConfig holds batch executor configuration
type BatchConfig struct {
	Workers       int
	PrintAttempts int
	TagPrinted    bool
}

// PrintConfig holds print sink configuration
type PrintConfig struct {
	OutputDir string
	Printer   string
	Copies    int
}

// ReportConfig holds batch report persistence configuration
type ReportConfig struct {
	DBPath string
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Shopify: ShopifyConfig{
			ShopURL:     getEnv("SHOP_URL", ""),
			AccessToken: getEnv("ACCESS_TOKEN", ""),
			APIVersion:  getEnv("API_VERSION", "2024-10"),
			Timeout:     getEnvAsDuration("SHOPIFY_TIMEOUT", 30*time.Second),
			MaxAttempts: getEnvAsInt("SHOPIFY_MAX_ATTEMPTS", 5),
			BackoffBase: getEnvAsDuration("SHOPIFY_BACKOFF_BASE", 1*time.Second),
			BackoffCap:  getEnvAsDuration("SHOPIFY_BACKOFF_CAP", 30*time.Second),
			RateLimit:   getEnvAsFloat64("SHOPIFY_RATE_LIMIT", 2),
			RateBurst:   getEnvAsInt("SHOPIFY_RATE_BURST", 4),
		},
		Batch: BatchConfig{
			Workers:       getEnvAsInt("BATCH_WORKERS", 4),
			PrintAttempts: getEnvAsInt("PRINT_ATTEMPTS", 3),
			TagPrinted:    getEnvAsBool("TAG_PRINTED", true),
		},
		Print: PrintConfig{
			OutputDir: getEnv("PRINT_OUTPUT_DIR", "./output/prints"),
			Printer:   getEnv("PRINTER_NAME", ""),
			Copies:    getEnvAsInt("PRINT_COPIES", 1),
		},
		Report: ReportConfig{
			DBPath: getEnv("REPORT_DB_PATH", ""),
		},
	}
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration, reporting every problem
// at once.
func (c *Config) Validate() error {
	return NewValidator().
		Field("SHOP_URL", c.Shopify.ShopURL, Required).
		Field("ACCESS_TOKEN", c.Shopify.AccessToken, Required).
		Field("API_VERSION", c.Shopify.APIVersion, Required).
		Field("SHOPIFY_TIMEOUT", c.Shopify.Timeout, Positive).
		Field("SHOPIFY_RATE_LIMIT", c.Shopify.RateLimit, Positive).
		Field("BATCH_WORKERS", c.Batch.Workers, AtLeast(1)).
		Field("PRINT_ATTEMPTS", c.Batch.PrintAttempts, AtLeast(1)).
		Field("PRINT_COPIES", c.Print.Copies, AtLeast(1)).
		Err()
}
