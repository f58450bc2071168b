package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64

	// exchange API credentials for the pollers; a poller is only wired up
	// when its key pair is configured
	BittrexAPIKey    string
	BittrexAPISecret string
	GeminiAPIKey     string
	GeminiAPISecret  string

	PollTimeout        time.Duration
	ReportCacheExpiry  time.Duration
	ReportCacheCleanup time.Duration
	RequestsPerSecond  float64
	RequestBurst       int
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found. Relying on OS environment variables and defaults.")
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	requestsPerSecondStr := getEnv("REQUESTS_PER_SECOND", "10")
	requestsPerSecond, err := strconv.ParseFloat(requestsPerSecondStr, 64)
	if err != nil || requestsPerSecond <= 0 {
		log.Printf("WARNING: Invalid REQUESTS_PER_SECOND '%s'. Using default 10.", requestsPerSecondStr)
		requestsPerSecond = 10
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./coinfolio.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		BittrexAPIKey:    getEnv("BITTREX_API_KEY", ""),
		BittrexAPISecret: getEnv("BITTREX_API_SECRET", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiAPISecret:  getEnv("GEMINI_API_SECRET", ""),

		PollTimeout:        getEnvAsDuration("POLL_TIMEOUT", 2*time.Minute),
		ReportCacheExpiry:  getEnvAsDuration("REPORT_CACHE_EXPIRY", 15*time.Minute),
		ReportCacheCleanup: getEnvAsDuration("REPORT_CACHE_CLEANUP", 30*time.Minute),
		RequestsPerSecond:  requestsPerSecond,
		RequestBurst:       getEnvAsInt("REQUEST_BURST", 30),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
