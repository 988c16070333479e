package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// Storage: "s3" in production, "filesystem" for local development.
	StorageBackend    string
	StorageBasePath   string
	StorageBaseURL    string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3ForcePathStyle  bool
	SignedURLTTL      time.Duration

	// Providers
	FalAPIKey     string
	FalBaseURL    string
	FalModel      string
	KieAPIKey     string
	KieBaseURL    string
	KieModel      string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	ModalEndpoint string
	ModalToken    string

	// Async task polling
	PollInterval time.Duration
	PollTimeout  time.Duration

	GeoIPDBPath      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		StorageBackend:    getEnv("STORAGE_BACKEND", "filesystem"),
		StorageBasePath:   getEnv("STORAGE_BASE_PATH", "./data/storage"),
		StorageBaseURL:    getEnv("STORAGE_BASE_URL", "http://localhost:8080/files"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3ForcePathStyle:  getEnvBool("S3_FORCE_PATH_STYLE", false),
		SignedURLTTL:      time.Second * time.Duration(getEnvInt("SIGNED_URL_TTL_SECONDS", 86400)),

		FalAPIKey:     os.Getenv("FAL_API_KEY"),
		FalBaseURL:    getEnv("FAL_BASE_URL", "https://fal.run"),
		FalModel:      getEnv("FAL_MODEL", "fal-ai/gpt-image-1"),
		KieAPIKey:     os.Getenv("KIE_API_KEY"),
		KieBaseURL:    getEnv("KIE_BASE_URL", "https://api.kie.ai"),
		KieModel:      getEnv("KIE_MODEL", "veo3_fast"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ModalEndpoint: os.Getenv("MODAL_ENDPOINT"),
		ModalToken:    os.Getenv("MODAL_TOKEN"),

		PollInterval: time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 5)),
		PollTimeout:  time.Second * time.Duration(getEnvInt("POLL_TIMEOUT_SECONDS", 300)),

		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.StorageBackend == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
