// Package config handles application configuration.
package config

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret     string
	JWTExpiry     time.Duration
	EncryptionKey []byte // 32-byte key for AES-256-GCM encryption of store tokens

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceStarter  string
	StripePriceGrowth   string
	StripePriceScale    string

	// LLM provider
	LLMProvider    string // "openai", "anthropic", or "openrouter"
	LLMAPIKey      string
	LLMBaseURL     string // optional override for OpenAI-compatible endpoints
	LLMModel       string // standard copy tier
	LLMProModel    string // pro_copy tier
	LLMVisionModel string
	LLMMaxTokens   int
	LLMTimeout     time.Duration

	// Linkfy (primary extraction provider)
	LinkfyAPIURL  string
	LinkfyAPIKey  string
	LinkfyTimeout time.Duration

	// Extraction
	ExtractTimeout   time.Duration // shared budget for the whole strategy chain
	ExtractUserAgent string

	// Browser pool / screenshots
	ScreenshotEnabled  bool
	BrowserPoolSize    int
	BrowserMaxAge      time.Duration
	BrowserMaxRequests int
	BrowserIdleTimeout time.Duration
	BrowserWarmup      int

	// Worker
	WorkerPollInterval time.Duration
	WorkerConcurrency  int
	WorkerJobTimeout   time.Duration

	// CORS
	CORSOrigins []string

	// Object Storage (S3-compatible, optional; used for screenshot persistence)
	StorageEnabled   bool
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string

	// Idle shutdown (scale-to-zero deployments; 0 = disabled)
	IdleTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:dropfy.db?_journal=WAL&_timeout=5000"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceStarter:  getEnv("STRIPE_PRICE_STARTER", ""),
		StripePriceGrowth:   getEnv("STRIPE_PRICE_GROWTH", ""),
		StripePriceScale:    getEnv("STRIPE_PRICE_SCALE", ""),

		LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMProModel:    getEnv("LLM_PRO_MODEL", "gpt-4o"),
		LLMVisionModel: getEnv("LLM_VISION_MODEL", "gpt-4o"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4096),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 120*time.Second),

		LinkfyAPIURL:  getEnv("LINKFY_API_URL", "https://api.linkfy.io/api/text/get-markdown"),
		LinkfyAPIKey:  getEnv("LINKFY_API_KEY", ""),
		LinkfyTimeout: getEnvDuration("LINKFY_TIMEOUT", 45*time.Second),

		ExtractTimeout:   getEnvDuration("EXTRACT_TIMEOUT", 120*time.Second),
		ExtractUserAgent: getEnv("EXTRACT_USER_AGENT", defaultUserAgent),

		ScreenshotEnabled:  getEnvBool("SCREENSHOT_ENABLED", true),
		BrowserPoolSize:    getEnvInt("BROWSER_POOL_SIZE", 3),
		BrowserMaxAge:      getEnvDuration("BROWSER_MAX_AGE", 30*time.Minute),
		BrowserMaxRequests: getEnvInt("BROWSER_MAX_REQUESTS", 50),
		BrowserIdleTimeout: getEnvDuration("BROWSER_IDLE_TIMEOUT", 5*time.Minute),
		BrowserWarmup:      getEnvInt("BROWSER_WARMUP", 1),

		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 3),
		WorkerJobTimeout:   getEnvDuration("WORKER_JOB_TIMEOUT", 5*time.Minute),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),

		IdleTimeout: getEnvDuration("IDLE_TIMEOUT", 0),
	}

	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// Set up encryption key (derive from JWT secret if not explicitly set)
	if encKeyStr := getEnv("ENCRYPTION_KEY", ""); encKeyStr != "" {
		decoded, err := base64.StdEncoding.DecodeString(encKeyStr)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be a base64-encoded 32-byte key")
		}
		cfg.EncryptionKey = decoded
	} else {
		cfg.EncryptionKey = deriveEncryptionKey(cfg.JWTSecret)
	}

	return cfg, nil
}

// defaultUserAgent is sent by the direct extractor. A desktop UA avoids
// the stripped-down mobile markup some storefronts serve to bots.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// LinkfyEnabled returns true if the Linkfy extraction provider is configured.
func (c *Config) LinkfyEnabled() bool {
	return c.LinkfyAPIURL != "" && c.LinkfyAPIKey != ""
}

// BillingEnabled returns true if Stripe is configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != ""
}

// PlanPriceID maps a plan name to its Stripe price ID ("" if unknown).
func (c *Config) PlanPriceID(plan string) string {
	switch plan {
	case "starter":
		return c.StripePriceStarter
	case "growth":
		return c.StripePriceGrowth
	case "scale":
		return c.StripePriceScale
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

// deriveEncryptionKey creates a 32-byte AES-256 key from a secret string
// using HKDF. Appropriate for high-entropy secrets like JWT secrets; for
// low-entropy passwords use Argon2 instead.
func deriveEncryptionKey(secret string) []byte {
	salt := []byte("dropfy-api-encryption-key-v1")
	info := []byte("aes-256-gcm-encryption")

	hkdfReader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		panic("hkdf: failed to derive key: " + err.Error())
	}

	return key
}
