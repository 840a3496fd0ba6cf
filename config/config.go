package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/promptpilot/model-router/models"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig
	Providers   ProvidersConfig
	Router      RouterConfig
	Analytics   AnalyticsConfig
	Admin       AdminConfig
	Environment string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ProvidersConfig holds the per-provider credentials. An empty API key
// disables that provider's models at client construction time only.
type ProvidersConfig struct {
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	GoogleAPIKey      string
	HuggingFaceAPIKey string
}

// RouterConfig holds routing and classification tunables
type RouterConfig struct {
	// ClassificationConfidenceThreshold is reserved for future use; the
	// heuristic sufficiency threshold of 0.7 is fixed.
	ClassificationConfidenceThreshold float64

	// MaxRetryAttempts is parsed and bounded but only one fallback attempt
	// is currently made per request.
	MaxRetryAttempts int

	// RequestTimeout bounds each backend call.
	RequestTimeout time.Duration

	// DefaultPreset is used when a request names no preset.
	DefaultPreset models.Preset
}

// AnalyticsConfig holds the optional durable analytics sink configuration
type AnalyticsConfig struct {
	// DatabaseURL enables the Postgres sink when non-empty.
	DatabaseURL string
}

// AdminConfig holds administrative endpoint configuration
type AdminConfig struct {
	// JWTSecret guards mutating admin endpoints when non-empty.
	JWTSecret string
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load(".env")

	preset, ok := models.ParsePreset(getEnv("DEFAULT_PRIORITY_PRESET", string(models.PresetBalanced)))
	if !ok {
		return nil, fmt.Errorf("invalid DEFAULT_PRIORITY_PRESET: %q", os.Getenv("DEFAULT_PRIORITY_PRESET"))
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 150*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Providers: ProvidersConfig{
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
			GoogleAPIKey:      getEnv("GOOGLE_API_KEY", ""),
			HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Router: RouterConfig{
			ClassificationConfidenceThreshold: getEnvAsFloatInRange("CLASSIFICATION_CONFIDENCE_THRESHOLD", 0.6, 0, 1),
			MaxRetryAttempts:                  getEnvAsIntInRange("MAX_RETRY_ATTEMPTS", 2, 1, 5),
			RequestTimeout:                    time.Duration(getEnvAsIntInRange("REQUEST_TIMEOUT_MS", 30000, 5000, 120000)) * time.Millisecond,
			DefaultPreset:                     preset,
		},
		Analytics: AnalyticsConfig{
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Admin: AdminConfig{
			JWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		},
	}

	return cfg, nil
}

// Addr returns the host:port the server binds to
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsIntInRange retrieves an integer and falls back to the default
// when the value is unparsable or outside [min, max]
func getEnvAsIntInRange(key string, defaultValue, min, max int) int {
	v := getEnvAsInt(key, defaultValue)
	if v < min || v > max {
		return defaultValue
	}
	return v
}

// getEnvAsFloatInRange retrieves a float bounded to [min, max]
func getEnvAsFloatInRange(key string, defaultValue, min, max float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= min && f <= max {
			return f
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
