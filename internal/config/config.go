package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the comparison engine.
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Comparison ComparisonConfig
	History    HistoryConfig
	Assistant  AssistantConfig
	Auth       AuthConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration.
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// ComparisonConfig holds comparison-engine tunables.
type ComparisonConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	// QuoteDelayMs emulates the quote-provider latency of the hosted
	// product. 0 disables the delay.
	QuoteDelayMs      int
	SessionTTLMinutes int
	// AnalyzerSeed fixes the question-matcher randomness; 0 seeds from the
	// clock.
	AnalyzerSeed int64
}

// HistoryConfig holds comparison-history retention settings.
type HistoryConfig struct {
	RetentionDays       int
	EmbeddingDimensions int
}

// AssistantConfig holds the optional OpenAI-compatible analyzer settings.
type AssistantConfig struct {
	APIKey      string
	APIBase     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     int
	Enabled     bool
}

// AuthConfig holds bearer-token authentication settings. An empty secret
// disables authentication and scopes history to an anonymous user.
type AuthConfig struct {
	JWTSecret string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "assubot"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Comparison: ComparisonConfig{
			DefaultPageSize:   getEnvAsInt("COMPARE_PAGE_SIZE", 5),
			MaxPageSize:       getEnvAsInt("COMPARE_MAX_PAGE_SIZE", 50),
			QuoteDelayMs:      getEnvAsInt("COMPARE_QUOTE_DELAY_MS", 0),
			SessionTTLMinutes: getEnvAsInt("COMPARE_SESSION_TTL_MINUTES", 60),
			AnalyzerSeed:      int64(getEnvAsInt("COMPARE_ANALYZER_SEED", 0)),
		},
		History: HistoryConfig{
			RetentionDays:       getEnvAsInt("HISTORY_RETENTION_DAYS", 30),
			EmbeddingDimensions: getEnvAsInt("HISTORY_EMBEDDING_DIMENSIONS", 1024),
		},
		Assistant: AssistantConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			APIBase:     getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			MaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 512),
			Timeout:     getEnvAsInt("OPENAI_TIMEOUT", 30),
			Enabled:     getEnv("OPENAI_API_KEY", "") != "",
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns the PostgreSQL connection string.
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
