// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Backend selection values accepted by BACKEND.
const (
	BackendAuto     = "auto"
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env            string `mapstructure:"APP_ENV"`
	Port           string `mapstructure:"PORT"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Backend        string `mapstructure:"BACKEND"`
	SQLitePath     string `mapstructure:"SQLITE_PATH"`
	DocumentsDir   string `mapstructure:"DOCUMENTS_DIR"`
	SupabaseURL    string `mapstructure:"SUPABASE_URL"`
	SupabaseAPIKey string `mapstructure:"SUPABASE_API_KEY"`
	SupabaseDBURL  string `mapstructure:"SUPABASE_DB_URL"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	StatsCacheTTL  int    `mapstructure:"STATS_CACHE_TTL_SECONDS"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	TracingEnabled bool   `mapstructure:"TRACING_ENABLED"`
	TracingExport  string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint   string `mapstructure:"OTLP_ENDPOINT"`
	MaxUploadMB    int    `mapstructure:"MAX_UPLOAD_MB"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "production" || env == "prod" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			log.Printf("No profile-specific config 'config.%s.yml' found, using environment only", env)
		}
	}

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "8501")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("BACKEND", BackendAuto)
	viper.SetDefault("SQLITE_PATH", "data/job_tracker.db")
	viper.SetDefault("DOCUMENTS_DIR", "data/documents")
	viper.SetDefault("SUPABASE_URL", "")
	viper.SetDefault("SUPABASE_API_KEY", "")
	viper.SetDefault("SUPABASE_DB_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("STATS_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("MAX_UPLOAD_MB", 10)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.Backend = strings.ToLower(strings.TrimSpace(config.Backend))
	config.SupabaseURL = strings.TrimRight(strings.TrimSpace(config.SupabaseURL), "/")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.Backend {
	case "", BackendAuto, BackendSQLite:
	case BackendSupabase:
		if !c.HostedConfigured() {
			return errors.New("BACKEND=supabase requires SUPABASE_URL and SUPABASE_API_KEY")
		}
	default:
		return fmt.Errorf("unknown BACKEND %q (expected auto, sqlite or supabase)", c.Backend)
	}

	if c.Backend != BackendSupabase && c.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required for the local backend")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// HostedConfigured reports whether the hosted REST backend has credentials.
func (c *Config) HostedConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseAPIKey != ""
}

// StatsTTL is the cache lifetime for per-user statistics.
func (c *Config) StatsTTL() time.Duration {
	if c.StatsCacheTTL <= 0 {
		return 0
	}
	return time.Duration(c.StatsCacheTTL) * time.Second
}

// MaxUploadBytes bounds a single document upload.
func (c *Config) MaxUploadBytes() int {
	if c.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return c.MaxUploadMB << 20
}
