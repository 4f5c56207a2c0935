package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Audit API access
	AuditJWTSecret string
	AuditJWTIssuer string
	AuditJWTExpiry time.Duration

	// Audit job lifecycle
	ArtifactDir        string
	AuditRetention     time.Duration
	AuditSweepInterval time.Duration

	// Authority transmission
	AuthorityBaseURL    string
	HTTPTimeout         time.Duration
	OutcomePollInterval time.Duration
	OutcomeMaxRetries   int

	// Ingestion surface
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("AUDIT_JWT_SECRET", "")
	viper.SetDefault("AUDIT_JWT_ISSUER", "corrispettivi-pel")
	viper.SetDefault("AUDIT_JWT_EXPIRY", "1h")
	viper.SetDefault("ARTIFACT_DIR", "./artifacts")
	viper.SetDefault("AUDIT_RETENTION", "720h")
	viper.SetDefault("AUDIT_SWEEP_INTERVAL", "1h")
	viper.SetDefault("AUTHORITY_BASE_URL", "")
	viper.SetDefault("HTTP_TIMEOUT", "10s")
	viper.SetDefault("OUTCOME_POLL_INTERVAL", "5m")
	viper.SetDefault("OUTCOME_MAX_RETRIES", 10)
	viper.SetDefault("RATE_LIMIT", "50-S")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.AuditJWTSecret = viper.GetString("AUDIT_JWT_SECRET")
	if cfg.AuditJWTSecret == "" {
		cfg.AuditJWTSecret = "insecure-development-audit-secret"
		log.Println("Warning: AUDIT_JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.AuditJWTIssuer = viper.GetString("AUDIT_JWT_ISSUER")
	cfg.AuditJWTExpiry = parseDurationOr("AUDIT_JWT_EXPIRY", time.Hour)

	cfg.ArtifactDir = viper.GetString("ARTIFACT_DIR")
	cfg.AuditRetention = parseDurationOr("AUDIT_RETENTION", 30*24*time.Hour)
	cfg.AuditSweepInterval = parseDurationOr("AUDIT_SWEEP_INTERVAL", time.Hour)

	cfg.AuthorityBaseURL = viper.GetString("AUTHORITY_BASE_URL")
	if cfg.AuthorityBaseURL == "" {
		log.Println("Warning: AUTHORITY_BASE_URL not set. Report transmission will fail until configured.")
	}
	cfg.HTTPTimeout = parseDurationOr("HTTP_TIMEOUT", 10*time.Second)
	cfg.OutcomePollInterval = parseDurationOr("OUTCOME_POLL_INTERVAL", 5*time.Minute)
	cfg.OutcomeMaxRetries = viper.GetInt("OUTCOME_MAX_RETRIES")

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
