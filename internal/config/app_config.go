// Package config loads application configuration for the workflow engine
// from environment variables, an optional .env file, and optionally
// HashiCorp Vault for production secrets, mirroring the teacher's layered
// configuration approach.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/joho/godotenv"
)

// WorkflowConfig holds the SLAMonitor's timing and severity parameters and
// the StageRegistry's default stage SLA (spec.md §6 configuration),
// overridable via environment variables.
type WorkflowConfig struct {
	ScanIntervalSeconds       int `mapstructure:"WORKFLOW_SCAN_INTERVAL_SECONDS"`
	ScanBackoffSeconds        int `mapstructure:"WORKFLOW_SCAN_BACKOFF_SECONDS"`
	DefaultStageSLAHours      int `mapstructure:"WORKFLOW_DEFAULT_STAGE_SLA_HOURS"`
	SeverityWarningCapHours   int `mapstructure:"WORKFLOW_SEVERITY_WARNING_CAP_HOURS"`
	SeverityCriticalCapHours  int `mapstructure:"WORKFLOW_SEVERITY_CRITICAL_CAP_HOURS"`
}

// ScanInterval returns the configured scan interval as a time.Duration.
func (w WorkflowConfig) ScanInterval() time.Duration {
	return time.Duration(w.ScanIntervalSeconds) * time.Second
}

// ScanBackoff returns the configured error backoff as a time.Duration.
func (w WorkflowConfig) ScanBackoff() time.Duration {
	return time.Duration(w.ScanBackoffSeconds) * time.Second
}

// AppConfig contains all application configuration.
type AppConfig struct {
	// Server configuration
	ServerPort int    `mapstructure:"SERVER_PORT"`
	Env        string `mapstructure:"ENVIRONMENT"`

	// Database configuration
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBDriver    string `mapstructure:"DB_DRIVER"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// CORS
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Rate limiting
	RateLimitRequestsPerMinute int `mapstructure:"RATE_LIMIT_REQUESTS_PER_MINUTE"`

	Workflow WorkflowConfig

	// VaultClient is populated when VAULT_ADDR is set; nil otherwise.
	VaultClient *api.Client
}

// DefaultAppConfig returns configuration with default values.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		ServerPort:                 8080,
		Env:                        "development",
		DatabaseURL:                "./workflow_engine.db",
		DBDriver:                   "sqlite",
		LogLevel:                   "info",
		CORSAllowedOrigins:         "*",
		RateLimitRequestsPerMinute: 60,
		Workflow: WorkflowConfig{
			ScanIntervalSeconds:      300,
			ScanBackoffSeconds:       60,
			DefaultStageSLAHours:     72,
			SeverityWarningCapHours:  24,
			SeverityCriticalCapHours: 72,
		},
	}
}

// LoadAppConfig loads all application configuration.
func LoadAppConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	config := DefaultAppConfig()

	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			config.ServerPort = port
		}
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Env = env
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.DatabaseURL = dbURL
	}
	if dbDriver := os.Getenv("DB_DRIVER"); dbDriver != "" {
		config.DBDriver = dbDriver
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.CORSAllowedOrigins = corsOrigins
	}
	if v := os.Getenv("WORKFLOW_SCAN_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Workflow.ScanIntervalSeconds = n
		}
	}
	if v := os.Getenv("WORKFLOW_SCAN_BACKOFF_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Workflow.ScanBackoffSeconds = n
		}
	}
	if v := os.Getenv("WORKFLOW_DEFAULT_STAGE_SLA_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Workflow.DefaultStageSLAHours = n
		}
	}
	if v := os.Getenv("WORKFLOW_SEVERITY_WARNING_CAP_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Workflow.SeverityWarningCapHours = n
		}
	}
	if v := os.Getenv("WORKFLOW_SEVERITY_CRITICAL_CAP_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Workflow.SeverityCriticalCapHours = n
		}
	}

	if os.Getenv("VAULT_ADDR") != "" {
		if err := loadFromVault(config); err != nil {
			fmt.Printf("Warning: Could not load secrets from Vault: %v\n", err)
		}
	}

	return config, nil
}

// loadFromVault connects to Vault and overlays the database connection
// string, so a deployment can rotate DATABASE_URL without a restart that
// touches plaintext environment variables.
func loadFromVault(c *AppConfig) error {
	vaultConfig := api.DefaultConfig()

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return fmt.Errorf("failed to create vault client: %w", err)
	}
	c.VaultClient = client

	secretPath := os.Getenv("VAULT_SECRET_PATH")
	if secretPath == "" {
		secretPath = "secret/data/workflow-engine"
	}

	secret, err := client.KVv2(secretPath).Get(context.Background(), "")
	if err != nil {
		return fmt.Errorf("failed to read secrets from vault path %s: %w", secretPath, err)
	}

	if dbURL, ok := secret.Data["DATABASE_URL"].(string); ok {
		c.DatabaseURL = dbURL
	}

	return nil
}

// IsProduction returns true if environment is production.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment returns true if environment is development.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}
