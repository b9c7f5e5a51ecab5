package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Remote    RemoteConfig
	Migration MigrationConfig
}

// RemoteConfig holds the connection parameters for the document database
type RemoteConfig struct {
	Endpoint   string
	ProjectID  string
	APIKey     string
	DatabaseID string
	Timeout    time.Duration
}

// MigrationConfig holds migration run parameters
type MigrationConfig struct {
	SchemaPath string        // Path to the schema DSL file
	LockTTL    time.Duration // Lock expiry for mutating runs
}

// findProjectRoot finds the project root directory by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find go.mod
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the root directory
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	// Set config file name based on environment
	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")

	// Prefer the project root when running from a checkout, fall back to
	// the working directory for installed binaries.
	if projectRoot, err := findProjectRoot(); err == nil {
		viper.AddConfigPath(projectRoot)
	}
	viper.AddConfigPath(".")

	// Read config file (optional, ignore error if not found)
	_ = viper.ReadInConfig()

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("ENDPOINT", "http://localhost:8080/v1")
	viper.SetDefault("DATABASE_ID", "main")
	viper.SetDefault("SCHEMA_PATH", "schema.dsl")
	viper.SetDefault("LOCK_TTL_SECONDS", 600)
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 30)

	return nil
}

// Load loads configuration from viper
func Load() (*Config, error) {
	// The API key and project id are required connection parameters;
	// refusing to start beats failing on the first remote call.
	apiKey := viper.GetString("API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("API_KEY is required (set via environment variable or .env file)")
	}
	projectID := viper.GetString("PROJECT_ID")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID is required (set via environment variable or .env file)")
	}

	config := &Config{
		Remote: RemoteConfig{
			Endpoint:   viper.GetString("ENDPOINT"),
			ProjectID:  projectID,
			APIKey:     apiKey,
			DatabaseID: viper.GetString("DATABASE_ID"),
			Timeout:    time.Duration(viper.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		},
		Migration: MigrationConfig{
			SchemaPath: viper.GetString("SCHEMA_PATH"),
			LockTTL:    time.Duration(viper.GetInt("LOCK_TTL_SECONDS")) * time.Second,
		},
	}

	return config, nil
}
