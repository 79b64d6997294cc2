package sqlogic

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ErrConfigValidation is returned when configuration validation fails
var ErrConfigValidation = errors.New("configuration validation failed")

// Config represents the sqlogic configuration
type Config struct {
	Dialect   string              `yaml:"dialect"`
	Databases map[string]Database `yaml:"databases"`
	Run       RunConfig           `yaml:"run"`
	Report    ReportConfig        `yaml:"report"`
}

// Database represents database connection configuration
type Database struct {
	Driver     string `yaml:"driver"`
	Connection string `yaml:"connection"`
	Schema     string `yaml:"schema"`
}

// RunConfig represents test execution settings
type RunConfig struct {
	Workers          int           `yaml:"workers"`
	DirectiveTimeout time.Duration `yaml:"directive_timeout"`
	Halt             bool          `yaml:"halt_on_first_failure"`
}

// ReportConfig represents report emission settings
type ReportConfig struct {
	Output  string `yaml:"output"`  // machine-readable report path; empty disables it
	NoColor bool   `yaml:"no_color"`
}

// LoadConfig loads configuration from the specified file
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	// Check if config file exists
	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		// Return default configuration if file doesn't exist
		config := getDefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate the configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}

	// Apply defaults for missing values
	applyDefaults(&config)

	// Expand environment variables
	expandConfigEnvVars(&config)

	return &config, nil
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Dialect != "" {
		if _, err := ParseDialect(config.Dialect); err != nil {
			return fmt.Errorf("%w: %q", err, config.Dialect)
		}
	}

	for name, db := range config.Databases {
		if db.Driver == "" {
			return fmt.Errorf("%w: environment %q", ErrDriverNotConfigured, name)
		}

		if _, err := ParseDialect(db.Driver); err != nil {
			return fmt.Errorf("%w: environment %q uses driver %q", err, name, db.Driver)
		}

		if db.Connection == "" {
			return fmt.Errorf("%w: environment %q", ErrConnectionNotConfigured, name)
		}
	}

	if config.Run.Workers < 0 {
		return fmt.Errorf("%w: run.workers must not be negative", ErrConfigValidation)
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Dialect: string(DialectSQLite),
		Databases: map[string]Database{
			"development": {
				Driver:     "sqlite",
				Connection: ":memory:",
			},
		},
		Run: RunConfig{
			Workers:          runtime.NumCPU(),
			DirectiveTimeout: 30 * time.Second,
		},
	}
}

// applyDefaults fills unset values with their defaults
func applyDefaults(config *Config) {
	if config.Dialect == "" {
		config.Dialect = string(DialectSQLite)
	}

	if config.Run.Workers == 0 {
		config.Run.Workers = runtime.NumCPU()
	}

	if config.Run.DirectiveTimeout == 0 {
		config.Run.DirectiveTimeout = 30 * time.Second
	}
}

// Environment looks up a named database environment.
func (c *Config) Environment(name string) (Database, error) {
	db, ok := c.Databases[name]
	if !ok {
		return Database{}, fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
	}

	return db, nil
}

// loadEnvFiles loads .env files if they exist
func loadEnvFiles() error {
	// Try to load .env file from current directory
	if fileExists(".env") {
		err := godotenv.Load(".env")
		if err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	// Pattern for ${VAR} format
	re1 := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re1.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		return os.Getenv(varName)
	})

	// Pattern for $VAR format (word boundaries)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		return os.Getenv(varName)
	})

	return s
}

// expandConfigEnvVars recursively expands environment variables in config
func expandConfigEnvVars(config *Config) {
	// Expand database connections
	for name, db := range config.Databases {
		db.Connection = expandEnvVars(db.Connection)
		db.Driver = expandEnvVars(db.Driver)
		db.Schema = expandEnvVars(db.Schema)
		config.Databases[name] = db
	}

	config.Report.Output = expandEnvVars(config.Report.Output)
}
