package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by LoadFromEnv
const EnvPrefix = "NFTMAKER_"

// Config holds all configuration options for a metadata generation run
type Config struct {
	// Catalog API settings
	API APIConfig `yaml:"api" json:"api"`

	// Identifier range and copies
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// APIConfig holds catalog API configuration
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url" env:"BASE_URL" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" env:"HTTP_TIMEOUT" validate:"gt=0s"`
	UserAgent string        `yaml:"user_agent" json:"user_agent" env:"USER_AGENT"`
}

// CatalogConfig describes which entities are fetched and how many copies each gets
type CatalogConfig struct {
	StartID         int `yaml:"start_id" json:"start_id" env:"START_ID" validate:"min=1"`
	TotalEntities   int `yaml:"total_entities" json:"total_entities" env:"TOTAL_ENTITIES" validate:"min=1"`
	CopiesPerEntity int `yaml:"copies_per_entity" json:"copies_per_entity" env:"COPIES_PER_ENTITY" validate:"min=1"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Strategy is one of "fixed_delay", "token_bucket" or "sliding_window"
	Strategy string        `yaml:"strategy" json:"strategy" env:"RATE_LIMIT_STRATEGY"`
	Delay    time.Duration `yaml:"delay" json:"delay" env:"DELAY"`
	// RequestsPerWindow and Window apply to token_bucket and sliding_window
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window" env:"REQUESTS_PER_WINDOW"`
	Window            time.Duration `yaml:"window" json:"window" env:"RATE_LIMIT_WINDOW"`
	// Disabled turns pacing off entirely
	Disabled bool `yaml:"disabled" json:"disabled" env:"RATE_LIMIT_DISABLED"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory       string `yaml:"directory" json:"directory" env:"OUTPUT_DIR" validate:"required"`
	FileNamePattern string `yaml:"file_name_pattern" json:"file_name_pattern" env:"FILE_NAME_PATTERN"`
	CreateDirectory bool   `yaml:"create_directory" json:"create_directory" env:"CREATE_DIR"`
	DryRun          bool   `yaml:"dry_run" json:"dry_run" env:"DRY_RUN"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" env:"LOG_LEVEL"`
	File  string `yaml:"file" json:"file" env:"LOG_FILE"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	// TextFile is a node_exporter textfile path written at the end of a run
	TextFile string `yaml:"text_file" json:"text_file" env:"METRICS_FILE"`
}

// Strategy names accepted by RateLimitConfig.Strategy
const (
	StrategyFixedDelay    = "fixed_delay"
	StrategyTokenBucket   = "token_bucket"
	StrategySlidingWindow = "sliding_window"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://pokeapi.co/api/v2/pokemon/",
			Timeout:   30 * time.Second,
			UserAgent: "nftmaker/1.0 (+https://pokeapi.co)",
		},
		Catalog: CatalogConfig{
			StartID:         1,
			TotalEntities:   1025,
			CopiesPerEntity: 10,
		},
		RateLimit: RateLimitConfig{
			Strategy:          StrategyFixedDelay,
			Delay:             100 * time.Millisecond,
			RequestsPerWindow: 100,
			Window:            time.Minute,
		},
		Output: OutputConfig{
			Directory:       "metadata_files",
			FileNamePattern: "metadata_{n}.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overlays NFTMAKER_* environment variables. On a parse error
// the configuration is left untouched.
func (c *Config) LoadFromEnv() error {
	overlay := *c
	if err := env.ParseWithOptions(&overlay, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("invalid %s* environment: %w", EnvPrefix, err)
	}
	*c = overlay
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"nftmaker.yaml",
		".nftmaker.yaml",
		".nftmaker.yml",
		filepath.Join(home, ".config", "nftmaker", "config.yaml"),
		filepath.Join(home, ".config", "nftmaker", "config.yml"),
		filepath.Join(home, ".nftmaker.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("%s: failed %q check (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
		}
	}

	if c.Catalog.StartID > c.Catalog.TotalEntities {
		errs = append(errs, errors.New("start id cannot exceed total entities"))
	}

	if !c.RateLimit.Disabled {
		switch c.RateLimit.Strategy {
		case StrategyFixedDelay:
			if c.RateLimit.Delay <= 0 {
				errs = append(errs, errors.New("delay must be positive, set rate_limit.disabled to turn pacing off"))
			}
		case StrategyTokenBucket, StrategySlidingWindow:
			if c.RateLimit.RequestsPerWindow <= 0 {
				errs = append(errs, errors.New("requests per window must be positive"))
			}
			if c.RateLimit.Window <= 0 {
				errs = append(errs, errors.New("rate limit window must be positive"))
			}
		default:
			errs = append(errs, fmt.Errorf("invalid rate limit strategy %q", c.RateLimit.Strategy))
		}
	}

	if !strings.Contains(c.Output.FileNamePattern, "{n}") {
		errs = append(errs, errors.New("file name pattern must contain {n}"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := flags["start"].(int); ok && v > 0 {
		c.Catalog.StartID = v
	}
	if v, ok := flags["total"].(int); ok && v > 0 {
		c.Catalog.TotalEntities = v
	}
	if v, ok := flags["copies"].(int); ok && v > 0 {
		c.Catalog.CopiesPerEntity = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		if v == 0 {
			c.RateLimit.Disabled = true
		} else {
			c.RateLimit.Delay = v
		}
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["create-dir"].(bool); ok {
		c.Output.CreateDirectory = v
	}
	if v, ok := flags["dry-run"].(bool); ok {
		c.Output.DryRun = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["metrics-file"].(string); ok && v != "" {
		c.Metrics.TextFile = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".nftmaker.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
