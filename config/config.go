// Package config loads the mtd configuration from a YAML file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/diary"
	"github.com/etnz/diary/date"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Rate is a margin rate change of the schedule.
type Rate struct {
	Date string  `yaml:"date"`
	Rate float64 `yaml:"rate"`
}

// Config holds application configuration
type Config struct {
	// Journal is the JSONL journal of the diary.
	Journal string `yaml:"journal"`
	// Database is a SQLite database used instead of the journal when set.
	Database string `yaml:"database"`
	// Currency of new positions.
	Currency string `yaml:"currency"`
	// Accrual is either "flat" or "schedule".
	Accrual string `yaml:"accrual"`
	Rates   []Rate `yaml:"rates"`

	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	GeminiModel  string `yaml:"gemini_model"`
	GeminiAPIKey string `yaml:"-"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Journal:     "diary.jsonl",
		Currency:    "USD",
		Accrual:     "flat",
		LogLevel:    "warn",
		GeminiModel: "gemini-2.5-flash",
	}
}

// Load reads configuration from path (skipped when empty or missing), then
// from the environment, a .env file in the working directory included.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	cfg.Journal = getEnv("MTD_JOURNAL", cfg.Journal)
	cfg.Database = getEnv("MTD_DATABASE", cfg.Database)
	cfg.Currency = strings.ToUpper(getEnv("MTD_CURRENCY", cfg.Currency))
	cfg.Accrual = getEnv("MTD_ACCRUAL", cfg.Accrual)
	cfg.LogLevel = getEnv("MTD_LOG_LEVEL", cfg.LogLevel)
	cfg.LogPretty = getEnvAsBool("MTD_LOG_PRETTY", cfg.LogPretty)
	cfg.GeminiModel = getEnv("MTD_GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	var errs []error
	if c.Journal == "" && c.Database == "" {
		errs = append(errs, fmt.Errorf("either a journal or a database is required"))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("currency %q is not an ISO 4217 code", c.Currency))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "disabled", "off":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	switch c.Accrual {
	case "flat":
	case "schedule":
		if _, err := c.RateSchedule(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unknown accrual %q, want flat or schedule", c.Accrual))
	}
	return errors.Join(errs...)
}

// RateSchedule builds the schedule from the configured rates.
func (c *Config) RateSchedule() (*diary.RateSchedule, error) {
	changes := make([]diary.RateChange, 0, len(c.Rates))
	for _, r := range c.Rates {
		on, err := date.Parse(r.Date)
		if err != nil {
			return nil, fmt.Errorf("rate schedule: %w", err)
		}
		changes = append(changes, diary.RateChange{Effective: on, Rate: diary.P(r.Rate)})
	}
	return diary.NewRateSchedule(changes...)
}

// Engine returns the accounting engine for the configured accrual model.
func (c *Config) Engine() (*diary.Engine, error) {
	if c.Accrual != "schedule" {
		return diary.NewEngine(), nil
	}
	s, err := c.RateSchedule()
	if err != nil {
		return nil, err
	}
	return diary.NewEngine(diary.WithAccrual(s)), nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
