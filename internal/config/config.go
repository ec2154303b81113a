// Package config loads configuration from the environment with sane
// defaults, optionally overlaid with a YAML file for deployments that prefer
// one.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP server
	Port string `yaml:"port"`

	// Persistence backend: memory, sqlite, or postgres
	Backend      string `yaml:"backend"`
	SQLiteDBPath string `yaml:"sqlite_db_path"`
	PostgresURL  string `yaml:"postgres_url"`
	SeedFile     string `yaml:"seed_file"`

	// AMQP change events (optional; empty URL disables publishing)
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Google Sheets export sink (optional)
	SheetsSpreadsheetID string `yaml:"sheets_spreadsheet_id"`
	SheetsSheetName     string `yaml:"sheets_sheet_name"`

	// Worker
	AlertInterval time.Duration `yaml:"alert_interval"`
}

// Load builds the configuration from environment variables. When TALLY_CONFIG
// names a YAML file, its non-empty values take precedence over the
// environment.
func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8082"),

		Backend:      getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tally.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),
		SeedFile:     getEnv("SEED_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tally"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		SheetsSpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsSheetName:     getEnv("SHEETS_SHEET_NAME", "Records"),

		AlertInterval: getEnvDuration("ALERT_INTERVAL", 5*time.Minute),
	}

	if path := os.Getenv("TALLY_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			// The file is an overlay; a broken one should not take the
			// process down before Validate reports it.
			fmt.Fprintf(os.Stderr, "config file %s ignored: %v\n", path, err)
		}
	}

	return cfg
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	merge(&c.Port, overlay.Port)
	merge(&c.Backend, overlay.Backend)
	merge(&c.SQLiteDBPath, overlay.SQLiteDBPath)
	merge(&c.PostgresURL, overlay.PostgresURL)
	merge(&c.SeedFile, overlay.SeedFile)
	merge(&c.AMQPURL, overlay.AMQPURL)
	merge(&c.AMQPExchange, overlay.AMQPExchange)
	merge(&c.AMQPQueue, overlay.AMQPQueue)
	merge(&c.SheetsSpreadsheetID, overlay.SheetsSpreadsheetID)
	merge(&c.SheetsSheetName, overlay.SheetsSheetName)
	if overlay.AlertInterval != 0 {
		c.AlertInterval = overlay.AlertInterval
	}
	return nil
}

func merge(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Backend {
	case "memory", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("invalid backend '%s': must be one of [memory sqlite postgres]", c.Backend))
	}

	if c.Backend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "sqlite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create sqlite directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.Backend == "postgres" && c.PostgresURL == "" {
		errs = append(errs, "POSTGRES_URL is required when using postgres backend")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AlertInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid alert interval %v: must be at least 1 second", c.AlertInterval))
	} else if c.AlertInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid alert interval %v: must be at most 24 hours", c.AlertInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
