// Package config holds the settings of the xlsx2json tools.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
)

const envPrefix = "XLSX2JSON_"

type Config struct {
	DatabaseURL string
	Table       string
	Extension   string
	Listen      string
	LogLevel    string
	LogFormat   string
}

func Defaults() Config {
	return Config{
		Table:     "import_excel2json",
		Extension: ".xlsx",
		Listen:    "127.0.0.1:8080",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads envFile, when it exists, into the environment and builds a
// Config from the XLSX2JSON_* variables. Unset values take their defaults.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Config{
		DatabaseURL: os.Getenv(envPrefix + "DATABASE_URL"),
		Table:       os.Getenv(envPrefix + "TABLE"),
		Extension:   os.Getenv(envPrefix + "EXT"),
		Listen:      os.Getenv(envPrefix + "LISTEN"),
		LogLevel:    os.Getenv(envPrefix + "LOG_LEVEL"),
		LogFormat:   os.Getenv(envPrefix + "LOG_FORMAT"),
	}
	if err := mergo.Merge(&cfg, Defaults()); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Override replaces the values of c with the non-empty values of o.
func (c *Config) Override(o Config) error {
	return mergo.Merge(c, o, mergo.WithOverride)
}

func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		return fmt.Errorf("extension %q must start with a dot", c.Extension)
	}
	if c.Table == "" {
		return errors.New("table name is empty")
	}
	return nil
}
