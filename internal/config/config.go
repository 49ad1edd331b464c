// Package config assembles runtime configuration from, in order of
// precedence: defaults baked into the flags, an optional YAML file,
// SQLREVISE_* environment variables, and explicitly set flags.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "SQLREVISE_"

// Config is the full runtime configuration.
type Config struct {
	Addr     string `koanf:"addr" validate:"required"`
	DBPath   string `koanf:"db" validate:"required"`
	Fixtures string `koanf:"fixtures" validate:"required"`
	Repo     string `koanf:"repo"`
}

// Flags returns the flag set the loader understands.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("sqlrevise", pflag.ContinueOnError)
	f.String("addr", ":8080", "Address for the web server to listen on")
	f.String("db", "sqlrevise.db", "Path to the review-state SQLite database")
	f.String("fixtures", "fixtures", "Directory holding exercises.yaml and tables.yaml")
	f.String("repo", "", "Optional git URL of a fixture pack to clone or pull before loading")
	f.String("config", "", "Optional YAML config file")
	return f
}

// Load merges the configuration sources and validates the result.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
