package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by LoadWithPath when no config file was given or
// found in the default locations.
var ErrNotFound = errors.New("no config file found")

// Load reads configuration with ENV interpolation. If configPath is empty the
// default locations are searched, and when none exists the defaults are
// returned.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	if errors.Is(err, ErrNotFound) {
		return Defaults(), nil
	}
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(interpolateEnv(data, getenv), formatOf(path))
	if err != nil {
		return nil, "", err
	}
	cfg.BaseDir = filepath.Dir(absPath)

	// Resolve a relative sqlite database next to the config file
	if cfg.History.Driver == "sqlite" && cfg.History.DSN != "" && cfg.History.DSN != ":memory:" &&
		!strings.HasPrefix(cfg.History.DSN, "file:") && !filepath.IsAbs(cfg.History.DSN) {
		cfg.History.DSN = filepath.Join(cfg.BaseDir, cfg.History.DSN)
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, absPath, nil
}

// Parse decodes data in the given format ("yaml" or "toml") over the defaults.
func Parse(data []byte, format string) (*Config, error) {
	cfg := Defaults()
	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case "yaml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}
	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	}
	return "yaml"
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > HARVEST_CONFIG env > ./harvest.yaml >
// ./harvest.toml > ~/.config/harvest/harvest.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("HARVEST_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("HARVEST_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	for _, name := range []string{"harvest.yaml", "harvest.toml"} {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "harvest", "harvest.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("%w (tried HARVEST_CONFIG, harvest.yaml, harvest.toml, ~/.config/harvest/harvest.yaml)", ErrNotFound)
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// Validate checks the configuration for errors.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Parser.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("invalid parser.max_depth: %d (must be at least 1)", cfg.Parser.MaxDepth))
	}
	if cfg.Check.Jobs < 1 {
		errs = append(errs, fmt.Sprintf("invalid check.jobs: %d (must be at least 1)", cfg.Check.Jobs))
	}
	for i, ext := range cfg.Check.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Sprintf("check.extensions[%d]: %q must start with '.'", i, ext))
		}
	}

	validOutputs := map[string]bool{"text": true, "json": true, "markdown": true, "html": true}
	if !validOutputs[cfg.Output.Format] {
		errs = append(errs, fmt.Sprintf("invalid output format: %s (must be text, json, markdown, or html)", cfg.Output.Format))
	}
	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[cfg.Output.Color] {
		errs = append(errs, fmt.Sprintf("invalid output color: %s (must be auto, always, or never)", cfg.Output.Color))
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("invalid watch.debounce: %s", cfg.Watch.Debounce))
	}

	validDrivers := map[string]bool{"sqlite": true, "mysql": true, "postgres": true}
	if !validDrivers[cfg.History.Driver] {
		errs = append(errs, fmt.Sprintf("invalid history driver: %s (must be sqlite, mysql, or postgres)", cfg.History.Driver))
	}
	if cfg.History.Enabled && cfg.History.DSN == "" {
		errs = append(errs, "history.dsn is required when history is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or console)", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
