// Package config holds Harvest tool configuration.
package config

import "time"

// Config represents the complete Harvest configuration
type Config struct {
	BaseDir string        `yaml:"-" toml:"-"` // Directory containing config file, for resolving relative paths
	Parser  ParserConfig  `yaml:"parser" toml:"parser"`
	Check   CheckConfig   `yaml:"check" toml:"check"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
	History HistoryConfig `yaml:"history" toml:"history"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ParserConfig holds front-end settings
type ParserConfig struct {
	MaxDepth int  `yaml:"max_depth" toml:"max_depth"` // Nesting limit for statements and expressions
	Strict   bool `yaml:"strict" toml:"strict"`       // Report unterminated strings and comments
}

// CheckConfig controls the check command
type CheckConfig struct {
	Jobs       int      `yaml:"jobs" toml:"jobs"`             // Files checked in parallel
	Extensions []string `yaml:"extensions" toml:"extensions"` // Script extensions picked up from directories
}

// OutputConfig controls how diagnostics are printed
type OutputConfig struct {
	Format string `yaml:"format" toml:"format"` // text, json, markdown or html
	Color  string `yaml:"color" toml:"color"`   // auto, always or never
}

// WatchConfig controls the watch command
type WatchConfig struct {
	Debounce   time.Duration `yaml:"debounce" toml:"debounce"`
	Extensions []string      `yaml:"extensions" toml:"extensions"` // Empty means check.extensions
}

// WatchExtensions returns the extensions the watcher reacts to
func (c *Config) WatchExtensions() []string {
	if len(c.Watch.Extensions) > 0 {
		return c.Watch.Extensions
	}
	return c.Check.Extensions
}

// HistoryConfig points at the database recording check runs
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Driver  string `yaml:"driver" toml:"driver"` // sqlite, mysql or postgres
	DSN     string `yaml:"dsn" toml:"dsn"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // console, json
}

// Defaults returns a Config with sensible default values
func Defaults() *Config {
	return &Config{
		Parser: ParserConfig{
			MaxDepth: 200,
		},
		Check: CheckConfig{
			Jobs:       4,
			Extensions: []string{".scrape", ".hv"},
		},
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		History: HistoryConfig{
			Driver: "sqlite",
			DSN:    "harvest.db",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
