package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noenv(string) string { return "" }

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 200, cfg.Parser.MaxDepth)
	assert.False(t, cfg.Parser.Strict)
	assert.Equal(t, 4, cfg.Check.Jobs)
	assert.Equal(t, []string{".scrape", ".hv"}, cfg.Check.Extensions)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 100*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.NoError(t, Validate(cfg))
}

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "TEST_HOST":
			return "example.com"
		case "TEST_PORT":
			return "9000"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple substitution", "host: ${TEST_HOST}", "host: example.com"},
		{"with default (env set)", "host: ${TEST_HOST:-localhost}", "host: example.com"},
		{"with default (env not set)", "host: ${UNSET_VAR:-localhost}", "host: localhost"},
		{"multiple substitutions", "addr: ${TEST_HOST}:${TEST_PORT}", "addr: example.com:9000"},
		{"unset without default", "dsn: ${UNSET_VAR}", "dsn: "},
		{"no substitution", "level: debug", "level: debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(interpolateEnv([]byte(tt.input), getenv)))
		})
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvest.yaml")
	content := `
parser:
  max_depth: 64
  strict: true
check:
  jobs: 2
output:
  format: json
watch:
  debounce: 250ms
history:
  enabled: true
  driver: sqlite
  dsn: runs.db
logging:
  level: ${LOG_LEVEL:-info}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, resolved, err := LoadWithPath(path, func(key string) string {
		if key == "LOG_LEVEL" {
			return "debug"
		}
		return ""
	})
	require.NoError(t, err)

	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, resolved)
	assert.Equal(t, dir, cfg.BaseDir)
	assert.Equal(t, 64, cfg.Parser.MaxDepth)
	assert.True(t, cfg.Parser.Strict)
	assert.Equal(t, 2, cfg.Check.Jobs)
	// untouched sections keep their defaults
	assert.Equal(t, []string{".scrape", ".hv"}, cfg.Check.Extensions)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, filepath.Join(dir, "runs.db"), cfg.History.DSN)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvest.toml")
	content := `
[parser]
max_depth = 32

[check]
extensions = [".scrape"]

[history]
driver = "postgres"
dsn = "${PG_DSN:-postgres://localhost/harvest}"

[logging]
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, noenv)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Parser.MaxDepth)
	assert.Equal(t, []string{".scrape"}, cfg.Check.Extensions)
	assert.Equal(t, "postgres", cfg.History.Driver)
	assert.Equal(t, "postgres://localhost/harvest", cfg.History.DSN)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromEnvVariable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("check:\n  jobs: 9\n"), 0o644))

	cfg, err := Load("", func(key string) string {
		if key == "HARVEST_CONFIG" {
			return path
		}
		return ""
	})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Check.Jobs)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noenv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")

	_, err = Load("", func(key string) string {
		if key == "HARVEST_CONFIG" {
			return "/does/not/exist.yaml"
		}
		return ""
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HARVEST_CONFIG")
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harvest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parser:\n  max_depth: 0\nlogging:\n  level: loud\n"), 0o644))

	_, err := Load(path, noenv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration errors:")
	assert.Contains(t, err.Error(), "invalid parser.max_depth: 0")
	assert.Contains(t, err.Error(), "invalid log level: loud")

	require.NoError(t, os.WriteFile(path, []byte("parser: [oops"), 0o644))
	_, err = Load(path, noenv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"jobs", func(c *Config) { c.Check.Jobs = 0 }, "invalid check.jobs"},
		{"extension", func(c *Config) { c.Check.Extensions = []string{"scrape"} }, "must start with '.'"},
		{"output", func(c *Config) { c.Output.Format = "xml" }, "invalid output format: xml"},
		{"color", func(c *Config) { c.Output.Color = "pink" }, "invalid output color: pink"},
		{"driver", func(c *Config) { c.History.Driver = "oracle" }, "invalid history driver: oracle"},
		{"dsn", func(c *Config) { c.History.Enabled = true; c.History.DSN = "" }, "history.dsn is required"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format: xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWatchExtensions(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, cfg.Check.Extensions, cfg.WatchExtensions())

	cfg.Watch.Extensions = []string{".hv"}
	assert.Equal(t, []string{".hv"}, cfg.WatchExtensions())
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("x"), "ini")
	assert.EqualError(t, err, "unsupported config format: ini")
}
