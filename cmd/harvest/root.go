package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sambeau/harvest/config"
	"github.com/sambeau/harvest/pkg/harvest/harvest"
)

// app carries what every subcommand needs
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	getenv         func(string) string

	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "harvest",
		Short:         "harvest - check and inspect web-scraping scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newCheckCmd(a),
		newTokensCmd(a),
		newASTCmd(a),
		newWatchCmd(a),
		newReplCmd(a),
		newHistoryCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath, a.getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
	}
	a.cfg = cfg

	log, err := newLogger(cfg.Logging, a.stderr)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// newLogger builds a zap logger writing to w
func newLogger(cfg config.LoggingConfig, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level)), nil
}

// options returns the check options from configuration
func (a *app) options(file string) harvest.Options {
	return harvest.Options{
		File:     file,
		Strict:   a.cfg.Parser.Strict,
		MaxDepth: a.cfg.Parser.MaxDepth,
		Reporter: harvest.LoggerReporter(a.log),
	}
}

// colorize decides whether text output gets ANSI colors
func (a *app) colorize(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	// auto: only when writing to a terminal
	f, ok := a.stdout.(*os.File)
	return ok && f == os.Stdout && !color.NoColor
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "harvest version %s\n", Version)
			return nil
		},
	}
}
