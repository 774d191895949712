package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sambeau/harvest/config"
	"github.com/sambeau/harvest/internal/history"
	"github.com/sambeau/harvest/internal/report"
	perrors "github.com/sambeau/harvest/pkg/harvest/errors"
	"github.com/sambeau/harvest/pkg/harvest/harvest"
)

type checkFlags struct {
	strict bool
	format string
	color  string
	record bool
	jobs   int
}

func newCheckCmd(a *app) *cobra.Command {
	var f checkFlags

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report syntax errors in scripts",
		Long: `Check lexes and parses each script and reports every syntax error.
Directories are searched for files with the configured extensions.

Exit status is 0 when no problems were found, 1 when diagnostics were
reported and 2 when a file could not be read.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("strict") {
				a.cfg.Parser.Strict = f.strict
			}
			if cmd.Flags().Changed("format") {
				a.cfg.Output.Format = f.format
			}
			if cmd.Flags().Changed("color") {
				a.cfg.Output.Color = f.color
			}
			if cmd.Flags().Changed("jobs") {
				a.cfg.Check.Jobs = f.jobs
			}
			if f.record {
				a.cfg.History.Enabled = true
			}
			// Full validation after CLI overrides applied
			if err := config.Validate(a.cfg); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			return a.runCheck(cmd.Context(), args)
		},
	}

	cmd.Flags().BoolVar(&f.strict, "strict", false, "Report unterminated strings and block comments")
	cmd.Flags().StringVar(&f.format, "format", "text", "Output format: text, json, markdown or html")
	cmd.Flags().StringVar(&f.color, "color", "auto", "Color text output: auto, always or never")
	cmd.Flags().BoolVar(&f.record, "record", false, "Record the run in the history database")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 4, "Files checked in parallel")
	return cmd
}

func (a *app) runCheck(ctx context.Context, args []string) error {
	paths, err := collectFiles(args, a.cfg.Check.Extensions)
	if err != nil {
		return err
	}

	start := time.Now()
	files, failed, err := a.checkAll(ctx, paths)
	if err != nil {
		return err
	}
	a.log.Info("checked files",
		zap.Int("files", len(files)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := report.Write(a.stdout, a.cfg.Output.Format, files, a.colorize(a.cfg.Output.Color)); err != nil {
		return err
	}

	if a.cfg.History.Enabled {
		if err := a.record(ctx, files); err != nil {
			return err
		}
	}

	switch {
	case failed:
		return &exitError{code: exitFailure}
	case problems(files):
		return &exitError{code: exitProblems}
	}
	return nil
}

// checkAll checks paths concurrently, keeping results in input order. failed
// is true when any file could not be read.
func (a *app) checkAll(ctx context.Context, paths []string) ([]report.File, bool, error) {
	files := make([]report.File, len(paths))
	unreadable := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Check.Jobs)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a.log.Debug("checking file", zap.String("file", path))

			src, err := os.ReadFile(path)
			if err != nil {
				unreadable[i] = true
				files[i] = report.File{Name: path, Errors: []*perrors.HarvestError{
					perrors.New("IO-0001", map[string]any{
						"Operation": "read",
						"Path":      path,
						"GoError":   err.Error(),
					}).WithFile(path),
				}}
				return nil
			}

			res := harvest.Check(string(src), a.options(path))
			files[i] = report.File{
				Name:       path,
				Source:     string(src),
				Statements: len(res.Program.Statements),
				Errors:     res.Errors,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	failed := false
	for _, u := range unreadable {
		failed = failed || u
	}
	return files, failed, nil
}

func (a *app) record(ctx context.Context, files []report.File) error {
	store, err := history.Open(ctx, a.cfg.History.Driver, a.cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	for _, f := range files {
		run := history.Run{File: f.Name, Statements: f.Statements}
		for _, e := range f.Errors {
			run.Diagnostics = append(run.Diagnostics, history.Entry{
				Code:    e.Code,
				Line:    e.Line,
				Column:  e.Column,
				Message: e.Message,
			})
		}
		run, err = store.Record(ctx, run)
		if err != nil {
			return err
		}
		a.log.Debug("recorded run", zap.String("file", f.Name), zap.String("id", run.ID.String()))
	}
	return nil
}

func problems(files []report.File) bool {
	for _, f := range files {
		if len(f.Errors) > 0 {
			return true
		}
	}
	return false
}

// collectFiles expands directories into the script files they contain.
// Explicit file arguments are kept whatever their extension.
func collectFiles(args, extensions []string) ([]string, error) {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			// Unreadable files are reported by the check itself
			paths = append(paths, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// Skip hidden directories
				if strings.HasPrefix(d.Name(), ".") && path != arg {
					return filepath.SkipDir
				}
				return nil
			}
			if exts[strings.ToLower(filepath.Ext(path))] {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return paths, nil
}
