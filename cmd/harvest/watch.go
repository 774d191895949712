package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sambeau/harvest/internal/report"
	"github.com/sambeau/harvest/internal/watch"
	"github.com/sambeau/harvest/pkg/harvest/harvest"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Re-check scripts whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context(), args)
		},
	}
}

func (a *app) runWatch(ctx context.Context, args []string) error {
	paths, err := collectFiles(args, a.cfg.WatchExtensions())
	if err != nil {
		return err
	}
	for _, path := range paths {
		a.recheck(path)
	}

	w, err := watch.New(args, a.cfg.WatchExtensions(), a.cfg.Watch.Debounce, a.recheck, watch.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Start(ctx); err != nil {
		return err
	}
	a.log.Info("watching for changes", zap.Strings("paths", args))

	<-ctx.Done()
	return nil
}

// recheck checks one file and prints its diagnostics or a summary line
func (a *app) recheck(path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		a.log.Warn("failed to read changed file", zap.String("file", path), zap.Error(err))
		return
	}

	res := harvest.Check(string(src), a.options(path))
	if res.OK() {
		printSummary(a.stdout, res)
		return
	}
	files := []report.File{{Name: path, Source: string(src), Statements: len(res.Program.Statements), Errors: res.Errors}}
	if err := report.Text(a.stdout, files, a.colorize(a.cfg.Output.Color)); err != nil {
		a.log.Error("failed to write report", zap.Error(err))
	}
}
