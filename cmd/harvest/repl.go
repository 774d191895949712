package main

import (
	"github.com/spf13/cobra"

	"github.com/sambeau/harvest/pkg/harvest/repl"
)

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Parse scripts interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl.Start(a.stdin, a.stdout, repl.Options{
				Version:  Version,
				Strict:   a.cfg.Parser.Strict,
				MaxDepth: a.cfg.Parser.MaxDepth,
			})
		},
	}
}
