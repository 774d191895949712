package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sambeau/harvest/internal/report"
	perrors "github.com/sambeau/harvest/pkg/harvest/errors"
	"github.com/sambeau/harvest/pkg/harvest/format"
	"github.com/sambeau/harvest/pkg/harvest/harvest"
	"github.com/sambeau/harvest/pkg/harvest/lexer"
)

func newTokensCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "List the tokens of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			tokens := lexer.Tokenize(src)
			if !all {
				tokens = lexer.Filter(tokens)
			}
			_, err = io.WriteString(a.stdout, format.Tokens(tokens))
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include whitespace and comment tokens")
	return cmd
}

func newASTCmd(a *app) *cobra.Command {
	var (
		outFormat string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "ast <file>",
		Short: "Print the syntax tree of a script",
		Long: `Ast parses a script and prints its syntax tree as an indented tree,
JSON or YAML. With -o the output is written to a file instead, gzip
compressed when the name ends in .gz.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := readSource(path)
			if err != nil {
				return err
			}

			res := harvest.Check(src, a.options(path))
			if !res.OK() {
				files := []report.File{{Name: path, Source: src, Errors: res.Errors}}
				if err := report.Text(a.stderr, files, false); err != nil {
					return err
				}
				return &exitError{code: exitProblems}
			}

			data, err := format.Encode(res.Program.Statements, outFormat)
			if err != nil {
				return err
			}
			if outPath != "" {
				return format.WriteFile(outPath, data)
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&outFormat, "format", format.FormatTree, "Output format: tree, json or yaml")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write to a file (.gz compresses)")
	return cmd
}

// readSource reads a script, wrapping failures as catalog errors
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", perrors.New("IO-0001", map[string]any{
			"Operation": "read",
			"Path":      path,
			"GoError":   err.Error(),
		})
	}
	return string(data), nil
}

// printSummary writes a one-line summary of a check result
func printSummary(w io.Writer, res *harvest.Result) {
	fmt.Fprintf(w, "%s: %s\n", res.File, res.Summary())
}
