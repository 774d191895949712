// Package harvest provides a public API for embedding the Harvest front end.
//
// Check runs the lexer and parser over a script and returns the syntax tree
// together with every diagnostic. Nothing here executes a script.
package harvest

import (
	"fmt"
	"os"

	"github.com/sambeau/harvest/pkg/harvest/ast"
	perrors "github.com/sambeau/harvest/pkg/harvest/errors"
	"github.com/sambeau/harvest/pkg/harvest/lexer"
	"github.com/sambeau/harvest/pkg/harvest/parser"
)

// Options controls a single check.
type Options struct {
	// File names the source in diagnostics.
	File string
	// Strict reports unterminated strings and block comments. They are
	// tolerated silently otherwise.
	Strict bool
	// MaxDepth bounds nesting; 0 means parser.DefaultMaxDepth.
	MaxDepth int
	// Reporter, if set, sees each diagnostic as it is raised.
	Reporter Reporter
}

// Result is the outcome of a check.
type Result struct {
	File    string
	Program *ast.Program
	Tokens  []lexer.Token // tokens handed to the parser, trivia removed
	Errors  []*perrors.HarvestError
}

// OK reports whether the check produced no diagnostics.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Check lexes and parses source. It never fails; problems are returned as
// diagnostics in Result.Errors, ordered by position.
func Check(source string, opts Options) *Result {
	res := &Result{File: opts.File}

	emit := func(err *perrors.HarvestError) {
		err.File = opts.File
		res.Errors = append(res.Errors, err)
		if opts.Reporter != nil {
			opts.Reporter.Report(err)
		}
	}

	tokens, unterminated := lexer.Scan(source)
	res.Tokens = tokens
	if opts.Strict {
		for _, tok := range unterminated {
			emit(unterminatedError(tok))
		}
	}

	p := parser.New(tokens,
		parser.WithMaxDepth(opts.MaxDepth),
		parser.WithReporter(emit),
	)
	res.Program = p.ParseProgram()

	perrors.Sort(res.Errors)
	return res
}

// CheckFile reads path and checks it. The error is non-nil only when the
// file cannot be read.
func CheckFile(path string, opts Options) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.New("IO-0001", map[string]any{
			"Operation": "read",
			"Path":      path,
			"GoError":   err.Error(),
		})
	}
	if opts.File == "" {
		opts.File = path
	}
	return Check(string(src), opts), nil
}

func unterminatedError(tok lexer.Token) *perrors.HarvestError {
	code := "PARSE-0006"
	if tok.Type == lexer.COMMENT {
		code = "PARSE-0007"
	}
	lexeme := tok.Lexeme
	if r := []rune(lexeme); len(r) > 12 {
		lexeme = string(r[:12]) + "..."
	}
	return perrors.NewWithPosition(code, tok.Line, tok.Column, lexeme, nil)
}

// Summary returns a one-line description such as "3 statements, 1 error".
func (r *Result) Summary() string {
	stmts := 0
	if r.Program != nil {
		stmts = len(r.Program.Statements)
	}
	return fmt.Sprintf("%s, %s", plural(stmts, "statement"), plural(len(r.Errors), "error"))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
