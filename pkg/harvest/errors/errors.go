// Package errors provides structured error types for Harvest.
//
// HarvestError carries a catalog code, a rendered message, optional hints
// and the source position of the offending token, so the same value can be
// printed for a terminal, serialised to JSON, or stored.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassParse  ErrorClass = "parse"  // Lexer/parser errors
	ClassConfig ErrorClass = "config" // Configuration problems
	ClassIO     ErrorClass = "io"     // File operations
)

// HarvestError represents a diagnostic about a script.
type HarvestError struct {
	Class   ErrorClass     `json:"class" yaml:"class"`                       // Error category
	Code    string         `json:"code" yaml:"code"`                         // Error code (e.g., "PARSE-0001")
	Message string         `json:"message" yaml:"message"`                   // Human-readable message
	Hints   []string       `json:"hints,omitempty" yaml:"hints,omitempty"`   // Suggestions for fixing
	Line    int            `json:"line" yaml:"line"`                         // 1-based line (0 if unknown)
	Column  int            `json:"column" yaml:"column"`                     // 1-based column (0 if unknown)
	Lexeme  string         `json:"lexeme,omitempty" yaml:"lexeme,omitempty"` // Offending token text ("end" at EOF)
	File    string         `json:"file,omitempty" yaml:"file,omitempty"`     // File path (if known)
	Data    map[string]any `json:"data,omitempty" yaml:"-"`                  // Template variables
}

// Error implements the error interface.
func (e *HarvestError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *HarvestError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// Diagnostic renders the error in the classic one-line form
// "[line L, column C] Error at 'lexeme': message".
func (e *HarvestError) Diagnostic() string {
	where := ""
	switch e.Lexeme {
	case "":
	case "end":
		where = " at end"
	default:
		where = " at '" + e.Lexeme + "'"
	}
	return fmt.Sprintf("[line %d, column %d] Error%s: %s", e.Line, e.Column, where, e.Message)
}

// PrettyString returns a multi-line formatted string for display.
func (e *HarvestError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassParse:
		sb.WriteString("Syntax error")
	case ClassConfig:
		sb.WriteString("Config error")
	default:
		sb.WriteString("Error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *HarvestError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *HarvestError) WithFile(file string) *HarvestError {
	copy := *e
	copy.File = file
	return &copy
}

// IsParseError returns true if this is a syntax error.
func (e *HarvestError) IsParseError() bool {
	return e.Class == ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "Expect {{.Expected}}{{with .Context}} {{.}}{{end}}.",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "Expect expression.",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "Invalid assignment target.",
		Hints:    []string{"only a variable name can appear on the left of '='"},
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "Nesting too deep (limit {{.Limit}}).",
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "Unexpected character '{{.Char}}'.",
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "Unterminated string.",
		Hints:    []string{`close the string with '"'`},
	},
	"PARSE-0007": {
		Class:    ClassParse,
		Template: "Unterminated block comment.",
		Hints:    []string{"close the comment with '*/'"},
	},

	// ========================================
	// Config errors (CONFIG-0xxx)
	// ========================================
	"CONFIG-0001": {
		Class:    ClassConfig,
		Template: "invalid configuration in '{{.Path}}': {{.GoError}}",
	},

	// ========================================
	// I/O errors (IO-0xxx)
	// ========================================
	"IO-0001": {
		Class:    ClassIO,
		Template: "failed to {{.Operation}} '{{.Path}}': {{.GoError}}",
	},
}

// New creates a HarvestError from the catalog.
// Unknown codes produce a parse-class error whose message is the code itself.
func New(code string, data map[string]any) *HarvestError {
	def, ok := ErrorCatalog[code]
	if !ok {
		return &HarvestError{
			Class:   ClassParse,
			Code:    code,
			Message: code,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &HarvestError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a HarvestError located at a token.
func NewWithPosition(code string, line, column int, lexeme string, data map[string]any) *HarvestError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	err.Lexeme = lexeme
	return err
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *HarvestError {
	return &HarvestError{
		Class:   class,
		Message: message,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// Sort orders errors by file, line and column.
func Sort(errs []*HarvestError) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}
