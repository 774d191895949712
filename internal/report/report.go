// Package report renders check diagnostics for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	perrors "github.com/sambeau/harvest/pkg/harvest/errors"
)

// File is the outcome of checking one source file.
type File struct {
	Name       string                  `json:"file"`
	Source     string                  `json:"-"`
	Statements int                     `json:"statements"`
	Errors     []*perrors.HarvestError `json:"errors"`
}

// Formats understood by Write
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Write renders files in the named format. Color only affects text output.
func Write(w io.Writer, format string, files []File, color bool) error {
	switch format {
	case FormatText, "":
		return Text(w, files, color)
	case FormatJSON:
		return JSON(w, files)
	case FormatMarkdown:
		return Markdown(w, files)
	case FormatHTML:
		return HTML(w, files)
	}
	return fmt.Errorf("unknown report format: %s", format)
}

// JSON writes files as an indented JSON array.
func JSON(w io.Writer, files []File) error {
	out := make([]File, len(files))
	for i, f := range files {
		out[i] = f
		if out[i].Errors == nil {
			out[i].Errors = []*perrors.HarvestError{}
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// count returns the total number of diagnostics
func count(files []File) int {
	n := 0
	for _, f := range files {
		n += len(f.Errors)
	}
	return n
}
