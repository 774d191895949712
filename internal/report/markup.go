package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markdown writes a report with one table per file that has diagnostics.
func Markdown(w io.Writer, files []File) error {
	_, err := io.WriteString(w, markdown(files))
	return err
}

func markdown(files []File) string {
	var b strings.Builder
	b.WriteString("# Harvest check report\n\n")
	fmt.Fprintf(&b, "%s checked, %s.\n", plural(len(files), "file"), plural(count(files), "error"))

	for _, f := range files {
		fmt.Fprintf(&b, "\n## `%s`\n\n", f.Name)
		if len(f.Errors) == 0 {
			fmt.Fprintf(&b, "No problems found (%s).\n", plural(f.Statements, "statement"))
			continue
		}
		b.WriteString("| Line | Column | Code | Message |\n")
		b.WriteString("| ---: | ---: | --- | --- |\n")
		for _, e := range f.Errors {
			msg := e.Message
			for _, h := range e.Hints {
				msg += " " + h
			}
			fmt.Fprintf(&b, "| %d | %d | %s | %s |\n", e.Line, e.Column, e.Code, escapeCell(msg))
		}
	}
	return b.String()
}

// escapeCell keeps a message inside its table cell
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML writes the Markdown report rendered to an HTML fragment.
func HTML(w io.Writer, files []File) error {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown(files)), &buf); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
