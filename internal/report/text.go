package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/width"

	perrors "github.com/sambeau/harvest/pkg/harvest/errors"
)

const tabWidth = 8

type styles struct {
	err, code, file, gutter, hint, summary *color.Color
}

func newStyles(enabled bool) styles {
	s := styles{
		err:     color.New(color.FgRed, color.Bold),
		code:    color.New(color.FgYellow, color.Bold),
		file:    color.New(color.FgCyan, color.Bold),
		gutter:  color.New(color.FgHiBlue, color.Bold),
		hint:    color.New(color.FgGreen),
		summary: color.New(color.Bold),
	}
	for _, c := range []*color.Color{s.err, s.code, s.file, s.gutter, s.hint, s.summary} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// Text writes each diagnostic with the offending source line and a caret
// under the column, followed by a one-line summary.
func Text(w io.Writer, files []File, colorize bool) error {
	st := newStyles(colorize)
	var b strings.Builder

	for _, f := range files {
		lines := strings.Split(f.Source, "\n")
		for _, err := range f.Errors {
			writeIssue(&b, st, f.Name, lines, err)
		}
	}

	n := count(files)
	switch {
	case n == 0:
		b.WriteString(st.summary.Sprintf("%s checked, no problems found\n", plural(len(files), "file")))
	default:
		b.WriteString(st.err.Sprintf("%s in %s\n", plural(n, "error"), plural(len(files), "file")))
	}

	_, werr := io.WriteString(w, b.String())
	return werr
}

func writeIssue(b *strings.Builder, st styles, name string, lines []string, err *perrors.HarvestError) {
	b.WriteString(st.err.Sprint("error"))
	if err.Code != "" {
		b.WriteString(st.code.Sprintf("[%s]", err.Code))
	}
	b.WriteString(": " + err.Message + "\n")

	if err.Line < 1 || err.Line > len(lines) {
		if name != "" {
			b.WriteString(st.gutter.Sprint(" --> ") + st.file.Sprint(name) + "\n")
		}
		writeHints(b, st, " ", err.Hints)
		b.WriteString("\n")
		return
	}

	numWidth := len(fmt.Sprint(err.Line))
	padding := strings.Repeat(" ", numWidth+1)
	line := strings.TrimRight(lines[err.Line-1], "\r")

	b.WriteString(st.gutter.Sprintf("%s--> ", strings.Repeat(" ", numWidth)))
	b.WriteString(st.file.Sprintf("%s:%d:%d", name, err.Line, err.Column) + "\n")
	b.WriteString(st.gutter.Sprintf("%s|", padding) + "\n")
	b.WriteString(st.gutter.Sprintf("%*d | ", numWidth, err.Line) + expandTabs(line) + "\n")
	b.WriteString(st.gutter.Sprintf("%s| ", padding))
	b.WriteString(strings.Repeat(" ", visualColumn(line, err.Column)) + st.err.Sprint("^") + "\n")
	writeHints(b, st, padding, err.Hints)
	b.WriteString("\n")
}

func writeHints(b *strings.Builder, st styles, padding string, hints []string) {
	for _, h := range hints {
		b.WriteString(st.gutter.Sprintf("%s= ", padding) + st.hint.Sprintf("hint: %s", h) + "\n")
	}
}

// visualColumn returns the number of terminal cells before the 1-based rune
// column, counting tabs to the next stop and wide runes as two cells.
func visualColumn(line string, column int) int {
	cells := 0
	i := 1
	for _, r := range line {
		if i >= column {
			break
		}
		cells += runeWidth(r, cells)
		i++
	}
	// A column past the end of the line points just after it
	if column > i {
		cells += column - i
	}
	return cells
}

func runeWidth(r rune, at int) int {
	if r == '\t' {
		return tabWidth - at%tabWidth
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

// expandTabs replaces tabs with spaces up to the next tab stop so the caret
// line and the source line agree.
func expandTabs(line string) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	var b strings.Builder
	cells := 0
	for _, r := range line {
		if r == '\t' {
			n := tabWidth - cells%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			cells += n
			continue
		}
		b.WriteRune(r)
		cells += runeWidth(r, cells)
	}
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
