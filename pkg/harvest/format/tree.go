package format

import (
	"fmt"
	"strings"

	"github.com/sambeau/harvest/pkg/harvest/ast"
	"github.com/sambeau/harvest/pkg/harvest/lexer"
)

// Tree glyphs
const (
	branchMid   = "├─ "
	branchLast  = "└─ "
	pipeIndent  = "│  "
	spaceIndent = "   "
)

// Tree renders statements as an indented tree rooted at "Program".
func Tree(stmts []ast.Statement) string {
	var sb strings.Builder
	sb.WriteString("Program\n")
	writeChildren(&sb, Build(stmts), "")
	return sb.String()
}

func writeChildren(sb *strings.Builder, nodes []Node, prefix string) {
	for i, n := range nodes {
		last := i == len(nodes)-1
		glyph, indent := branchMid, pipeIndent
		if last {
			glyph, indent = branchLast, spaceIndent
		}
		sb.WriteString(prefix)
		sb.WriteString(glyph)
		sb.WriteString(label(n))
		sb.WriteString("\n")
		writeChildren(sb, n.Children, prefix+indent)
	}
}

func label(n Node) string {
	var sb strings.Builder
	if n.Role != "" {
		sb.WriteString(n.Role)
		sb.WriteString(": ")
	}
	sb.WriteString(n.Kind)
	if n.Text != "" {
		sb.WriteString(" ")
		sb.WriteString(n.Text)
	}
	return sb.String()
}

// Tokens lists tokens one per line as "line:column TYPE lexeme".
func Tokens(tokens []lexer.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		pos := fmt.Sprintf("%d:%d", tok.Line, tok.Column)
		fmt.Fprintf(&sb, "%-8s %-14s %q\n", pos, tok.Type, tok.Lexeme)
	}
	return sb.String()
}
