// Package format renders Harvest syntax trees and token streams for people
// and tools: an indented tree dump, a token listing, and JSON or YAML
// encodings of the tree.
package format

import (
	"github.com/sambeau/harvest/pkg/harvest/ast"
	"github.com/sambeau/harvest/pkg/harvest/lexer"
)

// Node is a serialisable view of one syntax tree node.
type Node struct {
	Kind     string `json:"kind" yaml:"kind"`
	Role     string `json:"role,omitempty" yaml:"role,omitempty"` // position under the parent: then, else, callee...
	Text     string `json:"text,omitempty" yaml:"text,omitempty"` // operator, name or literal source text
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Build converts statements into Node values, preserving child order.
func Build(stmts []ast.Statement) []Node {
	out := make([]Node, len(stmts))
	for i, s := range stmts {
		out[i] = ast.AcceptStatement[Node](s, builder{})
	}
	return out
}

// builder implements both visitor interfaces.
type builder struct{}

func at(kind, text string, tok lexer.Token, children ...Node) Node {
	return Node{Kind: kind, Text: text, Line: tok.Line, Column: tok.Column, Children: children}
}

func (b builder) expr(role string, e ast.Expression) Node {
	n := ast.AcceptExpression[Node](e, b)
	n.Role = role
	return n
}

func (b builder) stmt(role string, s ast.Statement) Node {
	n := ast.AcceptStatement[Node](s, b)
	n.Role = role
	return n
}

func (b builder) VisitBinary(e *ast.Binary) Node {
	kind := "Binary"
	if e.IsAssignment() {
		kind = "Assign"
	}
	line, col := e.Pos()
	return Node{
		Kind: kind, Text: e.Operator.Lexeme, Line: line, Column: col,
		Children: []Node{b.expr("left", e.Left), b.expr("right", e.Right)},
	}
}

func (b builder) VisitGrouping(e *ast.Grouping) Node {
	return at("Grouping", "", e.Token, b.expr("", e.Inner))
}

func (b builder) VisitLiteral(e *ast.Literal) Node {
	n := at("Literal", e.Token.Lexeme, e.Token)
	n.Value = e.Value
	return n
}

func (b builder) VisitVariable(e *ast.Variable) Node {
	return at("Variable", e.Name.Lexeme, e.Name)
}

func (b builder) VisitUnary(e *ast.Unary) Node {
	return at("Unary", e.Operator.Lexeme, e.Operator, b.expr("", e.Operand))
}

func (b builder) VisitCall(e *ast.Call) Node {
	line, col := e.Pos()
	n := Node{Kind: "Call", Line: line, Column: col, Children: []Node{b.expr("callee", e.Callee)}}
	for _, a := range e.Arguments {
		n.Children = append(n.Children, b.expr("arg", a))
	}
	return n
}

func (b builder) VisitPropertyAccess(e *ast.PropertyAccess) Node {
	line, col := e.Pos()
	return Node{
		Kind: "Property", Text: e.Name.Lexeme, Line: line, Column: col,
		Children: []Node{b.expr("object", e.Object)},
	}
}

func (b builder) VisitExpressionStatement(s *ast.ExpressionStatement) Node {
	line, col := s.Pos()
	return Node{Kind: "Expression", Line: line, Column: col, Children: []Node{b.expr("", s.Expression)}}
}

func (b builder) VisitIf(s *ast.If) Node {
	n := at("If", "", s.Token, b.expr("condition", s.Condition), b.stmt("then", s.Then))
	if s.Else != nil {
		n.Children = append(n.Children, b.stmt("else", s.Else))
	}
	return n
}

func (b builder) VisitFor(s *ast.For) Node {
	return at("For", s.Variable.Lexeme, s.Token, b.expr("in", s.Iterable), b.stmt("body", s.Body))
}

func (b builder) VisitBlock(s *ast.Block) Node {
	n := at("Block", "", s.Token)
	for _, c := range s.Statements {
		n.Children = append(n.Children, b.stmt("", c))
	}
	return n
}

func (b builder) VisitVarDecl(s *ast.VarDecl) Node {
	n := at("Var", s.Name.Lexeme, s.Token)
	if s.Initializer != nil {
		n.Children = append(n.Children, b.expr("init", s.Initializer))
	}
	return n
}

func (b builder) VisitFetch(s *ast.Fetch) Node {
	return at("Fetch", "", s.Token, b.expr("url", s.URL))
}

func (b builder) VisitSave(s *ast.Save) Node {
	return at("Save", "", s.Token, b.expr("data", s.Data), b.expr("file", s.Filename))
}

func (b builder) VisitPrint(s *ast.Print) Node {
	return at("Print", "", s.Token, b.expr("", s.Expression))
}
