// Package ast defines the syntax tree produced by the Harvest parser.
//
// Expression and Statement are closed sets: their marker methods are
// unexported, so only this package can add node types. Consumers that need
// exhaustive handling implement ExpressionVisitor and StatementVisitor.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/sambeau/harvest/pkg/harvest/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
	// Pos returns the line and column where the node starts.
	Pos() (line, column int)
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Program represents the root node of every AST
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Pos() (int, int) {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return 1, 1
}

func (p *Program) String() string {
	parts := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n")
}

func tokenPos(t lexer.Token) (int, int) { return t.Line, t.Column }

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Binary is a two-operand expression. Assignment is a Binary whose operator
// is EQUALS and whose left side is a *Variable.
type Binary struct {
	Left     Expression
	Operator lexer.Token
	Right    Expression
}

func (b *Binary) expressionNode()      {}
func (b *Binary) TokenLiteral() string { return b.Operator.Lexeme }
func (b *Binary) Pos() (int, int)      { return b.Left.Pos() }
func (b *Binary) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(b.Left.String())
	out.WriteString(" " + b.Operator.Lexeme + " ")
	out.WriteString(b.Right.String())
	out.WriteString(")")
	return out.String()
}

// IsAssignment reports whether b is an assignment.
func (b *Binary) IsAssignment() bool {
	return b.Operator.Type == lexer.EQUALS
}

// Grouping is a parenthesised expression.
type Grouping struct {
	Token lexer.Token // the '(' token
	Inner Expression
}

func (g *Grouping) expressionNode()      {}
func (g *Grouping) TokenLiteral() string { return g.Token.Lexeme }
func (g *Grouping) Pos() (int, int)      { return tokenPos(g.Token) }
func (g *Grouping) String() string       { return "(" + g.Inner.String() + ")" }

// LiteralKind identifies the runtime kind of a literal value.
type LiteralKind int

const (
	NilLit LiteralKind = iota
	StringLit
	NumberLit
	BoolLit
)

func (k LiteralKind) String() string {
	switch k {
	case StringLit:
		return "string"
	case NumberLit:
		return "number"
	case BoolLit:
		return "boolean"
	}
	return "nil"
}

// Literal holds a string, float64, bool or nil value.
type Literal struct {
	Token lexer.Token
	Value any
}

func (l *Literal) expressionNode()      {}
func (l *Literal) TokenLiteral() string { return l.Token.Lexeme }
func (l *Literal) Pos() (int, int)      { return tokenPos(l.Token) }
func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case string:
		return `"` + v + `"`
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return "nil"
}

// Kind returns the kind of the literal's value.
func (l *Literal) Kind() LiteralKind {
	switch l.Value.(type) {
	case string:
		return StringLit
	case float64:
		return NumberLit
	case bool:
		return BoolLit
	}
	return NilLit
}

// Variable is a reference to a name.
type Variable struct {
	Name lexer.Token
}

func (v *Variable) expressionNode()      {}
func (v *Variable) TokenLiteral() string { return v.Name.Lexeme }
func (v *Variable) Pos() (int, int)      { return tokenPos(v.Name) }
func (v *Variable) String() string       { return v.Name.Lexeme }

// Unary is a prefix operator applied to an operand.
type Unary struct {
	Operator lexer.Token
	Operand  Expression
}

func (u *Unary) expressionNode()      {}
func (u *Unary) TokenLiteral() string { return u.Operator.Lexeme }
func (u *Unary) Pos() (int, int)      { return tokenPos(u.Operator) }
func (u *Unary) String() string       { return "(" + u.Operator.Lexeme + u.Operand.String() + ")" }

// Call applies Callee to Arguments. Paren is the closing ')' and is used to
// locate errors raised at the call site.
type Call struct {
	Callee    Expression
	Paren     lexer.Token
	Arguments []Expression
}

func (c *Call) expressionNode()      {}
func (c *Call) TokenLiteral() string { return c.Paren.Lexeme }
func (c *Call) Pos() (int, int)      { return c.Callee.Pos() }
func (c *Call) String() string {
	args := make([]string, len(c.Arguments))
	for i, a := range c.Arguments {
		args[i] = a.String()
	}
	return c.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

// PropertyAccess is obj.name, the first half of a method call such as
// product.select(".name").
type PropertyAccess struct {
	Object Expression
	Name   lexer.Token
}

func (p *PropertyAccess) expressionNode()      {}
func (p *PropertyAccess) TokenLiteral() string { return p.Name.Lexeme }
func (p *PropertyAccess) Pos() (int, int)      { return p.Object.Pos() }
func (p *PropertyAccess) String() string       { return p.Object.String() + "." + p.Name.Lexeme }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// ExpressionStatement is an expression followed by ';'.
type ExpressionStatement struct {
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Expression.TokenLiteral() }
func (es *ExpressionStatement) Pos() (int, int)      { return es.Expression.Pos() }
func (es *ExpressionStatement) String() string       { return es.Expression.String() + ";" }

// If represents if statements. Else is nil when there is no else branch.
type If struct {
	Token     lexer.Token // the 'if' token
	Condition Expression
	Then      Statement
	Else      Statement
}

func (is *If) statementNode()       {}
func (is *If) TokenLiteral() string { return is.Token.Lexeme }
func (is *If) Pos() (int, int)      { return tokenPos(is.Token) }
func (is *If) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(is.Condition.String())
	out.WriteString(") ")
	out.WriteString(is.Then.String())
	if is.Else != nil {
		out.WriteString(" else ")
		out.WriteString(is.Else.String())
	}
	return out.String()
}

// For represents for (name in iterable) loops.
type For struct {
	Token    lexer.Token // the 'for' token
	Variable lexer.Token
	Iterable Expression
	Body     Statement
}

func (fs *For) statementNode()       {}
func (fs *For) TokenLiteral() string { return fs.Token.Lexeme }
func (fs *For) Pos() (int, int)      { return tokenPos(fs.Token) }
func (fs *For) String() string {
	return "for (" + fs.Variable.Lexeme + " in " + fs.Iterable.String() + ") " + fs.Body.String()
}

// Block is a braced list of statements.
type Block struct {
	Token      lexer.Token // the '{' token
	Statements []Statement
}

func (bs *Block) statementNode()       {}
func (bs *Block) TokenLiteral() string { return bs.Token.Lexeme }
func (bs *Block) Pos() (int, int)      { return tokenPos(bs.Token) }
func (bs *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// VarDecl represents var declarations. Initializer is nil for 'var x;'.
type VarDecl struct {
	Token       lexer.Token // the 'var' token
	Name        lexer.Token
	Initializer Expression
}

func (vd *VarDecl) statementNode()       {}
func (vd *VarDecl) TokenLiteral() string { return vd.Token.Lexeme }
func (vd *VarDecl) Pos() (int, int)      { return tokenPos(vd.Token) }
func (vd *VarDecl) String() string {
	if vd.Initializer == nil {
		return "var " + vd.Name.Lexeme + ";"
	}
	return "var " + vd.Name.Lexeme + " = " + vd.Initializer.String() + ";"
}

// Fetch represents fetch(url); statements.
type Fetch struct {
	Token lexer.Token
	URL   Expression
}

func (fs *Fetch) statementNode()       {}
func (fs *Fetch) TokenLiteral() string { return fs.Token.Lexeme }
func (fs *Fetch) Pos() (int, int)      { return tokenPos(fs.Token) }
func (fs *Fetch) String() string       { return "fetch(" + fs.URL.String() + ");" }

// Save represents save(data, filename); statements.
type Save struct {
	Token    lexer.Token
	Data     Expression
	Filename Expression
}

func (ss *Save) statementNode()       {}
func (ss *Save) TokenLiteral() string { return ss.Token.Lexeme }
func (ss *Save) Pos() (int, int)      { return tokenPos(ss.Token) }
func (ss *Save) String() string {
	return "save(" + ss.Data.String() + ", " + ss.Filename.String() + ");"
}

// Print represents print(expr); statements.
type Print struct {
	Token      lexer.Token
	Expression Expression
}

func (ps *Print) statementNode()       {}
func (ps *Print) TokenLiteral() string { return ps.Token.Lexeme }
func (ps *Print) Pos() (int, int)      { return tokenPos(ps.Token) }
func (ps *Print) String() string       { return "print(" + ps.Expression.String() + ");" }
