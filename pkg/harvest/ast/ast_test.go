package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sambeau/harvest/pkg/harvest/lexer"
)

func tok(tt lexer.TokenType, lexeme string, col int) lexer.Token {
	return lexer.Token{Type: tt, Lexeme: lexeme, Line: 1, Column: col}
}

func ident(name string, col int) *Variable {
	return &Variable{Name: tok(lexer.IDENTIFIER, name, col)}
}

func TestString(t *testing.T) {
	// product.select(".name").text()
	sel := &Call{
		Callee:    &PropertyAccess{Object: ident("product", 1), Name: tok(lexer.SELECT, "select", 9)},
		Paren:     tok(lexer.RIGHT_PAREN, ")", 23),
		Arguments: []Expression{&Literal{Token: tok(lexer.STRING, `".name"`, 16), Value: ".name"}},
	}
	chain := &Call{
		Callee: &PropertyAccess{Object: sel, Name: tok(lexer.TEXT, "text", 25)},
		Paren:  tok(lexer.RIGHT_PAREN, ")", 30),
	}

	tests := []struct {
		name     string
		node     Node
		expected string
	}{
		{
			"binary",
			&Binary{
				Left:     &Literal{Value: 1.0},
				Operator: tok(lexer.PLUS, "+", 3),
				Right: &Binary{
					Left:     &Literal{Value: 2.0},
					Operator: tok(lexer.MULTIPLY, "*", 7),
					Right:    &Literal{Value: 3.0},
				},
			},
			"(1 + (2 * 3))",
		},
		{"unary", &Unary{Operator: tok(lexer.MINUS, "-", 1), Operand: ident("x", 2)}, "(-x)"},
		{"grouping", &Grouping{Inner: ident("x", 2)}, "(x)"},
		{"chain", chain, `product.select(".name").text()`},
		{"var", &VarDecl{Name: tok(lexer.IDENTIFIER, "x", 5), Initializer: &Literal{Value: 5.0}}, "var x = 5;"},
		{"bare var", &VarDecl{Name: tok(lexer.IDENTIFIER, "x", 5)}, "var x;"},
		{"fetch", &Fetch{URL: &Literal{Value: "https://a.b"}}, `fetch("https://a.b");`},
		{"save", &Save{Data: ident("rows", 6), Filename: &Literal{Value: "out.csv"}}, `save(rows, "out.csv");`},
		{
			"if else",
			&If{
				Condition: &Binary{Left: ident("x", 5), Operator: tok(lexer.LESS, "<", 7), Right: &Literal{Value: 10.0}},
				Then:      &Block{Statements: []Statement{&Print{Expression: &Literal{Value: "low"}}}},
				Else:      &Block{Statements: []Statement{&Print{Expression: &Literal{Value: "high"}}}},
			},
			`if ((x < 10)) { print("low"); } else { print("high"); }`,
		},
		{
			"for",
			&For{
				Variable: tok(lexer.IDENTIFIER, "p", 6),
				Iterable: ident("items", 11),
				Body:     &ExpressionStatement{Expression: &Call{Callee: ident("f", 18)}},
			},
			"for (p in items) f();",
		},
		{"empty block", &Block{}, "{ }"},
		{"literals", &Call{Callee: ident("f", 1), Arguments: []Expression{
			&Literal{Value: true}, &Literal{Value: 2.5}, &Literal{},
		}}, "f(true, 2.5, nil)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.node.String())
		})
	}
}

func TestLiteralKind(t *testing.T) {
	assert.Equal(t, StringLit, (&Literal{Value: "a"}).Kind())
	assert.Equal(t, NumberLit, (&Literal{Value: 1.0}).Kind())
	assert.Equal(t, BoolLit, (&Literal{Value: false}).Kind())
	assert.Equal(t, NilLit, (&Literal{}).Kind())
	assert.Equal(t, "number", NumberLit.String())
}

func TestInspectOrder(t *testing.T) {
	prog := &Program{Statements: []Statement{
		&VarDecl{Name: tok(lexer.IDENTIFIER, "a", 5), Initializer: &Binary{
			Left: ident("b", 9), Operator: tok(lexer.PLUS, "+", 11), Right: ident("c", 13),
		}},
		&Print{Expression: ident("a", 7)},
	}}

	var seen []string
	Inspect(prog, func(n Node) bool {
		switch n := n.(type) {
		case *Variable:
			seen = append(seen, n.Name.Lexeme)
		case *Binary:
			seen = append(seen, n.Operator.Lexeme)
		}
		return true
	})
	assert.Equal(t, []string{"+", "b", "c", "a"}, seen)

	var count int
	Inspect(prog, func(n Node) bool {
		count++
		_, isVar := n.(*VarDecl)
		return !isVar
	})
	// program, var decl (children skipped), print, variable
	assert.Equal(t, 4, count)
}

type depth struct{}

func (depth) VisitBinary(b *Binary) int {
	return 1 + max(AcceptExpression[int](b.Left, depth{}), AcceptExpression[int](b.Right, depth{}))
}
func (depth) VisitGrouping(g *Grouping) int { return 1 + AcceptExpression[int](g.Inner, depth{}) }
func (depth) VisitLiteral(*Literal) int     { return 1 }
func (depth) VisitVariable(*Variable) int   { return 1 }
func (depth) VisitUnary(u *Unary) int       { return 1 + AcceptExpression[int](u.Operand, depth{}) }
func (depth) VisitCall(c *Call) int {
	d := AcceptExpression[int](c.Callee, depth{})
	for _, a := range c.Arguments {
		d = max(d, AcceptExpression[int](a, depth{}))
	}
	return 1 + d
}
func (depth) VisitPropertyAccess(p *PropertyAccess) int {
	return 1 + AcceptExpression[int](p.Object, depth{})
}

func TestAcceptExpression(t *testing.T) {
	e := &Unary{Operator: tok(lexer.NOT, "!", 1), Operand: &Grouping{Inner: &Binary{
		Left: ident("a", 3), Operator: tok(lexer.AND, "&&", 5), Right: ident("b", 8),
	}}}
	assert.Equal(t, 4, AcceptExpression[int](e, depth{}))
}

func TestPos(t *testing.T) {
	b := &Binary{Left: ident("a", 4), Operator: tok(lexer.PLUS, "+", 6), Right: ident("b", 8)}
	line, col := b.Pos()
	assert.Equal(t, 1, line)
	assert.Equal(t, 4, col)

	line, col = (&Program{}).Pos()
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)
}
