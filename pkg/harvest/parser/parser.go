// Package parser builds a Harvest syntax tree from tokens.
//
// The parser is recursive descent. Binary operators are parsed by precedence
// climbing over the precedences table; everything else has its own method.
// A statement that fails to parse is reported, dropped, and parsing resumes
// at the next statement boundary, so one mistake yields one diagnostic.
package parser

import (
	"errors"
	"strconv"

	"github.com/sambeau/harvest/pkg/harvest/ast"
	perrors "github.com/sambeau/harvest/pkg/harvest/errors"
	"github.com/sambeau/harvest/pkg/harvest/lexer"
)

// Precedence levels for binary operators, lowest binding first
const (
	_ int = iota
	LOWEST
	LOGIC_OR    // ||
	LOGIC_AND   // &&
	EQUALITY    // == !=
	LESSGREATER // > >= < <=
	SUM         // + -
	PRODUCT     // * /
)

// precedences maps binary operator tokens to their precedence
var precedences = map[lexer.TokenType]int{
	lexer.OR:            LOGIC_OR,
	lexer.AND:           LOGIC_AND,
	lexer.EQUAL_EQUAL:   EQUALITY,
	lexer.NOT_EQUAL:     EQUALITY,
	lexer.GREATER:       LESSGREATER,
	lexer.GREATER_EQUAL: LESSGREATER,
	lexer.LESS:          LESSGREATER,
	lexer.LESS_EQUAL:    LESSGREATER,
	lexer.PLUS:          SUM,
	lexer.MINUS:         SUM,
	lexer.MULTIPLY:      PRODUCT,
	lexer.DIVIDE:        PRODUCT,
}

// statementStarts are the keywords synchronize stops in front of.
var statementStarts = map[lexer.TokenType]bool{
	lexer.VAR:   true,
	lexer.FOR:   true,
	lexer.IF:    true,
	lexer.FETCH: true,
	lexer.SAVE:  true,
	lexer.PRINT: true,
}

// DefaultMaxDepth bounds statement and expression nesting.
const DefaultMaxDepth = 200

const (
	codeExpect       = "PARSE-0001"
	codeExpectExpr   = "PARSE-0002"
	codeAssignTarget = "PARSE-0003"
	codeTooDeep      = "PARSE-0004"
	codeUnexpected   = "PARSE-0005"
)

// Parser represents the parser
type Parser struct {
	tokens  []lexer.Token
	current int

	depth    int
	maxDepth int
	reporter func(*perrors.HarvestError)

	structuredErrors []*perrors.HarvestError
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth sets the nesting limit. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithReporter registers fn to receive each diagnostic as it is raised.
func WithReporter(fn func(*perrors.HarvestError)) Option {
	return func(p *Parser) { p.reporter = fn }
}

// New creates a parser over tokens. Comment and whitespace tokens are
// dropped, and an EOF is appended if the slice does not end with one.
func New(tokens []lexer.Token, opts ...Option) *Parser {
	filtered := lexer.Filter(tokens)
	if n := len(filtered); n == 0 || filtered[n-1].Type != lexer.EOF {
		eof := lexer.Token{Type: lexer.EOF, Line: 1, Column: 1}
		if n > 0 {
			last := filtered[n-1]
			eof.Line = last.Line
			eof.Column = last.Column + len([]rune(last.Lexeme))
		}
		filtered = append(filtered, eof)
	}

	p := &Parser{
		tokens:   filtered,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Errors returns parser errors as "[line L, column C] Error at 'x': msg" strings.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		result[i] = err.Diagnostic()
	}
	return result
}

// StructuredErrors returns parser errors as structured HarvestError objects.
func (p *Parser) StructuredErrors() []*perrors.HarvestError {
	return p.structuredErrors
}

// ParseProgram parses every declaration up to EOF. It never fails; statements
// that could not be parsed are missing from the result and described by
// StructuredErrors.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}
	for !p.isAtEnd() {
		stmt, _ := p.declaration()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}
	return program
}

// Parse is shorthand for New(tokens, opts...).ParseProgram().
func Parse(tokens []lexer.Token, opts ...Option) ([]ast.Statement, []*perrors.HarvestError) {
	p := New(tokens, opts...)
	program := p.ParseProgram()
	return program.Statements, p.StructuredErrors()
}

// ParseSource lexes and parses src.
func ParseSource(src string, opts ...Option) (*ast.Program, []*perrors.HarvestError) {
	p := New(lexer.Tokenize(src), opts...)
	return p.ParseProgram(), p.StructuredErrors()
}

// ---------------------------------------------------------------------------
// Token cursor
// ---------------------------------------------------------------------------

func (p *Parser) peek() lexer.Token     { return p.tokens[p.current] }
func (p *Parser) previous() lexer.Token { return p.tokens[p.current-1] }
func (p *Parser) isAtEnd() bool         { return p.peek().Type == lexer.EOF }

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances past a token of type t or returns an "Expect ..." error.
// expected names the token in the message ("';'", "variable name") and
// context says where it was wanted ("after print statement").
func (p *Parser) consume(t lexer.TokenType, expected, context string) (lexer.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorAt(p.peek(), codeExpect, map[string]any{
		"Expected": expected,
		"Context":  context,
		"Got":      p.peek().Lexeme,
	})
}

// ---------------------------------------------------------------------------
// Errors and recovery
// ---------------------------------------------------------------------------

func (p *Parser) errorAt(tok lexer.Token, code string, data map[string]any) *perrors.HarvestError {
	lexeme := tok.Lexeme
	if tok.Type == lexer.EOF {
		lexeme = "end"
	}
	return perrors.NewWithPosition(code, tok.Line, tok.Column, lexeme, data)
}

func (p *Parser) report(err *perrors.HarvestError) {
	p.structuredErrors = append(p.structuredErrors, err)
	if p.reporter != nil {
		p.reporter(err)
	}
}

// synchronize discards tokens until just after a ';' or just before a token
// that starts a statement.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Type == lexer.SEMICOLON {
			return
		}
		if statementStarts[p.peek().Type] {
			return
		}
		p.advance()
	}
}

// enter increments the nesting depth, failing once it passes the limit.
// Callers must pair a successful enter with leave.
func (p *Parser) enter() error {
	if p.depth >= p.maxDepth {
		return p.errorAt(p.peek(), codeTooDeep, map[string]any{"Limit": p.maxDepth})
	}
	p.depth++
	return nil
}

func (p *Parser) leave() { p.depth-- }

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// declaration is the recovery point. A failed declaration is reported and
// skipped, and (nil, nil) is returned. Nesting-limit errors inside a block
// are passed up instead so the whole over-deep construct is dropped at once.
func (p *Parser) declaration() (ast.Statement, error) {
	start := p.peek()

	var (
		stmt ast.Statement
		err  error
	)
	if p.match(lexer.VAR) {
		stmt, err = p.varDeclaration()
	} else {
		stmt, err = p.statement()
	}
	if err == nil {
		return stmt, nil
	}

	var herr *perrors.HarvestError
	if !errors.As(err, &herr) {
		herr = p.errorAt(start, codeExpectExpr, nil)
	}
	if herr.Code == codeTooDeep && p.depth > 0 {
		return nil, herr
	}
	if start.Type == lexer.IDENTIFIER {
		perrors.SuggestKeyword(herr, start.Lexeme, lexer.Keywords())
	}
	p.report(herr)
	p.synchronize()
	return nil, nil
}

func (p *Parser) varDeclaration() (ast.Statement, error) {
	stmt := &ast.VarDecl{Token: p.previous()}

	name, err := p.consume(lexer.IDENTIFIER, "variable name", "")
	if err != nil {
		return nil, err
	}
	stmt.Name = name

	if p.match(lexer.EQUALS) {
		if stmt.Initializer, err = p.expression(); err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(lexer.SEMICOLON, "';'", "after variable declaration"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) statement() (ast.Statement, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch {
	case p.match(lexer.IF):
		return p.ifStatement()
	case p.match(lexer.FOR):
		return p.forStatement()
	case p.match(lexer.LEFT_BRACE):
		return p.block()
	case p.match(lexer.FETCH):
		return p.fetchStatement()
	case p.match(lexer.SAVE):
		return p.saveStatement()
	case p.match(lexer.PRINT):
		return p.printStatement()
	}
	return p.expressionStatement()
}

func (p *Parser) ifStatement() (ast.Statement, error) {
	stmt := &ast.If{Token: p.previous()}
	var err error

	if _, err = p.consume(lexer.LEFT_PAREN, "'('", "after 'if'"); err != nil {
		return nil, err
	}
	if stmt.Condition, err = p.expression(); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.RIGHT_PAREN, "')'", "after if condition"); err != nil {
		return nil, err
	}

	// The nested call consumes its own else first, so a dangling else
	// belongs to the innermost if.
	if stmt.Then, err = p.statement(); err != nil {
		return nil, err
	}
	if p.match(lexer.ELSE) {
		if stmt.Else, err = p.statement(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) forStatement() (ast.Statement, error) {
	stmt := &ast.For{Token: p.previous()}
	var err error

	if _, err = p.consume(lexer.LEFT_PAREN, "'('", "after 'for'"); err != nil {
		return nil, err
	}
	if stmt.Variable, err = p.consume(lexer.IDENTIFIER, "variable name", "in for loop"); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.IN, "'in'", "after variable name in for loop"); err != nil {
		return nil, err
	}
	if stmt.Iterable, err = p.expression(); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.RIGHT_PAREN, "')'", "after for loop header"); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.statement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) block() (ast.Statement, error) {
	stmt := &ast.Block{Token: p.previous(), Statements: []ast.Statement{}}

	for !p.check(lexer.RIGHT_BRACE) && !p.isAtEnd() {
		s, err := p.declaration()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmt.Statements = append(stmt.Statements, s)
		}
	}

	if _, err := p.consume(lexer.RIGHT_BRACE, "'}'", "after block"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) fetchStatement() (ast.Statement, error) {
	stmt := &ast.Fetch{Token: p.previous()}
	var err error

	if _, err = p.consume(lexer.LEFT_PAREN, "'('", "after 'fetch'"); err != nil {
		return nil, err
	}
	if stmt.URL, err = p.expression(); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.RIGHT_PAREN, "')'", "after URL"); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.SEMICOLON, "';'", "after fetch statement"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) saveStatement() (ast.Statement, error) {
	stmt := &ast.Save{Token: p.previous()}
	var err error

	if _, err = p.consume(lexer.LEFT_PAREN, "'('", "after 'save'"); err != nil {
		return nil, err
	}
	if stmt.Data, err = p.expression(); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.COMMA, "','", "after data expression"); err != nil {
		return nil, err
	}
	if stmt.Filename, err = p.expression(); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.RIGHT_PAREN, "')'", "after filename"); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.SEMICOLON, "';'", "after save statement"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) printStatement() (ast.Statement, error) {
	stmt := &ast.Print{Token: p.previous()}
	var err error

	if _, err = p.consume(lexer.LEFT_PAREN, "'('", "after 'print'"); err != nil {
		return nil, err
	}
	if stmt.Expression, err = p.expression(); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.RIGHT_PAREN, "')'", "after expression"); err != nil {
		return nil, err
	}
	if _, err = p.consume(lexer.SEMICOLON, "';'", "after print statement"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) expressionStatement() (ast.Statement, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.SEMICOLON, "';'", "after expression"); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Expression: expr}, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *Parser) expression() (ast.Expression, error) {
	return p.assignment()
}

// assignment is right-associative: a = b = c is a = (b = c).
func (p *Parser) assignment() (ast.Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	expr, err := p.binary(LOGIC_OR)
	if err != nil {
		return nil, err
	}

	if p.match(lexer.EQUALS) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		if _, ok := expr.(*ast.Variable); !ok {
			return nil, p.errorAt(equals, codeAssignTarget, nil)
		}
		return &ast.Binary{Left: expr, Operator: equals, Right: value}, nil
	}
	return expr, nil
}

// binary parses all operators at precedence prec and above, folding
// operators of the same level to the left.
func (p *Parser) binary(prec int) (ast.Expression, error) {
	if prec > PRODUCT {
		return p.unary()
	}

	left, err := p.binary(prec + 1)
	if err != nil {
		return nil, err
	}

	for precedences[p.peek().Type] == prec {
		operator := p.advance()
		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Left: left, Operator: operator, Right: right}
	}
	return left, nil
}

func (p *Parser) unary() (ast.Expression, error) {
	if p.match(lexer.NOT, lexer.MINUS) {
		operator := p.previous()
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()

		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Operator: operator, Operand: operand}, nil
	}
	return p.call()
}

// call parses a primary followed by any chain of (args) and .name suffixes.
func (p *Parser) call() (ast.Expression, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(lexer.LEFT_PAREN):
			if expr, err = p.finishCall(expr); err != nil {
				return nil, err
			}
		case p.match(lexer.DOT):
			name, err := p.propertyName()
			if err != nil {
				return nil, err
			}
			expr = &ast.PropertyAccess{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee ast.Expression) (ast.Expression, error) {
	args := []ast.Expression{}
	if !p.check(lexer.RIGHT_PAREN) {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}

	paren, err := p.consume(lexer.RIGHT_PAREN, "')'", "after arguments")
	if err != nil {
		return nil, err
	}
	return &ast.Call{Callee: callee, Paren: paren, Arguments: args}, nil
}

// propertyName accepts an identifier or any scraping verb, so that
// page.select(...) and item.text() read naturally.
func (p *Parser) propertyName() (lexer.Token, error) {
	if p.check(lexer.IDENTIFIER) || p.peek().Type.IsVerb() {
		return p.advance(), nil
	}
	return p.consume(lexer.IDENTIFIER, "property name", "after '.'")
}

func (p *Parser) primary() (ast.Expression, error) {
	tok := p.peek()

	switch tok.Type {
	case lexer.BOOLEAN:
		p.advance()
		return &ast.Literal{Token: tok, Value: tok.Lexeme == "true"}, nil

	case lexer.NUMBER:
		p.advance()
		lit := &ast.Literal{Token: tok}
		if v, err := strconv.ParseFloat(tok.Lexeme, 64); err == nil {
			lit.Value = v
		}
		return lit, nil

	case lexer.STRING:
		p.advance()
		return &ast.Literal{Token: tok, Value: tok.Lexeme[1 : len(tok.Lexeme)-1]}, nil

	case lexer.IDENTIFIER:
		p.advance()
		return &ast.Variable{Name: tok}, nil

	case lexer.SELECT:
		return p.selectCall()

	case lexer.LEFT_PAREN:
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.RIGHT_PAREN, "')'", "after expression"); err != nil {
			return nil, err
		}
		return &ast.Grouping{Token: tok, Inner: inner}, nil

	case lexer.UNKNOWN:
		return nil, p.errorAt(tok, codeUnexpected, map[string]any{"Char": tok.Lexeme})
	}

	return nil, p.errorAt(tok, codeExpectExpr, nil)
}

// selectCall turns select(expr) into an ordinary call of a variable named
// "select". The variable keeps the keyword token so positions stay exact.
func (p *Parser) selectCall() (ast.Expression, error) {
	keyword := p.advance()

	if _, err := p.consume(lexer.LEFT_PAREN, "'('", "after 'select'"); err != nil {
		return nil, err
	}
	selector, err := p.expression()
	if err != nil {
		return nil, err
	}
	paren, err := p.consume(lexer.RIGHT_PAREN, "')'", "after selector")
	if err != nil {
		return nil, err
	}
	return &ast.Call{
		Callee:    &ast.Variable{Name: keyword},
		Paren:     paren,
		Arguments: []ast.Expression{selector},
	}, nil
}
