// Package lexer turns Harvest source text into tokens.
//
// The lexer never fails. Characters it does not recognise become UNKNOWN
// tokens and are left for the parser to report. Whitespace and comments are
// emitted as trivia so tooling can see them; Filter strips them before
// parsing.
package lexer

import (
	"unicode/utf8"
)

// Lexer represents the lexical analyzer
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination, 0 at end of input
	chSize       int  // byte size of current character, 0 at end of input
	line         int  // line of the current char
	column       int  // column of the current char, counted in runes

	unterminated []Token
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character, updating line and column from the
// character being left behind.
func (l *Lexer) readChar() {
	if l.atEnd() && l.column > 0 {
		return
	}
	if l.ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.chSize = 0
		l.position = len(l.input)
		l.readPosition = len(l.input)
		return
	}

	b := l.input[l.readPosition]
	if b < utf8.RuneSelf {
		l.ch = rune(b)
		l.chSize = 1
	} else {
		l.ch, l.chSize = utf8.DecodeRuneInString(l.input[l.readPosition:])
	}
	l.position = l.readPosition
	l.readPosition += l.chSize
}

// atEnd reports whether the whole input has been consumed.
func (l *Lexer) atEnd() bool {
	return l.chSize == 0
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	b := l.input[l.readPosition]
	if b < utf8.RuneSelf {
		return rune(b)
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// NextToken scans the input and returns the next token, trivia included.
// Once the input is exhausted every call returns EOF.
func (l *Lexer) NextToken() Token {
	if l.atEnd() {
		return Token{Type: EOF, Lexeme: "", Line: l.line, Column: l.column}
	}

	start, line, col := l.position, l.line, l.column

	switch l.ch {
	case ' ', '\t', '\r', '\n':
		l.skipWhitespace()
		return l.tokenFrom(WHITESPACE, start, line, col)
	case '/':
		switch l.peekChar() {
		case '/':
			l.skipLineComment()
			return l.tokenFrom(COMMENT, start, line, col)
		case '*':
			tok := Token{Type: COMMENT, Line: line, Column: col}
			terminated := l.skipBlockComment()
			tok.Lexeme = l.input[start:l.position]
			if !terminated {
				l.unterminated = append(l.unterminated, tok)
			}
			return tok
		}
		return l.single(DIVIDE, start, line, col)
	case '"':
		if !l.readString() {
			// The malformed string yields no token; it ran to end of input.
			l.unterminated = append(l.unterminated, l.tokenFrom(STRING, start, line, col))
			return l.NextToken()
		}
		return l.tokenFrom(STRING, start, line, col)
	case '=':
		return l.oneOrTwo('=', EQUAL_EQUAL, EQUALS, start, line, col)
	case '!':
		return l.oneOrTwo('=', NOT_EQUAL, NOT, start, line, col)
	case '>':
		return l.oneOrTwo('=', GREATER_EQUAL, GREATER, start, line, col)
	case '<':
		return l.oneOrTwo('=', LESS_EQUAL, LESS, start, line, col)
	case '&':
		return l.oneOrTwo('&', AND, UNKNOWN, start, line, col)
	case '|':
		return l.oneOrTwo('|', OR, UNKNOWN, start, line, col)
	case '+':
		return l.single(PLUS, start, line, col)
	case '-':
		return l.single(MINUS, start, line, col)
	case '*':
		return l.single(MULTIPLY, start, line, col)
	case '(':
		return l.single(LEFT_PAREN, start, line, col)
	case ')':
		return l.single(RIGHT_PAREN, start, line, col)
	case '{':
		return l.single(LEFT_BRACE, start, line, col)
	case '}':
		return l.single(RIGHT_BRACE, start, line, col)
	case '[':
		return l.single(LEFT_BRACKET, start, line, col)
	case ']':
		return l.single(RIGHT_BRACKET, start, line, col)
	case ';':
		return l.single(SEMICOLON, start, line, col)
	case ',':
		return l.single(COMMA, start, line, col)
	case '.':
		return l.single(DOT, start, line, col)
	case '$':
		return l.single(DOLLAR, start, line, col)
	}

	switch {
	case isLetter(l.ch):
		l.readIdentifier()
		tok := l.tokenFrom(IDENTIFIER, start, line, col)
		tok.Type = LookupIdent(tok.Lexeme)
		return tok
	case isDigit(l.ch):
		l.readNumber()
		return l.tokenFrom(NUMBER, start, line, col)
	}
	return l.single(UNKNOWN, start, line, col)
}

// Unterminated returns the strings and block comments that reached end of
// input without being closed, in source order. Strings are not present in
// the token stream; block comments are.
func (l *Lexer) Unterminated() []Token {
	return l.unterminated
}

func (l *Lexer) tokenFrom(tt TokenType, start, line, col int) Token {
	return Token{Type: tt, Lexeme: l.input[start:l.position], Line: line, Column: col}
}

func (l *Lexer) single(tt TokenType, start, line, col int) Token {
	l.readChar()
	return l.tokenFrom(tt, start, line, col)
}

// oneOrTwo resolves a one- or two-character operator with one character of
// lookahead.
func (l *Lexer) oneOrTwo(next rune, two, one TokenType, start, line, col int) Token {
	if l.peekChar() == next {
		l.readChar()
		return l.single(two, start, line, col)
	}
	return l.single(one, start, line, col)
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.ch != '\n' {
		l.readChar()
	}
}

// skipBlockComment consumes a /* */ comment and reports whether it was closed.
func (l *Lexer) skipBlockComment() bool {
	l.readChar() // '/'
	l.readChar() // '*'
	for !l.atEnd() {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

// readString consumes a double-quoted string, quotes included, and reports
// whether it was terminated. A backslash keeps the next character inside
// the string so \" does not close it. No escapes are interpreted.
func (l *Lexer) readString() bool {
	l.readChar() // opening quote
	for !l.atEnd() {
		switch l.ch {
		case '\\':
			l.readChar()
			if l.atEnd() {
				return false
			}
		case '"':
			l.readChar()
			return true
		}
		l.readChar()
	}
	return false
}

func (l *Lexer) readIdentifier() {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
}

// readNumber consumes digits with an optional fraction. A '.' only belongs to
// the number when a digit follows it, so "1." is NUMBER then DOT.
func (l *Lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

// Tokenize returns every token in input, trivia included. The last token is
// always the single EOF.
func Tokenize(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

// Filter returns tokens without COMMENT and WHITESPACE trivia.
func Filter(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if !tok.IsTrivia() {
			out = append(out, tok)
		}
	}
	return out
}

// Scan tokenizes input for parsing. It returns the filtered tokens together
// with any unterminated strings or block comments found along the way.
func Scan(input string) (tokens []Token, unterminated []Token) {
	l := New(input)
	for {
		tok := l.NextToken()
		if !tok.IsTrivia() {
			tokens = append(tokens, tok)
		}
		if tok.Type == EOF {
			return tokens, l.Unterminated()
		}
	}
}
