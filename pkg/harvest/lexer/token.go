package lexer

import (
	"fmt"
	"sort"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Structural tokens
	UNKNOWN TokenType = iota // any character the lexer does not recognise
	EOF
	COMMENT    // // line comment or /* block comment */
	WHITESPACE // run of spaces, tabs, carriage returns and newlines

	// Keywords
	VAR  // "var"
	IF   // "if"
	ELSE // "else"
	FOR  // "for"
	IN   // "in"

	// Scraping verbs
	FETCH  // "fetch"
	SELECT // "select"
	XPATH  // "xpath"
	TEXT   // "text"
	ATTR   // "attr"
	HTML   // "html"
	SAVE   // "save"
	PRINT  // "print"

	// Literals
	IDENTIFIER // product, _url, item2
	STRING     // "h1.title"
	NUMBER     // 42, 3.5
	BOOLEAN    // true, false

	// Operators
	EQUALS        // =
	PLUS          // +
	MINUS         // -
	MULTIPLY      // *
	DIVIDE        // /
	GREATER       // >
	LESS          // <
	GREATER_EQUAL // >=
	LESS_EQUAL    // <=
	EQUAL_EQUAL   // ==
	NOT_EQUAL     // !=
	AND           // &&
	OR            // ||
	NOT           // !

	// Symbols
	LEFT_PAREN    // (
	RIGHT_PAREN   // )
	LEFT_BRACE    // {
	RIGHT_BRACE   // }
	LEFT_BRACKET  // [
	RIGHT_BRACKET // ]
	SEMICOLON     // ;
	COMMA         // ,
	DOT           // .
	DOLLAR        // $
)

// Token represents a single token. Line and Column are 1-based and point at
// the first character of Lexeme.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Column int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Lexeme: %q, Line: %d, Column: %d}",
		t.Type.String(), t.Lexeme, t.Line, t.Column)
}

// IsTrivia reports whether the token is a comment or whitespace.
func (t Token) IsTrivia() bool {
	return t.Type == COMMENT || t.Type == WHITESPACE
}

var typeNames = [...]string{
	UNKNOWN:       "UNKNOWN",
	EOF:           "EOF",
	COMMENT:       "COMMENT",
	WHITESPACE:    "WHITESPACE",
	VAR:           "VAR",
	IF:            "IF",
	ELSE:          "ELSE",
	FOR:           "FOR",
	IN:            "IN",
	FETCH:         "FETCH",
	SELECT:        "SELECT",
	XPATH:         "XPATH",
	TEXT:          "TEXT",
	ATTR:          "ATTR",
	HTML:          "HTML",
	SAVE:          "SAVE",
	PRINT:         "PRINT",
	IDENTIFIER:    "IDENTIFIER",
	STRING:        "STRING",
	NUMBER:        "NUMBER",
	BOOLEAN:       "BOOLEAN",
	EQUALS:        "EQUALS",
	PLUS:          "PLUS",
	MINUS:         "MINUS",
	MULTIPLY:      "MULTIPLY",
	DIVIDE:        "DIVIDE",
	GREATER:       "GREATER",
	LESS:          "LESS",
	GREATER_EQUAL: "GREATER_EQUAL",
	LESS_EQUAL:    "LESS_EQUAL",
	EQUAL_EQUAL:   "EQUAL_EQUAL",
	NOT_EQUAL:     "NOT_EQUAL",
	AND:           "AND",
	OR:            "OR",
	NOT:           "NOT",
	LEFT_PAREN:    "LEFT_PAREN",
	RIGHT_PAREN:   "RIGHT_PAREN",
	LEFT_BRACE:    "LEFT_BRACE",
	RIGHT_BRACE:   "RIGHT_BRACE",
	LEFT_BRACKET:  "LEFT_BRACKET",
	RIGHT_BRACKET: "RIGHT_BRACKET",
	SEMICOLON:     "SEMICOLON",
	COMMA:         "COMMA",
	DOT:           "DOT",
	DOLLAR:        "DOLLAR",
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if tt >= 0 && int(tt) < len(typeNames) && typeNames[tt] != "" {
		return typeNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// MarshalText lets token types appear by name in JSON and YAML output.
func (tt TokenType) MarshalText() ([]byte, error) {
	return []byte(tt.String()), nil
}

// IsVerb reports whether the type is one of the scraping verbs. Verbs double
// as method names after a '.'.
func (tt TokenType) IsVerb() bool {
	return tt >= FETCH && tt <= PRINT
}

// Describe returns the quoted source spelling for fixed tokens and the type
// name otherwise. Used in "expected X" diagnostics.
func (tt TokenType) Describe() string {
	if s, ok := spellings[tt]; ok {
		return "'" + s + "'"
	}
	return tt.String()
}

var spellings = map[TokenType]string{
	EQUALS: "=", PLUS: "+", MINUS: "-", MULTIPLY: "*", DIVIDE: "/",
	GREATER: ">", LESS: "<", GREATER_EQUAL: ">=", LESS_EQUAL: "<=",
	EQUAL_EQUAL: "==", NOT_EQUAL: "!=", AND: "&&", OR: "||", NOT: "!",
	LEFT_PAREN: "(", RIGHT_PAREN: ")", LEFT_BRACE: "{", RIGHT_BRACE: "}",
	LEFT_BRACKET: "[", RIGHT_BRACKET: "]", SEMICOLON: ";", COMMA: ",",
	DOT: ".", DOLLAR: "$",
	VAR: "var", IF: "if", ELSE: "else", FOR: "for", IN: "in",
	FETCH: "fetch", SELECT: "select", XPATH: "xpath", TEXT: "text",
	ATTR: "attr", HTML: "html", SAVE: "save", PRINT: "print",
}

var keywords = map[string]TokenType{
	"var":    VAR,
	"if":     IF,
	"else":   ELSE,
	"for":    FOR,
	"in":     IN,
	"fetch":  FETCH,
	"select": SELECT,
	"xpath":  XPATH,
	"text":   TEXT,
	"attr":   ATTR,
	"html":   HTML,
	"save":   SAVE,
	"print":  PRINT,
	"true":   BOOLEAN,
	"false":  BOOLEAN,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENTIFIER
}

// Keywords returns every reserved word, sorted.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
