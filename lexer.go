// lexer.go: byte-level scanner for exprlang source lines.
package exprlang

import (
	"fmt"
	"strconv"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LROUND  // "("
	RROUND  // ")"
	LSQUARE // "["
	RSQUARE // "]"
	LCURLY  // "{"
	RCURLY  // "}"
	COMMA   // ","
	SEMI    // ";"

	// Operators
	PLUS
	MINUS
	MULT
	DIV
	ASSIGN // "="
	EQ     // "=="
	NEQ    // "!="
	LESS
	LESS_EQ
	GREATER
	GREATER_EQ
	BANG // "!"
	AND  // "&&"
	OR   // "||"

	// Literals & identifiers
	ID
	STRING
	NUMBER
	BOOLEAN
	IT // the implicit iteration variable "@it"

	// Keywords
	NOT
)

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string      // raw text slice
	Literal interface{} // parsed value for literals
	Line    int         // 1-based
	Col     int         // 0-based column within line
}

// keywords maps reserved words to token types. Both capitalizations of the
// boolean literals are accepted.
var keywords = map[string]TokenType{
	"true":  BOOLEAN,
	"false": BOOLEAN,
	"True":  BOOLEAN,
	"False": BOOLEAN,
	"not":   NOT,
}

// Lexer scans an exprlang source string into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	// precise token start position
	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{
		src:  src,
		line: 1,
		col:  0,
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) rewindToStart() {
	l.cur = l.start
	l.line = l.tokStartLine
	l.col = l.tokStartCol
}

func (l *Lexer) addToken(tt TokenType, lit interface{}) Token {
	lex := l.src[l.start:l.cur]
	tok := Token{
		Type:    tt,
		Lexeme:  lex,
		Literal: lit,
		Line:    l.tokStartLine,
		Col:     l.tokStartCol,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case ' ', '\r', '\n', '\t':
			l.advance()
			l.start = l.cur
		default:
			return
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

// ----- errors -----

// LexError reports an unrecognized character or an unterminated literal.
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

func (l *Lexer) err(msg string) error {
	return &LexError{Line: l.tokStartLine, Col: l.tokStartCol, Msg: msg}
}

// ----- scanners -----

// scanString parses a single- or double-quoted string literal. The closing
// quote must match the opening one. No escape sequences are processed.
func (l *Lexer) scanString() (string, error) {
	del := l.src[l.start]
	l.advance() // consume the delimiter
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == del {
			return l.src[l.start+1 : l.cur-1], nil
		}
	}
	return "", l.err("string was not terminated")
}

// scanIdentifier parses [A-Za-z_][A-Za-z0-9_]*
func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// scanNumber parses digits with an optional fractional part. No exponent.
func (l *Lexer) scanNumber() (float64, error) {
	for {
		b, ok := l.peek()
		if !ok || !isDigit(b) {
			break
		}
		l.advance()
	}
	// fractional part only when '.' is followed by a digit
	if b, ok := l.peek(); ok && b == '.' {
		if l.cur+1 < len(l.src) && isDigit(l.src[l.cur+1]) {
			l.advance() // consume '.'
			for {
				b, ok := l.peek()
				if !ok || !isDigit(b) {
					break
				}
				l.advance()
			}
		}
	}
	lex := l.src[l.start:l.cur]
	v, convErr := strconv.ParseFloat(lex, 64)
	if convErr != nil {
		return 0, l.err("invalid number literal")
	}
	return v, nil
}

// ----- main scanner -----

func (l *Lexer) scanToken() (Token, error) {
	l.skipWhitespace()
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	l.start = l.cur

	if l.isAtEnd() {
		return l.addToken(EOF, nil), nil
	}

	ch, _ := l.advance()

	// Single-char tokens & punctuation
	switch ch {
	case '(':
		return l.addToken(LROUND, "("), nil
	case ')':
		return l.addToken(RROUND, ")"), nil
	case '[':
		return l.addToken(LSQUARE, "["), nil
	case ']':
		return l.addToken(RSQUARE, "]"), nil
	case '{':
		return l.addToken(LCURLY, "{"), nil
	case '}':
		return l.addToken(RCURLY, "}"), nil
	case ',':
		return l.addToken(COMMA, ","), nil
	case ';':
		return l.addToken(SEMI, ";"), nil
	case '+':
		return l.addToken(PLUS, "+"), nil
	case '-':
		return l.addToken(MINUS, "-"), nil
	case '*':
		return l.addToken(MULT, "*"), nil
	case '/':
		return l.addToken(DIV, "/"), nil
	}

	// Two-char operators and fallbacks
	switch ch {
	case '=':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(EQ, "=="), nil
		}
		return l.addToken(ASSIGN, "="), nil
	case '!':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(NEQ, "!="), nil
		}
		return l.addToken(BANG, "!"), nil
	case '<':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(LESS_EQ, "<="), nil
		}
		return l.addToken(LESS, "<"), nil
	case '>':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(GREATER_EQ, ">="), nil
		}
		return l.addToken(GREATER, ">"), nil
	case '&':
		if b, ok := l.peek(); ok && b == '&' {
			l.advance()
			return l.addToken(AND, "&&"), nil
		}
		return Token{}, l.err("unexpected character: '&'")
	case '|':
		if b, ok := l.peek(); ok && b == '|' {
			l.advance()
			return l.addToken(OR, "||"), nil
		}
		return Token{}, l.err("unexpected character: '|'")
	}

	// "@it", the implicit iteration variable
	if ch == '@' {
		for {
			b, ok := l.peek()
			if !ok || !isAlphaNum(b) {
				break
			}
			l.advance()
		}
		lex := l.src[l.start:l.cur]
		if lex != "@it" {
			return Token{}, l.err(fmt.Sprintf("unexpected identifier %q (did you mean @it?)", lex))
		}
		return l.addToken(IT, "@it"), nil
	}

	// Strings
	if ch == '"' || ch == '\'' {
		l.rewindToStart()
		text, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		return l.addToken(STRING, text), nil
	}

	// Numbers
	if isDigit(ch) {
		l.rewindToStart()
		v, err := l.scanNumber()
		if err != nil {
			return Token{}, err
		}
		return l.addToken(NUMBER, v), nil
	}

	// Identifiers / keywords
	if isAlpha(ch) {
		l.rewindToStart()
		lex := l.scanIdentifier()
		if tt, ok := keywords[lex]; ok {
			if tt == BOOLEAN {
				return l.addToken(BOOLEAN, lex == "true" || lex == "True"), nil
			}
			return l.addToken(tt, lex), nil
		}
		return l.addToken(ID, lex), nil
	}

	return Token{}, l.err(fmt.Sprintf("unexpected character: %q", ch))
}

// Scan tokenizes the entire source and returns tokens (EOF included).
func (l *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return l.tokens, nil
		}
	}
}
