package config

import (
	"strings"
	"unicode/utf8"
)

// Lexer splits a parameter file into key, '=', value and newline tokens.
// A key runs up to '=' or end of line; a value runs to end of line.
type Lexer struct {
	input     []byte
	pos       int
	line      int
	col       int
	afterEq   bool // the rest of the line is a value
	lineStart bool
}

func NewLexer(input []byte) *Lexer {
	return &Lexer{
		input:     input,
		line:      1,
		lineStart: true,
	}
}

// NextToken returns the next token in the stream
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return l.newToken(TokenEOF, "")
	}

	ch := l.peek()
	if ch == '\n' {
		line, col := l.line, l.col
		l.advance()
		l.afterEq = false
		l.lineStart = true
		return Token{Type: TokenNewline, Literal: "\n", Line: line, Col: col}
	}

	if l.afterEq {
		return l.readValue()
	}

	if ch == '#' && l.lineStart {
		return l.readComment()
	}
	l.lineStart = false

	if ch == '=' {
		l.advance()
		l.afterEq = true
		return l.newToken(TokenEqual, "=")
	}

	return l.readKey()
}

func (l *Lexer) newToken(typ TokenType, literal string) Token {
	return Token{Type: typ, Literal: literal, Line: l.line, Col: l.col - utf8.RuneCountInString(literal)}
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, w := utf8.DecodeRune(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRune(l.input[l.pos:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' {
			l.advance()
		} else {
			break
		}
	}
}

// restOfLine consumes up to, not including, the next newline
func (l *Lexer) restOfLine(stop rune) string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '\n' || ch == stop {
			break
		}
		l.advance()
	}
	return strings.TrimRight(string(l.input[start:l.pos]), " \t\r")
}

func (l *Lexer) readComment() Token {
	l.advance()
	return l.newToken(TokenComment, l.restOfLine(0))
}

func (l *Lexer) readKey() Token {
	return l.newToken(TokenKey, l.restOfLine('='))
}

func (l *Lexer) readValue() Token {
	if l.peek() == '"' {
		return l.readString()
	}
	return l.newToken(TokenValue, l.restOfLine(0))
}

// readString reads a double-quoted value; anything after the closing quote is ignored
func (l *Lexer) readString() Token {
	l.advance()
	var sb strings.Builder
	escaped := false
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '\n' {
			return l.newToken(TokenError, "unterminated string")
		}
		l.advance()
		switch {
		case escaped:
			switch ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(ch)
			}
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			l.restOfLine(0)
			return l.newToken(TokenValue, sb.String())
		default:
			sb.WriteRune(ch)
		}
	}
	return l.newToken(TokenError, "unterminated string")
}
