package config

import "fmt"

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF
	TokenComment
	TokenNewline

	TokenKey   // text left of '='
	TokenEqual // =
	TokenValue // text right of '=', unquoted
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Col     int
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("Error(%s)", t.Literal)
	case TokenNewline:
		return "Newline"
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%q...", t.Literal[:20])
	}
	return fmt.Sprintf("%q", t.Literal)
}
