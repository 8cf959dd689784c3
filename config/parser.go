package config

import "fmt"

// Entry is one key=value assignment
type Entry struct {
	Key   string
	Value string
	Line  int
}

// Parser turns lexer tokens into entries in file order
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	entries   []Entry
	skipped   []int // lines holding text but no '='
}

func NewParser(input []byte) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()

	for p.peekToken.Type == TokenComment {
		p.peekToken = p.lexer.NextToken()
	}
}

// Parse returns every assignment. A later assignment to the same key overrides an
// earlier one when decoded.
func (p *Parser) Parse() ([]Entry, error) {
	for p.curToken.Type != TokenEOF {
		switch p.curToken.Type {
		case TokenNewline, TokenComment:
			p.nextToken()
		case TokenKey:
			if err := p.parseAssignment(); err != nil {
				return nil, err
			}
		case TokenEqual:
			return nil, fmt.Errorf("line %d: missing key before '='", p.curToken.Line)
		case TokenError:
			return nil, fmt.Errorf("line %d: %s", p.curToken.Line, p.curToken.Literal)
		default:
			return nil, fmt.Errorf("line %d: unexpected token %s", p.curToken.Line, p.curToken.String())
		}
	}
	return p.entries, nil
}

// Skipped returns the lines that held text without an assignment
func (p *Parser) Skipped() []int {
	return p.skipped
}

func (p *Parser) parseAssignment() error {
	key := p.curToken
	p.nextToken()

	if p.curToken.Type != TokenEqual {
		p.skipped = append(p.skipped, key.Line)
		return nil
	}
	p.nextToken()

	value := ""
	switch p.curToken.Type {
	case TokenValue:
		value = p.curToken.Literal
		p.nextToken()
	case TokenError:
		return fmt.Errorf("line %d: %s", p.curToken.Line, p.curToken.Literal)
	}

	p.entries = append(p.entries, Entry{Key: key.Literal, Value: value, Line: key.Line})
	return nil
}
