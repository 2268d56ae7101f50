package webgen

import (
	"fmt"
	"strings"
)

// blockNames are the top-level blocks a document may contain.
var blockNames = []string{"data", "style", "view", "script"}

// Parser parses .webc token streams into a Document. It stops at the first
// error: ParseDocument then returns that *ParseError and no document.
type Parser struct {
	filename string
	source   string
	tokens   []Token
	idx      int
	current  Token
	peek     Token
	err      *ParseError
}

// NewParser creates a new Parser. The lexer is drained up front.
func NewParser(lexer *Lexer) *Parser {
	return NewParserFromTokens(lexer.Filename(), lexer.Source(), lexer.Tokenize())
}

// NewParserFromTokens creates a Parser over an already tokenized source.
func NewParserFromTokens(filename, source string, tokens []Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
		tokens = append(tokens, Token{Type: TokenEOF, Line: 1, Column: 1, StartPos: len(source), EndPos: len(source)})
	}
	p := &Parser{
		filename: filename,
		source:   source,
		tokens:   tokens,
	}
	p.current = tokens[0]
	p.peek = p.tokenAt(1)
	return p
}

// Parse tokenizes and parses source in one step.
func Parse(filename, source string) (*Document, error) {
	return NewParser(NewLexer(filename, source)).ParseDocument()
}

func (p *Parser) tokenAt(i int) Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// advance moves to the next token. EOF is sticky.
func (p *Parser) advance() {
	if p.current.Type == TokenEOF {
		return
	}
	p.idx++
	p.current = p.tokenAt(p.idx)
	p.peek = p.tokenAt(p.idx + 1)
}

// position returns the current token's position.
func (p *Parser) position() Position {
	return p.positionOf(p.current)
}

func (p *Parser) positionOf(tok Token) Position {
	return Position{File: p.filename, Line: tok.Line, Column: tok.Column}
}

// failed reports whether parsing has already stopped.
func (p *Parser) failed() bool {
	return p.err != nil
}

// fail records a mismatch at the current token. Only the first one is kept.
func (p *Parser) fail(expected string) {
	p.failHint(expected, "")
}

func (p *Parser) failHint(expected, hint string) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{
		Pos:      p.position(),
		Expected: expected,
		Got:      p.current.describe(),
		Hint:     hint,
	}
}

// expect checks that the current token has the given type and advances.
func (p *Parser) expect(typ TokenType) bool {
	if p.current.Type == typ {
		p.advance()
		return true
	}
	p.fail(fmt.Sprintf("%q", typ.String()))
	return false
}

// expectIdent consumes an identifier and returns its literal. When want is
// not empty the identifier must equal it.
func (p *Parser) expectIdent(want string) (string, bool) {
	if p.current.Type == TokenIdent && (want == "" || p.current.Literal == want) {
		lit := p.current.Literal
		p.advance()
		return lit, true
	}
	if want == "" {
		p.fail("identifier")
	} else {
		p.fail(fmt.Sprintf("%q", want))
	}
	return "", false
}

// expectEnd consumes "#end name".
func (p *Parser) expectEnd(name string) bool {
	if p.current.Type != TokenBlockMarker || p.current.Literal != "end" {
		p.fail("#end " + name)
		return false
	}
	p.advance()
	if p.current.Type != TokenIdent || p.current.Literal != name {
		p.fail(fmt.Sprintf("%q after #end", name))
		return false
	}
	p.advance()
	return true
}

func (p *Parser) skipComments() {
	for p.current.Type == TokenComment {
		p.advance()
	}
}

func (p *Parser) isEndMarker() bool {
	return p.current.Type == TokenBlockMarker && p.current.Literal == "end"
}

// text returns the source between two byte offsets.
func (p *Parser) text(start, end int) string {
	if start < 0 || end > len(p.source) || start > end {
		return ""
	}
	return p.source[start:end]
}

// ParseDocument parses a complete source into a Document.
func (p *Parser) ParseDocument() (*Document, error) {
	doc := &Document{
		Data:     &DataBlock{},
		Style:    &StyleBlock{},
		Script:   &ScriptBlock{},
		Position: p.position(),
	}
	seen := make(map[string]bool)

	for !p.failed() {
		p.skipComments()
		if p.current.Type == TokenEOF {
			break
		}

		switch p.current.Type {
		case TokenBlockMarker:
			name := p.current.Literal
			if seen[name] {
				p.failHint("a block other than #"+name, "each block may appear only once")
				break
			}
			seen[name] = true
			switch name {
			case "data":
				doc.Data = p.parseDataBlock()
			case "style":
				doc.Style = &StyleBlock{Position: p.position()}
				doc.Style.Content = p.parseRawBlock(name)
			case "script":
				doc.Script = &ScriptBlock{Position: p.position()}
				doc.Script.Content = p.parseRawBlock(name)
			case "view":
				doc.View = p.parseViewBlock()
			default:
				p.failHint("block marker (#data, #style, #view, #script)", suggestion(name, blockNames))
			}
		case TokenAt:
			if p.peek.Type == TokenIdent && p.peek.Literal == "server" {
				doc.Actions = append(doc.Actions, p.parseServerRegion()...)
				break
			}
			p.fail("block marker or @server")
		default:
			p.fail("block marker or @server")
		}
	}

	if p.err != nil {
		return nil, p.err
	}
	if doc.View == nil {
		p.fail("#view block")
		return nil, p.err
	}
	return doc, nil
}

// parseRawBlock parses "#name <raw> #end name" and returns the trimmed content.
func (p *Parser) parseRawBlock(name string) string {
	p.advance() // #name
	var content string
	if p.current.Type == TokenRawText {
		content = strings.TrimSpace(p.current.Literal)
		p.advance()
	}
	p.expectEnd(name)
	return content
}
