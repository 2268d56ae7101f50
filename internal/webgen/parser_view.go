package webgen

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// directiveNames known to the view grammar, used for "did you mean" hints.
var knownDirectives = []string{"if", "else", "else-if", "for", "slot", "end"}

// parseViewBlock parses "#view ViewNodes #end view".
func (p *Parser) parseViewBlock() *ViewBlock {
	block := &ViewBlock{Position: p.position()}
	p.advance() // #view

	block.Nodes = p.parseNodes(false)
	if p.failed() {
		return block
	}
	if p.current.Type == TokenAt {
		p.fail("#end view")
		return block
	}
	p.expectEnd("view")
	return block
}

// parseNodes parses view nodes until a terminator: end of input, a block end
// marker, a closing tag or an "@end". The terminator is left for the caller.
// inIf allows @else and @else-if markers in this range.
func (p *Parser) parseNodes(inIf bool) []Node {
	var nodes []Node
	lastEnd := -1     // end offset of the previous node
	prevText := false // previous node was text

	for !p.failed() {
		if p.atNodesEnd() {
			break
		}

		startTok := p.current
		var n Node

		switch {
		case p.current.Type == TokenComment:
			n = &Comment{Text: commentText(p.current.Literal), Position: p.position()}
			p.advance()
		case p.current.Type == TokenLAngle:
			n = p.parseElement()
		case p.current.Type == TokenLBrace && p.peek.Type == TokenLBrace:
			n = p.parseInterpolation()
		case p.current.Type == TokenAt && p.peek.Type == TokenIdent && p.isDirective():
			n = p.parseDirective(inIf)
		default:
			n = p.parseText(lastEnd)
			if n == nil {
				continue
			}
			nodes = append(nodes, n)
			lastEnd = p.tokenAt(p.idx - 1).EndPos
			prevText = true
			continue
		}
		if p.failed() {
			break
		}

		if lastEnd >= 0 && !prevText && startTok.StartPos > lastEnd {
			if gap := p.text(lastEnd, startTok.StartPos); strings.TrimSpace(gap) == "" {
				nodes = append(nodes, &Text{Text: gap, Position: p.positionOf(startTok)})
			}
		}
		nodes = append(nodes, n)
		lastEnd = p.tokenAt(p.idx - 1).EndPos
		prevText = false
	}
	return nodes
}

// atNodesEnd reports whether the current token ends a node range.
func (p *Parser) atNodesEnd() bool {
	switch {
	case p.current.Type == TokenEOF:
		return true
	case p.isEndMarker():
		return true
	case p.current.Type == TokenLAngle && p.peek.Type == TokenSlash:
		return true
	case p.current.Type == TokenAt && p.peek.Type == TokenIdent && p.peek.Literal == "end":
		return true
	}
	return false
}

// isDirective decides whether "@name" is a directive. A misspelled directive
// is reported as an error; anything else stays text.
func (p *Parser) isDirective() bool {
	if isKnownDirective(p.peek.Literal) {
		return true
	}
	if hint := p.misspelledDirective(); hint != "" {
		p.advance()
		p.failHint("directive", hint)
		return true
	}
	return false
}

func isKnownDirective(name string) bool {
	return name == "elseif" || slices.Contains(knownDirectives, name)
}

// misspelledDirective returns a "did you mean" hint when the unknown "@name"
// at the current position is written like a directive: directly followed by
// a "(" head and close to a known name. "@form" in prose stays text, while
// "@fi(x)" is a typo.
func (p *Parser) misspelledDirective() string {
	head := p.tokenAt(p.idx + 2)
	if head.Type != TokenLParen || head.StartPos != p.peek.EndPos {
		return ""
	}
	return suggestion(p.peek.Literal, knownDirectives)
}

// parseText merges consecutive text tokens into one Text node. Whitespace
// that separates the text from its neighbours is kept so "Hello {{name}}"
// still renders with its space.
func (p *Parser) parseText(lastEnd int) Node {
	first := p.current
	last := first
	for {
		last = p.current
		p.advance()
		if p.atNodesEnd() || p.startsNode() {
			break
		}
	}

	start := first.StartPos
	if lastEnd >= 0 && lastEnd < start {
		start = lastEnd
	}
	end := last.EndPos
	if !p.atNodesEnd() && p.current.StartPos > end {
		end = p.current.StartPos
	}
	text := p.text(start, end)
	if text == "" {
		return nil
	}
	return &Text{Text: text, Position: p.positionOf(first)}
}

// startsNode reports whether the current token begins a non-text node.
func (p *Parser) startsNode() bool {
	switch p.current.Type {
	case TokenComment, TokenLAngle:
		return true
	case TokenLBrace:
		return p.peek.Type == TokenLBrace
	case TokenAt:
		if p.peek.Type != TokenIdent {
			return false
		}
		return isKnownDirective(p.peek.Literal) || p.misspelledDirective() != ""
	}
	return false
}

func commentText(lit string) string {
	lit = strings.TrimPrefix(lit, "<!--")
	lit = strings.TrimSuffix(lit, "-->")
	return strings.TrimSpace(lit)
}

// parseElement parses <tag attrs>children</tag>, <tag/> or a void tag.
func (p *Parser) parseElement() Node {
	elem := &Element{Position: p.position()}
	p.advance() // <

	tag, ok := p.expectIdent("")
	if !ok {
		return nil
	}
	elem.Tag = tag

	for !p.failed() && p.current.Type != TokenRAngle && p.current.Type != TokenSlash {
		attr := p.parseAttribute()
		if attr == nil {
			return nil
		}
		elem.Attributes = append(elem.Attributes, attr)
	}
	if p.failed() {
		return nil
	}

	if p.current.Type == TokenSlash {
		p.advance()
		if !p.expect(TokenRAngle) {
			return nil
		}
		elem.SelfClosing = true
		return elem
	}
	p.advance() // >

	if IsVoidElement(tag) {
		elem.SelfClosing = true
		return elem
	}

	elem.Children = p.parseNodes(false)
	if p.failed() {
		return nil
	}

	closing := fmt.Sprintf("</%s>", tag)
	if p.current.Type != TokenLAngle || p.peek.Type != TokenSlash {
		p.fail(closing)
		return nil
	}
	p.advance() // <
	p.advance() // /
	if p.current.Type != TokenIdent || !strings.EqualFold(p.current.Literal, tag) {
		p.fail(closing)
		return nil
	}
	p.advance()
	if !p.expect(TokenRAngle) {
		return nil
	}
	return elem
}

// parseAttribute parses name[=value], @event[.mod]*[=code] or :name[=expr].
func (p *Parser) parseAttribute() *Attribute {
	attr := &Attribute{Position: p.position()}

	switch p.current.Type {
	case TokenAt:
		p.advance()
		attr.Kind = AttrEvent
	case TokenColon:
		p.advance()
		attr.Kind = AttrBound
	case TokenIdent:
	default:
		p.fail("attribute name or '>'")
		return nil
	}
	attr.Dynamic = attr.Kind != AttrStatic

	name, ok := p.expectIdent("")
	if !ok {
		return nil
	}
	attr.Name = name

	if attr.Kind == AttrEvent {
		for p.current.Type == TokenDot {
			p.advance()
			mod, ok := p.expectIdent("")
			if !ok {
				return nil
			}
			attr.Modifiers = append(attr.Modifiers, mod)
		}
	}

	if p.current.Type != TokenEquals {
		return attr
	}
	p.advance()

	var value string
	raw := p.text(p.current.StartPos, p.current.EndPos)
	switch p.current.Type {
	case TokenString, TokenIdent, TokenNumber, TokenRawText:
		value = p.current.Literal
		p.advance()
	default:
		p.fail("attribute value")
		return nil
	}

	if attr.Kind == AttrStatic {
		attr.Value = &StringLit{Value: value, Raw: raw}
	} else {
		attr.Value = ParseExpr(value)
	}
	return attr
}

// parseInterpolation parses "{{ expr }}". Nested braces are balanced by the
// lexer; the first "}}" at depth zero closes.
func (p *Parser) parseInterpolation() Node {
	pos := p.position()
	p.advance() // {
	open := p.current
	p.advance() // {

	depth := 0
	for !p.failed() {
		switch p.current.Type {
		case TokenEOF:
			p.fail("\"}}\"")
			return nil
		case TokenLBrace:
			depth++
		case TokenRBrace:
			if depth == 0 && p.peek.Type == TokenRBrace && p.peek.StartPos == p.current.EndPos {
				code := strings.TrimSpace(p.text(open.EndPos, p.current.StartPos))
				if code == "" {
					p.fail("expression")
					return nil
				}
				p.advance()
				p.advance()
				return &Interpolation{Expr: ParseExpr(code), Position: pos}
			}
			if depth > 0 {
				depth--
			}
		}
		p.advance()
	}
	return nil
}

// parseDirective parses a directive starting at '@'.
func (p *Parser) parseDirective(inIf bool) Node {
	if p.failed() {
		return nil
	}
	pos := p.position()
	p.advance() // @
	name := p.current.Literal
	p.advance()

	if name == "else" && p.current.Type == TokenIdent && p.current.Literal == "if" {
		p.advance()
		name = "else-if"
	}
	if name == "elseif" {
		name = "else-if"
	}

	dir := &Directive{Position: pos}
	head, hasHead := p.parseHead()
	if p.failed() {
		return nil
	}

	switch name {
	case "if", "else-if":
		if name == "if" {
			dir.Kind = DirectiveIf
		} else {
			dir.Kind = DirectiveElseIf
		}
		if !hasHead || strings.TrimSpace(head) == "" {
			p.fail(fmt.Sprintf("(condition) after @%s", name))
			return nil
		}
		dir.Condition = ParseExpr(head)
	case "else":
		dir.Kind = DirectiveElse
		if hasHead {
			p.failHint("no condition after @else", "use @else-if(condition)")
			return nil
		}
	case "for":
		dir.Kind = DirectiveFor
		if !hasHead || !p.parseForHead(dir, head) {
			p.fail("(item in items) after @for")
			return nil
		}
	case "slot":
		dir.Kind = DirectiveSlot
		dir.Name = slotName(head)
	default:
		p.fail("directive")
		return nil
	}

	if dir.Kind == DirectiveElse || dir.Kind == DirectiveElseIf {
		if !inIf {
			p.err = &ParseError{Pos: pos, Expected: "@else or @else-if inside @if", Got: "@" + name}
			return nil
		}
		return dir
	}

	dir.Children = p.parseNodes(dir.Kind == DirectiveIf)
	if p.failed() {
		return nil
	}

	kind := dir.Kind.String()
	if p.current.Type != TokenAt || p.peek.Type != TokenIdent || p.peek.Literal != "end" {
		p.fail("@end " + kind)
		return nil
	}
	p.advance() // @
	p.advance() // end
	if p.current.Type != TokenIdent || p.current.Literal != kind {
		p.fail(fmt.Sprintf("%q after @end", kind))
		return nil
	}
	p.advance()
	return dir
}

// parseHead consumes an optional "( ... )" directive head and returns its text.
func (p *Parser) parseHead() (string, bool) {
	if p.current.Type != TokenLParen {
		return "", false
	}
	open := p.current
	p.advance()
	depth := 0
	for depth > 0 || p.current.Type != TokenRParen {
		switch p.current.Type {
		case TokenEOF:
			p.fail("\")\"")
			return "", false
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
		}
		p.advance()
	}
	head := p.text(open.EndPos, p.current.StartPos)
	p.advance() // )
	return head, true
}

// parseForHead fills the iterator and iterable of a for directive from
// "item in items", "item, i in items" or "(item, i) in items". "of" is
// accepted in place of "in".
func (p *Parser) parseForHead(dir *Directive, head string) bool {
	toks := scanExpr(head)
	sep := -1
	for i, tok := range toks {
		if tok.Kind == ExprIdent && (tok.Text == "in" || tok.Text == "of") {
			sep = i
			break
		}
	}
	if sep <= 0 || sep == len(toks)-1 {
		return false
	}

	var names []string
	for _, tok := range toks[:sep] {
		switch {
		case tok.Kind == ExprIdent:
			names = append(names, tok.Text)
		case tok.Kind == ExprPunct && (tok.Text == "(" || tok.Text == ")" || tok.Text == ","):
		default:
			return false
		}
	}
	if len(names) == 0 || len(names) > 2 {
		return false
	}
	dir.Iterator = names[0]
	if len(names) == 2 {
		dir.Index = names[1]
	}
	dir.Iterable = ParseExpr(head[toks[sep].End:])
	return true
}

func slotName(head string) string {
	head = strings.TrimSpace(head)
	if unq, err := strconv.Unquote(head); err == nil {
		return unq
	}
	return strings.Trim(head, `'"`)
}
