package webgen

// parseDataBlock parses "#data (name = value)* #end data".
//
// Values are not delimited, so a value runs until the end marker or until an
// identifier that starts a new line at bracket depth zero and is followed by
// '='. Everything in between is the value's source text.
func (p *Parser) parseDataBlock() *DataBlock {
	block := &DataBlock{Position: p.position()}
	p.advance() // #data

	for !p.failed() {
		p.skipComments()
		if p.isEndMarker() || p.current.Type == TokenEOF {
			break
		}

		pos := p.position()
		name, ok := p.expectIdent("")
		if !ok {
			return block
		}
		if !p.expect(TokenEquals) {
			return block
		}

		expr, ok := p.parseDataValue()
		if !ok {
			return block
		}
		block.Vars = append(block.Vars, &DataVar{Name: name, Value: expr, Position: pos})
	}

	p.expectEnd("data")
	return block
}

// parseDataValue collects the tokens of one data value and parses their text.
func (p *Parser) parseDataValue() (Expr, bool) {
	var first, last Token
	count := 0
	depth := 0

	for {
		tok := p.current
		if tok.Type == TokenEOF || tok.Type == TokenBlockMarker {
			break
		}
		if depth == 0 && count > 0 && tok.Type == TokenIdent &&
			tok.Line > last.Line && p.peek.Type == TokenEquals {
			break
		}

		switch tok.Type {
		case TokenLBrace, TokenLBracket, TokenLParen:
			depth++
		case TokenRBrace, TokenRBracket, TokenRParen:
			if depth > 0 {
				depth--
			}
		}
		if tok.Type != TokenComment {
			if count == 0 {
				first = tok
			}
			last = tok
			count++
		}
		p.advance()
	}

	if count == 0 {
		p.fail("value")
		return nil, false
	}
	return ParseExpr(p.text(first.StartPos, last.EndPos)), true
}
