package webgen

import "strings"

// parseServerRegion parses "@server <function>+ @end server".
//
// Each function is
//
//	[async] function [async] name(param[: Type], ...)[: Type] { body }
//
// The body is captured verbatim by counting braces.
func (p *Parser) parseServerRegion() []*RemoteAction {
	p.advance() // @
	p.advance() // server

	var actions []*RemoteAction
	for !p.failed() {
		p.skipComments()
		if p.current.Type == TokenAt && p.peek.Type == TokenIdent && p.peek.Literal == "end" {
			break
		}
		if p.current.Type == TokenEOF {
			p.fail("@end server")
			return nil
		}
		if action := p.parseRemoteAction(); action != nil {
			actions = append(actions, action)
		}
	}
	if p.failed() {
		return nil
	}
	if len(actions) == 0 {
		p.fail("function declaration")
		return nil
	}

	p.advance() // @
	p.advance() // end
	if _, ok := p.expectIdent("server"); !ok {
		return nil
	}
	return actions
}

func (p *Parser) parseRemoteAction() *RemoteAction {
	action := &RemoteAction{Position: p.position()}

	if p.current.Type == TokenIdent && p.current.Literal == "async" {
		action.Async = true
		p.advance()
	}
	if _, ok := p.expectIdent("function"); !ok {
		return nil
	}
	if p.current.Type == TokenIdent && p.current.Literal == "async" && p.peek.Type == TokenIdent {
		action.Async = true
		p.advance()
	}

	name, ok := p.expectIdent("")
	if !ok {
		return nil
	}
	action.Name = name

	if !p.expect(TokenLParen) {
		return nil
	}
	for !p.failed() && p.current.Type != TokenRParen {
		param := Param{}
		if param.Name, ok = p.expectIdent(""); !ok {
			return nil
		}
		if p.current.Type == TokenColon {
			p.advance()
			param.Type = p.parseTypeName(TokenComma, TokenRParen)
			if param.Type == "" {
				p.fail("parameter type")
				return nil
			}
		}
		action.Params = append(action.Params, param)

		if p.current.Type == TokenComma {
			p.advance()
			continue
		}
		if p.current.Type != TokenRParen {
			p.fail("',' or ')'")
			return nil
		}
	}
	if !p.expect(TokenRParen) {
		return nil
	}

	if p.current.Type == TokenColon {
		p.advance()
		action.ReturnType = p.parseTypeName(TokenLBrace)
		if action.ReturnType == "" {
			p.fail("return type")
			return nil
		}
	}

	if p.current.Type != TokenLBrace {
		p.fail("'{' to open the function body")
		return nil
	}
	open := p.current
	p.advance()

	depth := 0
	for {
		switch p.current.Type {
		case TokenEOF:
			p.fail("'}' to close the function body")
			return nil
		case TokenLBrace:
			depth++
		case TokenRBrace:
			if depth == 0 {
				action.Body = strings.TrimSpace(p.text(open.EndPos, p.current.StartPos))
				p.advance()
				return action
			}
			depth--
		}
		p.advance()
	}
}

// parseTypeName captures a type annotation up to one of the stop tokens at
// nesting depth zero. Generic arguments (<...>) and object types ({...}) are
// part of the type.
func (p *Parser) parseTypeName(stops ...TokenType) string {
	var first, last Token
	count := 0
	depth := 0
	for p.current.Type != TokenEOF {
		if depth == 0 {
			stop := false
			for _, s := range stops {
				if p.current.Type == s {
					stop = true
				}
			}
			if stop && (p.current.Type != TokenLBrace || count > 0) {
				break
			}
		}
		switch p.current.Type {
		case TokenLAngle, TokenLBracket, TokenLParen, TokenLBrace:
			depth++
		case TokenRAngle, TokenRBracket, TokenRParen, TokenRBrace:
			if depth > 0 {
				depth--
			}
		}
		if count == 0 {
			first = p.current
		}
		last = p.current
		count++
		p.advance()
	}
	if count == 0 {
		return ""
	}
	return p.text(first.StartPos, last.EndPos)
}
