package webgen

// nextText lexes view-block text. Quotes and "//" are ordinary text here so
// prose and URLs survive; only markup, directives and interpolations are
// structural.
func (l *Lexer) nextText() Token {
	if l.pendingOpen {
		l.pendingOpen = false
		l.startToken()
		l.readChar()
		l.enterExpr('}')
		return l.makeToken(TokenLBrace, "{")
	}

	if l.headAllowed {
		l.headAllowed = false
		l.skipSpaces()
		if l.ch == '(' {
			l.startToken()
			l.readChar()
			l.enterExpr(')')
			l.sawElse = false
			return l.makeToken(TokenLParen, "(")
		}
	}

	l.skipWhitespace()
	l.startToken()
	wasElse := l.sawElse
	l.sawElse = false

	switch {
	case l.atEOF():
		return l.makeToken(TokenEOF, "")
	case l.ch == '#' && isLetter(l.peekChar()):
		return l.readBlockMarker()
	case l.hasPrefix("<!--"):
		return l.readHTMLComment()
	case l.ch == '<' && (isLetter(l.peekChar()) || l.peekChar() == '/'):
		l.readChar()
		l.mode = modeTag
		return l.makeToken(TokenLAngle, "<")
	case l.ch == '{' && l.peekChar() == '{':
		l.readChar()
		l.pendingOpen = true
		return l.makeToken(TokenLBrace, "{")
	case l.ch == '@' && isLetter(l.peekChar()) && !l.followsWord():
		l.readChar()
		l.afterAt = true
		return l.makeToken(TokenAt, "@")
	case isDigit(l.ch):
		return l.readNumber()
	case isIdentStart(l.ch):
		if l.afterAt {
			l.afterAt = false
			tok := l.readIdentifier(true)
			l.headAllowed = true
			l.sawElse = tok.Literal == "else"
			return tok
		}
		tok := l.readIdentifier(false)
		if wasElse && tok.Literal == "if" {
			l.headAllowed = true
		}
		return tok
	}
	switch l.ch {
	case '(', ')', '[', ']', ',', '.', ':', ';', '=', '}', '>', '/':
		tok, _ := l.readPunct()
		return tok
	}
	return l.readRaw(isTextDelimiter)
}

func isTextDelimiter(ch rune) bool {
	switch ch {
	case '<', '{', '}', '@', '#', '(', ')', '[', ']', ',', '.', ':', ';', '=', '>', '/':
		return true
	}
	return isIdentPart(ch)
}

// nextTag lexes the inside of a start or end tag.
func (l *Lexer) nextTag() Token {
	l.skipWhitespace()
	l.startToken()

	switch {
	case l.atEOF():
		return l.makeToken(TokenEOF, "")
	case l.ch == '>':
		l.readChar()
		l.mode = modeText
		return l.makeToken(TokenRAngle, ">")
	case l.ch == '"' || l.ch == '\'' || l.ch == '`':
		return l.readString()
	case isIdentPart(l.ch):
		return l.readIdentifier(true)
	}
	switch l.ch {
	case '/', '=', '@', ':', '.':
		tok, _ := l.readPunct()
		return tok
	}
	return l.readRaw(isTagDelimiter)
}

func isTagDelimiter(ch rune) bool {
	switch ch {
	case '>', '/', '=', '"', '\'', '`':
		return true
	}
	return false
}

// enterExpr switches to expression mode until closer is seen at depth zero.
func (l *Lexer) enterExpr(closer rune) {
	l.mode = modeExpr
	l.exprCloser = closer
	l.exprDepth = 0
}

// nextExpr lexes an interpolation body or a directive head. Only delimiters of
// the closer's own kind are counted, so "{{ {a: {b: 1}} }}" closes once.
func (l *Lexer) nextExpr() Token {
	if l.pendingClose {
		l.pendingClose = false
		l.startToken()
		l.readChar()
		l.mode = modeText
		return l.makeToken(TokenRBrace, "}")
	}

	l.skipWhitespace()
	l.startToken()

	switch {
	case l.atEOF():
		return l.makeToken(TokenEOF, "")
	case l.ch == '"' || l.ch == '\'' || l.ch == '`':
		return l.readString()
	case isDigit(l.ch):
		return l.readNumber()
	case isIdentStart(l.ch):
		return l.readIdentifier(false)
	}

	switch l.ch {
	case '{':
		if l.exprCloser == '}' {
			l.exprDepth++
		}
	case '}':
		if l.exprCloser == '}' {
			if l.exprDepth == 0 && l.peekChar() == '}' {
				l.readChar()
				l.pendingClose = true
				return l.makeToken(TokenRBrace, "}")
			}
			if l.exprDepth > 0 {
				l.exprDepth--
			}
		}
	case '(':
		if l.exprCloser == ')' {
			l.exprDepth++
		}
	case ')':
		if l.exprCloser == ')' {
			if l.exprDepth == 0 {
				l.readChar()
				l.mode = modeText
				return l.makeToken(TokenRParen, ")")
			}
			l.exprDepth--
		}
	}
	if tok, ok := l.readPunct(); ok {
		return tok
	}
	return l.readRaw(isTopDelimiter)
}
