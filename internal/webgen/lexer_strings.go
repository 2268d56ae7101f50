package webgen

import "strings"

// readString reads a quoted string. The token literal is the unescaped
// content; the raw text including quotes stays addressable via StartPos/EndPos.
// Single and double quoted strings stop at an unescaped newline, template
// strings may span lines. An unterminated string runs to where it stopped.
func (l *Lexer) readString() Token {
	quote := l.ch
	l.readChar() // skip opening quote

	var sb strings.Builder
	for !l.atEOF() && l.ch != quote {
		if l.ch == '\n' && quote != '`' {
			break
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() {
				break
			}
			sb.WriteString(unescapeChar(l.ch))
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == quote {
		l.readChar() // skip closing quote
	}
	return l.makeToken(TokenString, sb.String())
}

func unescapeChar(ch rune) string {
	switch ch {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	default:
		return string(ch)
	}
}

// readNumber reads an integer or decimal literal with an optional exponent.
func (l *Lexer) readNumber() Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.makeToken(TokenNumber, l.source[start:l.pos])
}
