package webgen

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexMode selects the tokenization rules for the region being scanned.
type lexMode int

const (
	modeTop  lexMode = iota // data block, between blocks, @server regions
	modeText                // view block text
	modeTag                 // inside <tag ...>
	modeExpr                // inside {{ }} or a directive head ( )
)

// Lexer tokenizes .webc source documents. It never fails: input it does not
// recognize is returned as raw-text tokens for the parser to judge.
type Lexer struct {
	filename string
	source   string
	pos      int  // current position in source
	readPos  int  // next position to read
	ch       rune // current character
	line     int  // current line (1-based)
	column   int  // current column (1-based)

	tokenLine     int
	tokenColumn   int
	tokenStartPos int

	mode lexMode

	// Expression state: the closing delimiter and how many nested
	// delimiters of the same kind are open.
	exprCloser rune
	exprDepth  int

	pendingOpen  bool   // second '{' of "{{" is due
	pendingClose bool   // second '}' of "}}" is due
	pendingRaw   string // block whose verbatim content is due
	afterAt      bool   // next identifier names a directive or event
	headAllowed  bool   // a '(' on the same line opens a directive head
	sawElse      bool   // last identifier was the directive name "else"
	topDepth     int    // open braces in top mode; block markers only count at zero
}

// NewLexer creates a new Lexer for the given source.
func NewLexer(filename, source string) *Lexer {
	l := &Lexer{
		filename: filename,
		source:   source,
		line:     1,
		column:   0,
	}
	l.readChar()
	return l
}

// Tokenize lexes the whole source and returns every token, ending with TokenEOF.
func Tokenize(filename, source string) []Token {
	return NewLexer(filename, source).Tokenize()
}

// Tokenize drains the lexer into a slice terminated by TokenEOF.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

// Source returns the text being lexed.
func (l *Lexer) Source() string {
	return l.source
}

// Filename returns the name used in positions.
func (l *Lexer) Filename() string {
	return l.filename
}

// readChar advances to the next character in the source.
func (l *Lexer) readChar() {
	prevWasNewline := l.ch == '\n'

	if l.readPos >= len(l.source) {
		l.ch = 0
		l.pos = l.readPos
		if prevWasNewline {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		return
	}

	r, size := utf8.DecodeRuneInString(l.source[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size

	if prevWasNewline {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.readPos:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.source[l.pos:], s)
}

// startToken marks the beginning of a new token.
func (l *Lexer) startToken() {
	l.tokenLine = l.line
	l.tokenColumn = l.column
	l.tokenStartPos = l.pos
}

// makeToken creates a token spanning from the last startToken to the current position.
func (l *Lexer) makeToken(typ TokenType, literal string) Token {
	return Token{
		Type:     typ,
		Literal:  literal,
		Line:     l.tokenLine,
		Column:   l.tokenColumn,
		StartPos: l.tokenStartPos,
		EndPos:   l.pos,
	}
}

// Next returns the next token from the source.
func (l *Lexer) Next() Token {
	if l.pendingRaw != "" {
		return l.readRawBlock()
	}
	switch l.mode {
	case modeText:
		return l.nextText()
	case modeTag:
		return l.nextTag()
	case modeExpr:
		return l.nextExpr()
	default:
		return l.nextTop()
	}
}

func (l *Lexer) nextTop() Token {
	l.skipWhitespace()
	l.startToken()

	switch {
	case l.atEOF():
		return l.makeToken(TokenEOF, "")
	case l.ch == '#' && isLetter(l.peekChar()) && l.topDepth == 0 && !l.followsWord('.'):
		return l.readBlockMarker()
	case l.ch == '/' && l.peekChar() == '/':
		return l.readLineComment()
	case l.ch == '/' && l.peekChar() == '*':
		return l.readBlockComment()
	case l.hasPrefix("<!--"):
		return l.readHTMLComment()
	case l.ch == '"' || l.ch == '\'' || l.ch == '`':
		return l.readString()
	case isDigit(l.ch):
		return l.readNumber()
	case isIdentStart(l.ch):
		return l.readIdentifier(false)
	}
	if tok, ok := l.readPunct(); ok {
		switch tok.Type {
		case TokenLBrace:
			l.topDepth++
		case TokenRBrace:
			if l.topDepth > 0 {
				l.topDepth--
			}
		}
		return tok
	}
	return l.readRaw(isTopDelimiter)
}

// followsWord reports whether the character before the current one is an
// identifier character or one of extra, as in "this.#x" or "me@host".
func (l *Lexer) followsWord(extra ...rune) bool {
	prev, size := utf8.DecodeLastRuneInString(l.source[:l.pos])
	if size == 0 {
		return false
	}
	for _, r := range extra {
		if prev == r {
			return true
		}
	}
	return isIdentPart(prev)
}

// readBlockMarker reads '#' followed by a block name and switches modes for
// the block it opens or closes.
func (l *Lexer) readBlockMarker() Token {
	l.readChar() // skip #
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '-' || l.ch == '_' {
		l.readChar()
	}
	name := l.source[start:l.pos]
	tok := l.makeToken(TokenBlockMarker, name)

	switch l.mode {
	case modeTop:
		switch name {
		case "view":
			l.mode = modeText
		case "style", "script":
			l.pendingRaw = name
		}
	case modeText:
		if name == "end" {
			l.mode = modeTop
		}
	}
	return tok
}

// readRawBlock returns everything up to the block's "#end <name>" line as a
// single raw-text token. A missing end marker runs the block to end of input.
func (l *Lexer) readRawBlock() Token {
	name := l.pendingRaw
	l.pendingRaw = ""

	end := findEndMarker(l.source, l.pos, name)
	if end == l.pos {
		return l.Next()
	}
	l.startToken()
	for l.pos < end {
		l.readChar()
	}
	return l.makeToken(TokenRawText, l.source[l.tokenStartPos:end])
}

// findEndMarker returns the offset of the first "#end <name>" at or after from,
// or len(src) when there is none.
func findEndMarker(src string, from int, name string) int {
	for i := from; i < len(src); {
		idx := strings.Index(src[i:], "#end")
		if idx < 0 {
			break
		}
		at := i + idx
		j := at + len("#end")
		k := j
		for k < len(src) && (src[k] == ' ' || src[k] == '\t') {
			k++
		}
		if k > j && strings.HasPrefix(src[k:], name) {
			after := k + len(name)
			if after >= len(src) || !isIdentPart(rune(src[after])) {
				return at
			}
		}
		i = j
	}
	return len(src)
}

// skipWhitespace skips spaces, tabs and newlines; readChar keeps the line count.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

// skipSpaces skips spaces and tabs only.
func (l *Lexer) skipSpaces() {
	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}
}

func (l *Lexer) readLineComment() Token {
	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}
	return l.makeToken(TokenComment, l.source[l.tokenStartPos:l.pos])
}

func (l *Lexer) readBlockComment() Token {
	l.readChar() // skip /
	l.readChar() // skip *
	for !l.atEOF() {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			break
		}
		l.readChar()
	}
	return l.makeToken(TokenComment, l.source[l.tokenStartPos:l.pos])
}

func (l *Lexer) readHTMLComment() Token {
	for range len("<!--") {
		l.readChar()
	}
	for !l.atEOF() {
		if l.hasPrefix("-->") {
			l.readChar()
			l.readChar()
			l.readChar()
			break
		}
		l.readChar()
	}
	return l.makeToken(TokenComment, l.source[l.tokenStartPos:l.pos])
}

// readIdentifier reads an identifier. Hyphens are accepted when allowHyphen
// is set (directive names, tag and attribute names).
func (l *Lexer) readIdentifier(allowHyphen bool) Token {
	start := l.pos
	for isIdentPart(l.ch) || (allowHyphen && l.ch == '-' && l.pos > start) {
		l.readChar()
	}
	return l.makeToken(TokenIdent, l.source[start:l.pos])
}

var punctTokens = map[rune]TokenType{
	'=': TokenEquals,
	'{': TokenLBrace,
	'}': TokenRBrace,
	'[': TokenLBracket,
	']': TokenRBracket,
	'(': TokenLParen,
	')': TokenRParen,
	'<': TokenLAngle,
	'>': TokenRAngle,
	'/': TokenSlash,
	'@': TokenAt,
	'.': TokenDot,
	',': TokenComma,
	':': TokenColon,
	';': TokenSemicolon,
}

// readPunct reads a single-character punctuation token.
func (l *Lexer) readPunct() (Token, bool) {
	typ, ok := punctTokens[l.ch]
	if !ok {
		return Token{}, false
	}
	ch := l.ch
	l.readChar()
	return l.makeToken(typ, string(ch)), true
}

// readRaw consumes at least one character and stops before whitespace or any
// character for which isDelim reports true.
func (l *Lexer) readRaw(isDelim func(rune) bool) Token {
	start := l.pos
	l.readChar()
	for !l.atEOF() && !isSpace(l.ch) && !isDelim(l.ch) {
		l.readChar()
	}
	return l.makeToken(TokenRawText, l.source[start:l.pos])
}

func isTopDelimiter(ch rune) bool {
	if _, ok := punctTokens[ch]; ok {
		return true
	}
	return isIdentPart(ch) || ch == '"' || ch == '\'' || ch == '`' || ch == '#'
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch >= utf8.RuneSelf && unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return isLetter(ch) || ch == '_' || ch == '$'
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
