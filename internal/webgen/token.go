package webgen

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF         TokenType = iota // end of input
	TokenBlockMarker                  // #data, #end, ...
	TokenIdent                        // identifier
	TokenEquals                       // =
	TokenString                       // "...", '...' or `...`
	TokenNumber                       // 12, 1.5, 2e3
	TokenLBrace                       // {
	TokenRBrace                       // }
	TokenLBracket                     // [
	TokenRBracket                     // ]
	TokenLParen                       // (
	TokenRParen                       // )
	TokenLAngle                       // <
	TokenRAngle                       // >
	TokenSlash                        // /
	TokenAt                           // @
	TokenDot                          // .
	TokenComma                        // ,
	TokenColon                        // :
	TokenSemicolon                    // ;
	TokenComment                      // // ..., /* ... */, <!-- ... -->
	TokenRawText                      // anything else
)

var tokenNames = map[TokenType]string{
	TokenEOF:         "EOF",
	TokenBlockMarker: "BlockMarker",
	TokenIdent:       "Ident",
	TokenEquals:      "=",
	TokenString:      "String",
	TokenNumber:      "Number",
	TokenLBrace:      "{",
	TokenRBrace:      "}",
	TokenLBracket:    "[",
	TokenRBracket:    "]",
	TokenLParen:      "(",
	TokenRParen:      ")",
	TokenLAngle:      "<",
	TokenRAngle:      ">",
	TokenSlash:       "/",
	TokenAt:          "@",
	TokenDot:         ".",
	TokenComma:       ",",
	TokenColon:       ":",
	TokenSemicolon:   ";",
	TokenComment:     "Comment",
	TokenRawText:     "RawText",
}

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Token is a lexical token with its literal value and source position.
// For string tokens Literal holds the unquoted, unescaped value; the original
// text is always available through StartPos/EndPos.
type Token struct {
	Type     TokenType
	Literal  string
	Line     int
	Column   int
	StartPos int // byte offset where the token starts
	EndPos   int // byte offset just past the token
}

// String returns a debug representation of the token.
func (t Token) String() string {
	if t.Literal == "" {
		return fmt.Sprintf("%s at %d:%d", t.Type, t.Line, t.Column)
	}
	lit := t.Literal
	if len(lit) > 20 {
		lit = lit[:17] + "..."
	}
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, lit, t.Line, t.Column)
}

// describe renders the token the way parse errors quote it.
func (t Token) describe() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	case TokenBlockMarker:
		return "#" + t.Literal
	case TokenString:
		return fmt.Sprintf("string %q", t.Literal)
	case TokenIdent, TokenNumber, TokenRawText:
		return fmt.Sprintf("%s %q", t.Type, t.Literal)
	case TokenComment:
		return "comment"
	default:
		return fmt.Sprintf("%q", t.Type.String())
	}
}

// Position represents a source code location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// String returns a formatted position string.
func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}
