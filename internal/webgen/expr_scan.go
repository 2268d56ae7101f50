package webgen

import (
	"strings"
)

// ExprTokenKind classifies a token of expression or handler code.
type ExprTokenKind int

const (
	ExprIdent ExprTokenKind = iota
	ExprNumber
	ExprString
	ExprTemplate
	ExprPunct
	ExprOther
)

// ExprToken is a token of expression code. Offset and End are byte offsets
// into the code the token was scanned from.
type ExprToken struct {
	Kind   ExprTokenKind
	Text   string
	Value  string // unescaped content for ExprString
	Offset int
	End    int
}

// punctuators is ordered longest first so scanning is greedy.
var punctuators = []string{
	">>>=", "...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".", "@", "#",
}

// scanExpr splits code into tokens. It understands enough of the host
// language (strings, template strings, numbers, identifiers, punctuators) to
// tell identifiers apart from text inside literals; it does not parse.
func scanExpr(code string) []ExprToken {
	var toks []ExprToken
	i := 0
	for i < len(code) {
		ch := rune(code[i])
		switch {
		case isSpace(ch):
			i++
			continue
		case ch == '/' && i+1 < len(code) && code[i+1] == '/':
			for i < len(code) && code[i] != '\n' {
				i++
			}
			continue
		case ch == '/' && i+1 < len(code) && code[i+1] == '*':
			end := strings.Index(code[i+2:], "*/")
			if end < 0 {
				i = len(code)
			} else {
				i += end + 4
			}
			continue
		}

		start := i
		switch {
		case ch == '"' || ch == '\'':
			value, end := scanQuoted(code, i)
			toks = append(toks, ExprToken{Kind: ExprString, Text: code[start:end], Value: value, Offset: start, End: end})
			i = end
		case ch == '`':
			end := scanTemplate(code, i)
			toks = append(toks, ExprToken{Kind: ExprTemplate, Text: code[start:end], Offset: start, End: end})
			i = end
		case isDigit(ch) || (ch == '.' && i+1 < len(code) && isDigit(rune(code[i+1]))):
			i++
			for i < len(code) && (isIdentPart(rune(code[i])) || code[i] == '.' ||
				((code[i] == '+' || code[i] == '-') && (code[i-1] == 'e' || code[i-1] == 'E') && !strings.HasPrefix(code[start:], "0x"))) {
				i++
			}
			toks = append(toks, ExprToken{Kind: ExprNumber, Text: code[start:i], Offset: start, End: i})
		case isIdentStart(ch) || ch >= 0x80:
			for i < len(code) && (isIdentPart(rune(code[i])) || code[i] >= 0x80) {
				i++
			}
			toks = append(toks, ExprToken{Kind: ExprIdent, Text: code[start:i], Offset: start, End: i})
		default:
			matched := false
			for _, p := range punctuators {
				if strings.HasPrefix(code[i:], p) {
					i += len(p)
					toks = append(toks, ExprToken{Kind: ExprPunct, Text: p, Offset: start, End: i})
					matched = true
					break
				}
			}
			if !matched {
				i++
				toks = append(toks, ExprToken{Kind: ExprOther, Text: code[start:i], Offset: start, End: i})
			}
		}
	}
	return toks
}

// scanQuoted reads a ' or " string starting at i and returns its unescaped
// value and the offset just past the closing quote.
func scanQuoted(code string, i int) (string, int) {
	quote := code[i]
	var sb strings.Builder
	i++
	for i < len(code) && code[i] != quote {
		if code[i] == '\\' && i+1 < len(code) {
			sb.WriteString(unescapeChar(rune(code[i+1])))
			i += 2
			continue
		}
		sb.WriteByte(code[i])
		i++
	}
	if i < len(code) {
		i++
	}
	return sb.String(), i
}

// scanTemplate returns the offset just past the template string starting at
// i, skipping over ${ } substitutions.
func scanTemplate(code string, i int) int {
	i++
	depth := 0
	for i < len(code) {
		switch {
		case code[i] == '\\':
			i += 2
			continue
		case depth == 0 && code[i] == '`':
			return i + 1
		case code[i] == '$' && i+1 < len(code) && code[i+1] == '{':
			depth++
			i += 2
			continue
		case depth > 0 && code[i] == '{':
			depth++
		case depth > 0 && code[i] == '}':
			depth--
		case depth > 0 && (code[i] == '"' || code[i] == '\''):
			_, i = scanQuoted(code, i)
			continue
		}
		i++
	}
	return len(code)
}

// templateSubs returns the [start, end) offsets of the code inside each ${ }
// substitution of a template string token.
func templateSubs(text string) [][2]int {
	var subs [][2]int
	i := 1
	for i < len(text) {
		switch {
		case text[i] == '\\':
			i += 2
		case text[i] == '$' && i+1 < len(text) && text[i+1] == '{':
			start := i + 2
			depth := 1
			j := start
			for j < len(text) && depth > 0 {
				switch text[j] {
				case '{':
					depth++
				case '}':
					depth--
				case '"', '\'':
					_, j = scanQuoted(text, j)
					continue
				case '`':
					j = scanTemplate(text, j)
					continue
				}
				j++
			}
			if depth > 0 {
				return subs
			}
			subs = append(subs, [2]int{start, j - 1})
			i = j
		default:
			i++
		}
	}
	return subs
}

// keywords are never reported as referenced identifiers.
var keywords = map[string]bool{
	"if":        true,
	"for":       true,
	"in":        true,
	"true":      true,
	"false":     true,
	"null":      true,
	"undefined": true,
}

// identRole describes how an identifier token is used in its code.
type identRole int

const (
	roleReference identRole = iota // a variable reference
	roleMember                     // after . or ?.
	roleKey                        // object literal key
	roleShorthand                  // {name} shorthand property
)

// classifyIdents reports the role of every identifier token, keyed by token index.
func classifyIdents(toks []ExprToken) map[int]identRole {
	roles := make(map[int]identRole)
	var stack []string
	for i, tok := range toks {
		if tok.Kind == ExprPunct {
			switch tok.Text {
			case "{", "(", "[":
				stack = append(stack, tok.Text)
			case "}", ")", "]":
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			}
			continue
		}
		if tok.Kind != ExprIdent {
			continue
		}
		prev, next := "", ""
		if i > 0 && toks[i-1].Kind == ExprPunct {
			prev = toks[i-1].Text
		}
		if i+1 < len(toks) && toks[i+1].Kind == ExprPunct {
			next = toks[i+1].Text
		}
		inObject := len(stack) > 0 && stack[len(stack)-1] == "{"
		switch {
		case prev == "." || prev == "?.":
			roles[i] = roleMember
		case inObject && (prev == "{" || prev == ",") && next == ":":
			roles[i] = roleKey
		case inObject && (prev == "{" || prev == ",") && (next == "}" || next == ","):
			roles[i] = roleShorthand
		default:
			roles[i] = roleReference
		}
	}
	return roles
}

// referencedIdents returns the distinct identifiers referenced by toks, in
// order of first appearance, without keywords, member names or object keys.
func referencedIdents(toks []ExprToken) []string {
	roles := classifyIdents(toks)
	seen := make(map[string]bool)
	var out []string
	for i, tok := range toks {
		if tok.Kind == ExprTemplate {
			for _, sub := range templateSubs(tok.Text) {
				for _, name := range referencedIdents(scanExpr(tok.Text[sub[0]:sub[1]])) {
					if !seen[name] {
						seen[name] = true
						out = append(out, name)
					}
				}
			}
			continue
		}
		if tok.Kind != ExprIdent {
			continue
		}
		if r := roles[i]; r == roleMember || r == roleKey {
			continue
		}
		if keywords[tok.Text] || seen[tok.Text] {
			continue
		}
		seen[tok.Text] = true
		out = append(out, tok.Text)
	}
	return out
}

// rewriteCode replaces referenced identifiers for which rename returns true,
// copying every other byte of code verbatim. Shorthand properties are
// expanded so {count} becomes {count: <replacement>}.
func rewriteCode(code string, toks []ExprToken, rename func(string) (string, bool)) string {
	roles := classifyIdents(toks)
	var sb strings.Builder
	last := 0
	for i, tok := range toks {
		if tok.Kind == ExprTemplate {
			subs := templateSubs(tok.Text)
			if len(subs) == 0 {
				continue
			}
			sb.WriteString(code[last:tok.Offset])
			prev := 0
			for _, sub := range subs {
				inner := tok.Text[sub[0]:sub[1]]
				sb.WriteString(tok.Text[prev:sub[0]])
				sb.WriteString(rewriteCode(inner, scanExpr(inner), rename))
				prev = sub[1]
			}
			sb.WriteString(tok.Text[prev:])
			last = tok.End
			continue
		}
		if tok.Kind != ExprIdent {
			continue
		}
		role := roles[i]
		if role == roleMember || role == roleKey {
			continue
		}
		repl, ok := rename(tok.Text)
		if !ok {
			continue
		}
		sb.WriteString(code[last:tok.Offset])
		if role == roleShorthand {
			sb.WriteString(tok.Text)
			sb.WriteString(": ")
		}
		sb.WriteString(repl)
		last = tok.End
	}
	sb.WriteString(code[last:])
	return sb.String()
}
