package webgen

import (
	"strconv"
	"strings"
)

// Expr is a parsed expression. Every expression is parsed once, when the
// document is parsed; the evaluator, the reactivity analyzer and the
// generator all work from this tree. Shapes outside the literal subset are
// kept as *Opaque code together with their scanned tokens.
type Expr interface {
	exprNode()
	// Code returns the expression's source text.
	Code() string
}

// StringLit is a quoted string, or a template string without substitutions.
type StringLit struct {
	Value string
	Raw   string
}

// NumberLit is a numeric literal, optionally negated.
type NumberLit struct {
	Value float64
	Raw   string
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
	Raw   string
}

// NullLit is null or undefined.
type NullLit struct {
	Raw string
}

// ArrayLit is [a, b, ...] whose elements are themselves parsed expressions.
type ArrayLit struct {
	Elems []Expr
	Raw   string
}

// ObjectField is one key: value pair of an object literal.
type ObjectField struct {
	Key   string
	Value Expr
}

// ObjectLit is {key: value, ...}. Field order is preserved.
type ObjectLit struct {
	Fields []ObjectField
	Raw    string
}

// Ident is a bare identifier or a dotted path such as user.name.
type Ident struct {
	Path []string
	Raw  string
}

// Opaque is any other code. Tokens are the scanned tokens of Raw and Idents
// the root identifiers it references.
type Opaque struct {
	Raw    string
	Tokens []ExprToken
	Idents []string
}

func (*StringLit) exprNode() {}
func (*NumberLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*NullLit) exprNode()   {}
func (*ArrayLit) exprNode()  {}
func (*ObjectLit) exprNode() {}
func (*Ident) exprNode()     {}
func (*Opaque) exprNode()    {}

func (e *StringLit) Code() string { return e.Raw }
func (e *NumberLit) Code() string { return e.Raw }
func (e *BoolLit) Code() string   { return e.Raw }
func (e *NullLit) Code() string   { return e.Raw }
func (e *ArrayLit) Code() string  { return e.Raw }
func (e *ObjectLit) Code() string { return e.Raw }
func (e *Ident) Code() string     { return e.Raw }
func (e *Opaque) Code() string    { return e.Raw }

// Root returns the first element of the path.
func (e *Ident) Root() string {
	return e.Path[0]
}

// ParseExpr parses code into an expression tree. Code that is not one of the
// literal shapes, or an identifier path, becomes *Opaque.
func ParseExpr(code string) Expr {
	code = strings.TrimSpace(code)
	toks := scanExpr(code)
	p := &exprParser{code: code, toks: toks}
	if e, ok := p.parseValue(); ok && p.pos == len(toks) {
		return e
	}
	return &Opaque{Raw: code, Tokens: toks, Idents: referencedIdents(toks)}
}

// Identifiers returns the distinct root identifiers referenced by e, in order
// of first appearance. Keywords (if, for, in, true, false, null, undefined)
// are never included.
func Identifiers(e Expr) []string {
	if e == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	add := func(names ...string) {
		for _, n := range names {
			if !seen[n] && !keywords[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	var walk func(Expr)
	walk = func(e Expr) {
		switch e := e.(type) {
		case *Ident:
			add(e.Root())
		case *ArrayLit:
			for _, el := range e.Elems {
				walk(el)
			}
		case *ObjectLit:
			for _, f := range e.Fields {
				walk(f.Value)
			}
		case *Opaque:
			add(e.Idents...)
		}
	}
	walk(e)
	return out
}

// Rewrite returns e's code with referenced identifiers replaced wherever
// rename reports true. Member names and object keys are left alone.
func Rewrite(e Expr, rename func(string) (string, bool)) string {
	if e == nil {
		return ""
	}
	switch e := e.(type) {
	case *Opaque:
		return rewriteCode(e.Raw, e.Tokens, rename)
	case *StringLit, *NumberLit, *BoolLit, *NullLit:
		return e.Code()
	default:
		code := e.Code()
		return rewriteCode(code, scanExpr(code), rename)
	}
}

// exprParser recognizes the literal subset over scanned tokens.
type exprParser struct {
	code string
	toks []ExprToken
	pos  int
}

func (p *exprParser) peek() (ExprToken, bool) {
	if p.pos >= len(p.toks) {
		return ExprToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) isPunct(text string) bool {
	tok, ok := p.peek()
	return ok && tok.Kind == ExprPunct && tok.Text == text
}

func (p *exprParser) raw(startTok int) string {
	if startTok >= len(p.toks) || p.pos == 0 {
		return ""
	}
	return p.code[p.toks[startTok].Offset:p.toks[p.pos-1].End]
}

func (p *exprParser) parseValue() (Expr, bool) {
	tok, ok := p.peek()
	if !ok {
		return nil, false
	}
	start := p.pos

	switch tok.Kind {
	case ExprString:
		p.pos++
		return &StringLit{Value: tok.Value, Raw: tok.Text}, true
	case ExprTemplate:
		if strings.Contains(tok.Text, "${") {
			return nil, false
		}
		p.pos++
		body := tok.Text[1:]
		body = strings.TrimSuffix(body, "`")
		return &StringLit{Value: body, Raw: tok.Text}, true
	case ExprNumber:
		v, err := parseNumber(tok.Text)
		if err != nil {
			return nil, false
		}
		p.pos++
		return &NumberLit{Value: v, Raw: tok.Text}, true
	case ExprIdent:
		switch tok.Text {
		case "true", "false":
			p.pos++
			return &BoolLit{Value: tok.Text == "true", Raw: tok.Text}, true
		case "null", "undefined":
			p.pos++
			return &NullLit{Raw: tok.Text}, true
		}
		return p.parseIdent()
	case ExprPunct:
		switch tok.Text {
		case "-":
			p.pos++
			next, ok := p.peek()
			if !ok || next.Kind != ExprNumber {
				return nil, false
			}
			v, err := parseNumber(next.Text)
			if err != nil {
				return nil, false
			}
			p.pos++
			return &NumberLit{Value: -v, Raw: p.raw(start)}, true
		case "[":
			return p.parseArray()
		case "{":
			return p.parseObject()
		}
	}
	return nil, false
}

func (p *exprParser) parseIdent() (Expr, bool) {
	start := p.pos
	path := []string{p.toks[p.pos].Text}
	p.pos++
	for p.isPunct(".") {
		p.pos++
		tok, ok := p.peek()
		if !ok || tok.Kind != ExprIdent {
			return nil, false
		}
		path = append(path, tok.Text)
		p.pos++
	}
	return &Ident{Path: path, Raw: p.raw(start)}, true
}

func (p *exprParser) parseArray() (Expr, bool) {
	start := p.pos
	p.pos++ // [
	arr := &ArrayLit{}
	for !p.isPunct("]") {
		el, ok := p.parseValue()
		if !ok {
			return nil, false
		}
		arr.Elems = append(arr.Elems, el)
		if p.isPunct(",") {
			p.pos++
			continue
		}
		if !p.isPunct("]") {
			return nil, false
		}
	}
	p.pos++ // ]
	arr.Raw = p.raw(start)
	return arr, true
}

func (p *exprParser) parseObject() (Expr, bool) {
	start := p.pos
	p.pos++ // {
	obj := &ObjectLit{}
	for !p.isPunct("}") {
		tok, ok := p.peek()
		if !ok {
			return nil, false
		}
		var key string
		switch tok.Kind {
		case ExprIdent, ExprNumber:
			key = tok.Text
		case ExprString:
			key = tok.Value
		default:
			return nil, false
		}
		p.pos++

		var value Expr
		if p.isPunct(":") {
			p.pos++
			if value, ok = p.parseValue(); !ok {
				return nil, false
			}
		} else if tok.Kind == ExprIdent && (p.isPunct(",") || p.isPunct("}")) {
			value = &Ident{Path: []string{key}, Raw: key}
		} else {
			return nil, false
		}
		obj.Fields = append(obj.Fields, ObjectField{Key: key, Value: value})

		if p.isPunct(",") {
			p.pos++
			continue
		}
		if !p.isPunct("}") {
			return nil, false
		}
	}
	p.pos++ // }
	obj.Raw = p.raw(start)
	return obj, true
}

func parseNumber(text string) (float64, error) {
	clean := strings.ReplaceAll(text, "_", "")
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		n, err := strconv.ParseInt(clean[2:], 16, 64)
		return float64(n), err
	}
	return strconv.ParseFloat(clean, 64)
}
