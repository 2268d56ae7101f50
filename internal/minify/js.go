package minify

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// jsAtomic nodes are copied verbatim.
var jsAtomic = map[string]bool{
	"string":          true,
	"template_string": true,
	"regex":           true,
	"number":          true,
}

// jsStatements end with a semicolon, which the source may have left to
// automatic insertion. Line breaks are dropped, so it is written explicitly.
var jsStatements = map[string]bool{
	"expression_statement":    true,
	"lexical_declaration":     true,
	"variable_declaration":    true,
	"return_statement":        true,
	"throw_statement":         true,
	"break_statement":         true,
	"continue_statement":      true,
	"debugger_statement":      true,
	"do_statement":            true,
	"import_statement":        true,
	"export_statement":        true,
	"field_definition":        true,
	"public_field_definition": true,
}

// JS minifies a script: comments and whitespace are removed, a space is kept
// only where two tokens would otherwise merge.
func JS(ctx context.Context, src string) (string, error) {
	tree, err := parse(ctx, "javascript", javascript.GetLanguage(), src)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	w := &jsWriter{src: src}
	w.walk(tree.RootNode(), false)
	return w.sb.String(), nil
}

type jsWriter struct {
	src  string
	sb   strings.Builder
	last string
}

// walk writes n. semiFollows is set when the parent holds the statement's
// semicolon as the next sibling, as class bodies do for field definitions.
func (w *jsWriter) walk(n *sitter.Node, semiFollows bool) {
	typ := n.Type()
	switch {
	case typ == "comment" || typ == "html_comment":
		return
	case typ == "hash_bang_line":
		w.sb.WriteString(nodeText(n, w.src))
		w.sb.WriteByte('\n')
		w.last = ""
		return
	case jsAtomic[typ] || n.ChildCount() == 0:
		w.emit(nodeText(n, w.src))
		return
	}

	count := int(n.ChildCount())
	lastType := ""
	for i := 0; i < count; i++ {
		child := n.Child(i)
		w.walk(child, nextSibling(n, i) == ";")
		if t := child.Type(); t != "comment" {
			lastType = t
		}
	}
	if jsStatements[typ] && lastType != ";" && !semiFollows && !endsWithDeclaration(n) {
		w.emit(";")
	}
}

// nextSibling returns the type of the first non-comment child of n after
// index i, or "" when there is none.
func nextSibling(n *sitter.Node, i int) string {
	for j := i + 1; j < int(n.ChildCount()); j++ {
		if t := n.Child(j).Type(); t != "comment" {
			return t
		}
	}
	return ""
}

// endsWithDeclaration reports export statements wrapping a function or class
// declaration, which take no semicolon.
func endsWithDeclaration(n *sitter.Node) bool {
	if n.Type() != "export_statement" {
		return false
	}
	for i := int(n.ChildCount()) - 1; i >= 0; i-- {
		switch n.Child(i).Type() {
		case "comment":
			continue
		case "function_declaration", "generator_function_declaration", "class_declaration":
			return true
		}
		return false
	}
	return false
}

func (w *jsWriter) emit(text string) {
	if text == "" {
		return
	}
	if w.last != "" && jsNeedsSpace(w.last, text) {
		w.sb.WriteByte(' ')
	}
	w.sb.WriteString(text)
	w.last = text
}

// jsNeedsSpace reports whether prev and next would lex differently if
// written without a space between them.
func jsNeedsSpace(prev, next string) bool {
	a, b := prev[len(prev)-1], next[0]
	switch {
	case isWordByte(a) && isWordByte(b):
		return true
	case (a == '+' || a == '-') && b == a:
		return true
	case a == '/' && (b == '/' || b == '*'):
		return true
	case b == '.' && isDigits(prev):
		return true
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c == '\\' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// jsIdentLeaves are the leaf types that name variables or properties.
var jsIdentLeaves = map[string]bool{
	"identifier":                            true,
	"property_identifier":                   true,
	"shorthand_property_identifier":         true,
	"shorthand_property_identifier_pattern": true,
}

// MangleJS renames every identifier that starts with prefix, and string
// literals that hold exactly such a name, to short generated names. Names are
// assigned in order of first appearance, so the output is deterministic.
func MangleJS(ctx context.Context, src, prefix string) (string, error) {
	if !strings.Contains(src, prefix) {
		return src, nil
	}
	tree, err := parse(ctx, "javascript", javascript.GetLanguage(), src)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	m := &mangler{src: src, prefix: prefix, names: make(map[string]string)}
	m.walk(tree.RootNode())

	var sb strings.Builder
	last := 0
	for _, e := range m.edits {
		sb.WriteString(src[last:e.start])
		sb.WriteString(e.text)
		last = e.end
	}
	sb.WriteString(src[last:])
	return sb.String(), nil
}

type edit struct {
	start, end int
	text       string
}

type mangler struct {
	src    string
	prefix string
	names  map[string]string
	next   int
	edits  []edit
}

func (m *mangler) walk(n *sitter.Node) {
	typ := n.Type()
	switch {
	case jsIdentLeaves[typ]:
		if text := nodeText(n, m.src); strings.HasPrefix(text, m.prefix) {
			m.edits = append(m.edits, edit{int(n.StartByte()), int(n.EndByte()), m.short(text)})
		}
		return
	case typ == "string":
		text := nodeText(n, m.src)
		if len(text) >= 2 {
			inner := text[1 : len(text)-1]
			if strings.HasPrefix(inner, m.prefix) && isPlainIdent(inner) {
				m.edits = append(m.edits, edit{int(n.StartByte()), int(n.EndByte()), text[:1] + m.short(inner) + text[:1]})
			}
		}
		return
	case jsAtomic[typ]:
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		m.walk(n.Child(i))
	}
}

func (m *mangler) short(name string) string {
	if s, ok := m.names[name]; ok {
		return s
	}
	var s string
	for {
		s = fmt.Sprintf("_$%d", m.next)
		m.next++
		if !strings.Contains(m.src, s) {
			break
		}
	}
	m.names[name] = s
	return s
}

func isPlainIdent(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) || s[i] == '\\' {
			return false
		}
	}
	return s != ""
}
