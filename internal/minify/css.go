package minify

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
)

// cssNoSpaceAfter and cssNoSpaceBefore list the bytes whitespace may be
// dropped next to. + and - are absent on purpose: calc() needs their spaces.
const (
	cssNoSpaceAfter  = "{};,>~:("
	cssNoSpaceBefore = "{};,>~)!"
)

// CSS minifies a stylesheet: comments are removed, whitespace is collapsed
// or dropped around punctuation and the last semicolon of a block goes.
// Strings are copied verbatim.
func CSS(ctx context.Context, src string) (string, error) {
	tree, err := parse(ctx, "css", css.GetLanguage(), src)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	var spans []cssSpan
	collectCSSSpans(tree.RootNode(), &spans)

	w := &cssWriter{}
	pos := 0
	for _, s := range spans {
		w.plain(src[pos:s.start])
		if s.drop {
			w.pending = true
		} else {
			w.literal(src[s.start:s.end])
		}
		pos = s.end
	}
	w.plain(src[pos:])
	return w.sb.String(), nil
}

// cssSpan is a comment (drop) or string literal found in the tree.
type cssSpan struct {
	start, end int
	drop       bool
}

func collectCSSSpans(n *sitter.Node, spans *[]cssSpan) {
	switch n.Type() {
	case "comment":
		*spans = append(*spans, cssSpan{int(n.StartByte()), int(n.EndByte()), true})
		return
	case "string_value":
		*spans = append(*spans, cssSpan{int(n.StartByte()), int(n.EndByte()), false})
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collectCSSSpans(n.Child(i), spans)
	}
}

type cssWriter struct {
	sb      strings.Builder
	last    byte
	pending bool
}

func (w *cssWriter) plain(s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' {
			w.pending = true
			continue
		}
		w.put(c)
	}
}

func (w *cssWriter) put(c byte) {
	if c == '}' && w.last == ';' {
		out := w.sb.String()
		w.sb.Reset()
		w.sb.WriteString(out[:len(out)-1])
	} else if w.pending && w.sb.Len() > 0 &&
		!strings.ContainsRune(cssNoSpaceAfter, rune(w.last)) &&
		!strings.ContainsRune(cssNoSpaceBefore, rune(c)) {
		w.sb.WriteByte(' ')
	}
	w.pending = false
	w.sb.WriteByte(c)
	w.last = c
}

func (w *cssWriter) literal(s string) {
	if s == "" {
		return
	}
	w.put(s[0])
	w.sb.WriteString(s[1:])
	w.last = s[len(s)-1]
}
