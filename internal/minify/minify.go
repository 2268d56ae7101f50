// Package minify shrinks generated HTML, CSS and JavaScript.
//
// HTML is minified over the golang.org/x/net/html tokenizer. CSS and
// JavaScript are parsed with tree-sitter and rewritten leaf by leaf, so
// string, template and regular expression literals are never touched.
// Every minifier is idempotent: minifying its own output changes nothing.
package minify

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// SyntaxError reports source a minifier could not parse.
type SyntaxError struct {
	Lang   string
	Line   int // 1-based
	Column int // 1-based
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s syntax error at %d:%d", e.Lang, e.Line, e.Column)
}

// parse builds a syntax tree for src. A parser is created per call since
// tree-sitter parsers are not safe for concurrent use.
func parse(ctx context.Context, name string, lang *sitter.Language, src string) (*sitter.Tree, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(lang)

	tree, err := p.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		line, col := 1, 1
		if n := firstError(root); n != nil {
			pt := n.StartPoint()
			line, col = int(pt.Row)+1, int(pt.Column)+1
		}
		tree.Close()
		return nil, &SyntaxError{Lang: name, Line: line, Column: col}
	}
	return tree, nil
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *sitter.Node, src string) string {
	return src[n.StartByte():n.EndByte()]
}

// CollapseSpace replaces every whitespace run with one space. It is the
// fallback for stylesheets the CSS minifier cannot parse.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CollapseLines trims trailing whitespace and drops blank lines. It is the
// fallback for scripts the JS minifier cannot parse; line structure is kept
// so automatic semicolon insertion still applies.
func CollapseLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
