package webgen

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/grindlemire/go-webc/internal/minify"
)

// mangledPrefix marks runtime-internal names the mangle pass may shorten.
const mangledPrefix = "$w_"

// maxAssetBytes is the size above which the warnings pass flags an asset.
const maxAssetBytes = 100 * 1024

func minifyHTMLPass(_ context.Context, cc *CompilationContext) error {
	src, ok := cc.Asset(AssetHTML)
	if !ok {
		return nil
	}
	out, err := minify.HTML(src)
	if err != nil {
		return err
	}
	cc.SetAsset(AssetHTML, out)
	return nil
}

func minifyCSSPass(ctx context.Context, cc *CompilationContext) error {
	src, ok := cc.Asset(AssetCSS)
	if !ok || src == "" {
		return nil
	}
	out, err := minify.CSS(ctx, src)
	var syn *minify.SyntaxError
	if errors.As(err, &syn) {
		cc.Warn(PassMinifyCSS, nil, "stylesheet not minified (%v); whitespace collapsed instead", syn)
		out, err = minify.CollapseSpace(src), nil
	}
	if err != nil {
		return err
	}
	cc.SetAsset(AssetCSS, out)
	return nil
}

func minifyJSPass(ctx context.Context, cc *CompilationContext) error {
	for _, name := range []string{AssetJS, AssetServerJS} {
		src, ok := cc.Asset(name)
		if !ok || src == "" {
			continue
		}
		out, err := minify.JS(ctx, src)
		var syn *minify.SyntaxError
		if errors.As(err, &syn) {
			cc.Warn(PassMinifyJS, nil, "%s not minified (%v); blank lines removed instead", name, syn)
			out, err = minify.CollapseLines(src), nil
		}
		if err != nil {
			return err
		}
		cc.SetAsset(name, out)
	}
	if _, ok := cc.Asset(AssetSourceMap); ok {
		cc.DeleteAsset(AssetSourceMap)
		cc.sourceMap = nil
		cc.Warn(PassMinifyJS, nil, "source map dropped: it does not describe minified output")
	}
	return nil
}

func manglePass(ctx context.Context, cc *CompilationContext) error {
	src, ok := cc.Asset(AssetJS)
	if !ok || src == "" {
		return nil
	}
	out, err := minify.MangleJS(ctx, src, mangledPrefix)
	if err != nil {
		return err
	}
	cc.SetAsset(AssetJS, out)
	return nil
}

// warningsPass reports data variables nothing reads, data variables declared
// twice and assets above the size budget.
func warningsPass(_ context.Context, cc *CompilationContext) error {
	doc := cc.Document
	if doc == nil || cc.Graph == nil {
		return nil
	}

	seen := make(map[string]bool)
	for _, v := range doc.Data.Vars {
		if seen[v.Name] {
			pos := v.Position
			cc.Warn(PassWarnings, &pos, "data variable %q declared more than once; the first declaration is used", v.Name)
		}
		seen[v.Name] = true
	}

	used := referencedOutsideView(doc)
	for _, name := range cc.Graph.Unused() {
		if used[name] || feedsOthers(cc.Graph, name) {
			continue
		}
		var pos *Position
		if v := doc.Data.Lookup(name); v != nil {
			p := v.Position
			pos = &p
		}
		cc.Warn(PassWarnings, pos, "data variable %q is never used", name)
	}

	for _, name := range slices.Sorted(maps.Keys(cc.assets)) {
		if name == AssetSourceMap {
			continue
		}
		if n := len(cc.assets[name]); n > maxAssetBytes {
			cc.Warn(PassWarnings, nil, "asset %s is %.1f KiB, above the %d KiB budget", name, float64(n)/1024, maxAssetBytes/1024)
		}
	}
	return nil
}

// feedsOthers reports whether another data variable is derived from name.
func feedsOthers(g *ReactivityGraph, name string) bool {
	for _, other := range g.Order {
		if slices.Contains(g.Vars[other].Dependencies, name) {
			return true
		}
	}
	return false
}

// referencedOutsideView collects identifiers read by event handlers, bound
// attributes and the script block. The reactivity graph only tracks view
// reads.
func referencedOutsideView(doc *Document) map[string]bool {
	used := make(map[string]bool)
	Walk(doc.View.Nodes, func(n Node) bool {
		if e, ok := n.(*Element); ok {
			for _, a := range e.Attributes {
				if a.Dynamic {
					for _, id := range Identifiers(a.Value) {
						used[id] = true
					}
				}
			}
		}
		return true
	})
	for _, id := range referencedIdents(scanExpr(doc.Script.Content)) {
		used[id] = true
	}
	return used
}

// knownGlobals are names a view expression may read without declaring them.
var knownGlobals = map[string]bool{
	"window": true, "document": true, "navigator": true, "location": true,
	"localStorage": true, "sessionStorage": true, "console": true,
	"Math": true, "JSON": true, "Date": true, "Number": true, "String": true,
	"Array": true, "Object": true, "Boolean": true, "Intl": true,
	"parseInt": true, "parseFloat": true, "isNaN": true,
	"encodeURIComponent": true, "decodeURIComponent": true,
	"new": true, "typeof": true, "instanceof": true, "void": true, "this": true,
	"$event": true, "$el": true, "NaN": true, "Infinity": true,
}

// staticHintsPass reports identifiers the view reads but nothing declares,
// with a suggestion when a declared name is close, and hints about a
// strategy that does not fit the document.
func staticHintsPass(_ context.Context, cc *CompilationContext) error {
	doc := cc.Document
	if doc == nil {
		return nil
	}

	declared := slices.Clone(doc.Data.Names())
	declared = append(declared, slices.Sorted(maps.Keys(declaredNames(scanExpr(doc.Script.Content))))...)
	for _, a := range doc.Actions {
		declared = append(declared, a.Name)
	}

	h := &hintWalker{cc: cc, declared: declared}
	h.walk(doc.View.Nodes, nil)

	switch {
	case cc.Strategy == StrategyStatic && (cc.Features.Events || cc.Features.Reactive):
		cc.Warn(PassStaticHints, nil, "static strategy ships no script: %d event bindings and %d data variables will be inert",
			cc.Features.EventBindings, cc.Features.DataVars)
	case cc.Strategy != StrategyStatic && !cc.Features.Events && !cc.Features.Reactive && !cc.Features.Forms:
		cc.Warn(PassStaticHints, nil, "document has no interactivity; the static strategy would ship no script")
	}
	return nil
}

type hintWalker struct {
	cc       *CompilationContext
	declared []string
}

func (h *hintWalker) walk(nodes []Node, loopVars []string) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Interpolation:
			h.check(n.Expr, n.Position, loopVars)
		case *Element:
			for _, a := range n.Attributes {
				if a.Kind == AttrBound {
					h.check(a.Value, a.Position, loopVars)
				}
			}
			h.walk(n.Children, loopVars)
		case *Directive:
			h.check(n.Condition, n.Position, loopVars)
			h.check(n.Iterable, n.Position, loopVars)
			inner := loopVars
			if n.Kind == DirectiveFor {
				inner = append(slices.Clone(loopVars), n.Iterator)
				if n.Index != "" {
					inner = append(inner, n.Index)
				}
			}
			h.walk(n.Children, inner)
		}
	}
}

func (h *hintWalker) check(e Expr, pos Position, loopVars []string) {
	for _, id := range Identifiers(e) {
		if knownGlobals[id] || slices.Contains(loopVars, id) || slices.Contains(h.declared, id) {
			continue
		}
		msg := fmt.Sprintf("%q is not declared in #data, #script or @server", id)
		if hint := suggestion(id, append(slices.Clone(h.declared), loopVars...)); hint != "" {
			msg += "; " + hint
		}
		p := pos
		h.cc.Warn(PassStaticHints, &p, "%s", msg)
	}
}

// AssetSize is one row of the bundle analysis.
type AssetSize struct {
	Name  string `json:"name"`
	Bytes int    `json:"bytes"`
	Gzip  int    `json:"gzip"`
}

func bundleAnalysisPass(_ context.Context, cc *CompilationContext) error {
	var sizes []AssetSize
	for _, name := range slices.Sorted(maps.Keys(cc.assets)) {
		content := cc.assets[name]
		gz, err := gzipSize(content)
		if err != nil {
			return fmt.Errorf("measuring %s: %w", name, err)
		}
		sizes = append(sizes, AssetSize{Name: name, Bytes: len(content), Gzip: gz})
	}
	cc.bundle = sizes
	return nil
}

// gzipSize returns the compressed size of s at the default level.
func gzipSize(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

// describeSizes formats the bundle analysis for the log.
func describeSizes(sizes []AssetSize) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = fmt.Sprintf("%s=%d/%d", s.Name, s.Bytes, s.Gzip)
	}
	return strings.Join(parts, " ")
}
