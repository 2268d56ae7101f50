package webgen

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"maragu.dev/gomponents"
	ghtml "maragu.dev/gomponents/html"
)

// keyModifiers maps event key modifiers to the KeyboardEvent.key values they
// accept.
var keyModifiers = map[string][]string{
	"enter":  {"Enter"},
	"esc":    {"Escape"},
	"tab":    {"Tab"},
	"space":  {" "},
	"up":     {"ArrowUp"},
	"down":   {"ArrowDown"},
	"left":   {"ArrowLeft"},
	"right":  {"ArrowRight"},
	"delete": {"Delete", "Backspace"},
}

func (g *Generator) genNodes(nodes []Node) []gomponents.Node {
	var out []gomponents.Node
	for _, n := range nodes {
		if gn := g.genNode(n); gn != nil {
			out = append(out, gn)
		}
	}
	return out
}

func (g *Generator) genNode(n Node) gomponents.Node {
	switch n := n.(type) {
	case *Text:
		return gomponents.Text(html.UnescapeString(n.Text))
	case *Comment:
		return gomponents.Raw("<!--" + strings.ReplaceAll(n.Text, "--", "- -") + "-->")
	case *Element:
		return g.genElement(n)
	case *Interpolation:
		return g.genInterpolation(n)
	case *Directive:
		switch n.Kind {
		case DirectiveIf:
			return g.genIf(n)
		case DirectiveFor:
			return g.genFor(n)
		case DirectiveSlot:
			return g.genSlot(n)
		}
	}
	return nil
}

func (g *Generator) genElement(e *Element) gomponents.Node {
	var attrs []gomponents.Node
	var wid string
	var itemAttrs []string
	hasEvents := false

	for _, a := range e.Attributes {
		switch a.Kind {
		case AttrStatic:
			attrs = append(attrs, staticAttr(a))

		case AttrEvent:
			hasEvents = true
			id := g.genHandler(a)
			attrs = append(attrs, gomponents.Attr("data-on-"+strings.ToLower(a.Name), id))

		case AttrBound:
			if a.Value == nil {
				attrs = append(attrs, gomponents.Attr(a.Name))
				continue
			}
			if v, ok := Evaluate(a.Value, g.loopScope()); ok {
				if n := attrNode(a.Name, v); n != nil {
					attrs = append(attrs, n)
				}
				continue
			}
			if g.templateDepth > 0 {
				g.addListDeps(a.Value)
				itemAttrs = append(itemAttrs, a.Name+"="+g.addItemFn(a.Value, a.Position))
				continue
			}
			if wid == "" {
				wid = g.nextWid()
				attrs = append(attrs, gomponents.Attr("data-wid", wid))
			}
			g.addEffect(g.nextBind(), g.depsOf(a.Value),
				fmt.Sprintf("rt.attr(%s, %s, %s);", ToJS(wid), ToJS(a.Name), g.rewrite(a.Value)), a.Position)
			if v, ok := Evaluate(a.Value, g.initScope()); ok {
				if n := attrNode(a.Name, v); n != nil {
					attrs = append(attrs, n)
				}
			}
		}
	}

	if len(itemAttrs) > 0 {
		attrs = append(attrs, gomponents.Attr("data-item-attrs", strings.Join(itemAttrs, ";")))
	}
	if hasEvents && g.strategy == StrategyIslands {
		attrs = append(attrs, gomponents.Attr("data-island", g.nextIsland()))
	}

	children := append(attrs, g.genNodes(e.Children)...)
	return gomponents.El(e.Tag, children...)
}

// staticAttr renders a plain attribute. Quoted values may contain entities;
// they are decoded here and escaped again on render.
func staticAttr(a *Attribute) gomponents.Node {
	if a.Value == nil {
		return gomponents.Attr(a.Name)
	}
	value := a.Value.Code()
	if s, ok := a.Value.(*StringLit); ok {
		value = s.Value
	}
	return gomponents.Attr(a.Name, html.UnescapeString(value))
}

// attrNode renders the value of a bound attribute the way the runtime sets
// it: false and null remove the attribute, true leaves it valueless.
func attrNode(name string, v any) gomponents.Node {
	switch v := v.(type) {
	case nil:
		return nil
	case bool:
		if !v {
			return nil
		}
		return gomponents.Attr(name)
	}
	return gomponents.Attr(name, attrString(name, v))
}

func attrString(name string, v any) string {
	switch v := v.(type) {
	case *Object:
		switch name {
		case "class":
			var classes []string
			for _, k := range v.Keys {
				if Truthy(v.Values[k]) {
					classes = append(classes, k)
				}
			}
			return strings.Join(classes, " ")
		case "style":
			decls := make([]string, len(v.Keys))
			for i, k := range v.Keys {
				decls[i] = k + ":" + Stringify(v.Values[k])
			}
			return strings.Join(decls, ";")
		}
	case []any:
		if name == "class" {
			var classes []string
			for _, el := range v {
				if Truthy(el) {
					classes = append(classes, Stringify(el))
				}
			}
			return strings.Join(classes, " ")
		}
	}
	return Stringify(v)
}

func (g *Generator) genHandler(a *Attribute) string {
	id := g.nextHandler()
	name := strings.ToLower(a.Name)
	if !slices.Contains(g.eventTypes, name) {
		g.eventTypes = append(g.eventTypes, name)
	}

	var lines []string
	for _, mod := range a.Modifiers {
		switch mod {
		case "prevent":
			lines = append(lines, "$event.preventDefault();")
		case "stop":
			lines = append(lines, "$event.stopPropagation();")
		case "self":
			lines = append(lines, "if ($event.target !== $el) return;")
		case "once":
		default:
			keys, ok := keyModifiers[mod]
			if !ok {
				pos := a.Position
				g.cc.Warn("generate", &pos, "unknown event modifier %q on @%s", mod, a.Name)
				continue
			}
			checks := make([]string, len(keys))
			for i, k := range keys {
				checks[i] = "$event.key !== " + ToJS(k)
			}
			lines = append(lines, "if ("+strings.Join(checks, " && ")+") return;")
		}
	}

	if a.Value != nil {
		if ident, ok := a.Value.(*Ident); ok && !g.graph.IsState(ident.Root()) && !g.isLoopVar(ident.Root()) {
			lines = append(lines, ident.Raw+"($event);")
		} else {
			code := strings.TrimSpace(g.rewrite(a.Value))
			if code != "" && !strings.HasSuffix(code, ";") && !strings.HasSuffix(code, "}") {
				code += ";"
			}
			if code != "" {
				lines = append(lines, code)
			}
		}
	}

	g.funcs = append(g.funcs, scriptFunc{
		kind:  funcHandler,
		id:    id,
		decls: g.loopDecls(),
		body:  strings.Join(lines, "\n"),
		once:  a.HasModifier("once"),
		pos:   a.Position,
	})
	return id
}

func (g *Generator) genInterpolation(n *Interpolation) gomponents.Node {
	if v, ok := Evaluate(n.Expr, g.loopScope()); ok {
		return gomponents.Text(Stringify(v))
	}
	if g.templateDepth > 0 {
		g.addListDeps(n.Expr)
		if id, ok := n.Expr.(*Ident); ok && g.isRowVar(id.Root()) {
			return ghtml.Span(gomponents.Attr("data-item", strings.Join(id.Path, ".")))
		}
		return ghtml.Span(gomponents.Attr("data-item-fn", g.addItemFn(n.Expr, n.Position)))
	}

	id := g.nextBind()
	g.addEffect(id, g.depsOf(n.Expr), fmt.Sprintf("rt.text(%s, %s);", ToJS(id), g.rewrite(n.Expr)), n.Position)
	span := []gomponents.Node{gomponents.Attr("data-bind", id)}
	if v, ok := Evaluate(n.Expr, g.initScope()); ok {
		span = append(span, gomponents.Text(Stringify(v)))
	}
	return ghtml.Span(span...)
}

// genIf renders an @if chain. Branches whose conditions are known at compile
// time are resolved here; the first dynamic condition switches the rest of
// the chain to runtime visibility toggles.
func (g *Generator) genIf(d *Directive) gomponents.Node {
	scope := g.loopScope()
	var out []gomponents.Node
	var prior []Expr
	for _, b := range d.Branches() {
		if b.Condition != nil {
			v, ok := Evaluate(b.Condition, scope)
			if !ok {
				out = append(out, g.genBranch(prior, b, d.Position))
				prior = append(prior, b.Condition)
				continue
			}
			if !Truthy(v) {
				continue
			}
		}
		if len(prior) == 0 {
			out = append(out, g.genNodes(b.Nodes)...)
		} else {
			out = append(out, g.genBranch(prior, Branch{Nodes: b.Nodes}, d.Position))
		}
		break
	}
	return gomponents.Group(out)
}

// genBranch wraps one runtime-toggled branch in a display:contents span, which
// the HTML parser accepts inside phrasing content such as <p>. It is visible
// when none of the prior conditions hold and its own condition, if any, does.
func (g *Generator) genBranch(prior []Expr, b Branch, pos Position) gomponents.Node {
	var parts []string
	var deps []string
	visible, known := true, true
	check := func(e Expr, negate bool) {
		code := "(" + g.rewrite(e) + ")"
		if negate {
			code = "!" + code
		}
		parts = append(parts, code)
		for _, dep := range g.depsOf(e) {
			if !slices.Contains(deps, dep) {
				deps = append(deps, dep)
			}
		}
		if g.templateDepth > 0 {
			g.addListDeps(e)
		}
		v, ok := Evaluate(e, g.initScope())
		if !ok {
			known = false
			return
		}
		if Truthy(v) == negate {
			visible = false
		}
	}
	for _, e := range prior {
		check(e, true)
	}
	if b.Condition != nil {
		check(b.Condition, false)
	}
	expr := strings.Join(parts, " && ")
	children := g.genNodes(b.Nodes)

	if g.templateDepth > 0 {
		fn := g.addItemFunc(expr, pos)
		return ghtml.Span(append([]gomponents.Node{
			gomponents.Attr("data-item-if", fn),
			gomponents.Attr("style", "display:contents"),
		}, children...)...)
	}

	id := g.nextCond()
	g.addEffect(id, deps, fmt.Sprintf("rt.show(%s, %s);", ToJS(id), expr), pos)
	display := "display:contents"
	if !known || !visible {
		display = "display:none"
	}
	return ghtml.Span(append([]gomponents.Node{
		gomponents.Attr("data-if", id),
		gomponents.Attr("style", display),
	}, children...)...)
}

func (g *Generator) genFor(d *Directive) gomponents.Node {
	if v, ok := Evaluate(d.Iterable, g.loopScope()); ok {
		items, ok := Iterate(v)
		if !ok {
			pos := d.Position
			g.cc.Warn("generate", &pos, "@for over %s, which is not a list or a count", d.Iterable.Code())
			return nil
		}
		var out []gomponents.Node
		for i, item := range items {
			g.pushLoop(loopBinding{name: d.Iterator, value: item, static: true})
			if d.Index != "" {
				g.pushLoop(loopBinding{name: d.Index, value: float64(i), static: true})
			}
			out = append(out, g.genNodes(d.Children)...)
			g.popLoop()
			if d.Index != "" {
				g.popLoop()
			}
		}
		return gomponents.Group(out)
	}

	id := g.nextLoop()
	nested := g.templateDepth > 0
	decls := g.loopDecls()
	body := g.rewrite(d.Iterable)
	var deps []string
	if nested {
		g.addListDeps(d.Iterable)
	} else {
		deps = g.depsOf(d.Iterable)
		g.listDeps = &deps
	}

	g.pushLoop(loopBinding{name: d.Iterator})
	if d.Index != "" {
		g.pushLoop(loopBinding{name: d.Index})
	}
	g.templateDepth++
	children := g.genNodes(d.Children)
	g.templateDepth--
	g.popLoop()
	if d.Index != "" {
		g.popLoop()
	}
	if !nested {
		g.listDeps = nil
	}

	g.funcs = append(g.funcs, scriptFunc{
		kind:   funcList,
		id:     id,
		deps:   deps,
		decls:  decls,
		body:   body,
		item:   d.Iterator,
		index:  d.Index,
		nested: nested,
		pos:    d.Position,
	})
	return gomponents.El("template", append([]gomponents.Node{gomponents.Attr("data-for", id)}, children...)...)
}

func (g *Generator) genSlot(d *Directive) gomponents.Node {
	var nodes []gomponents.Node
	if d.Name != "" {
		nodes = append(nodes, gomponents.Attr("name", d.Name))
	}
	nodes = append(nodes, g.genNodes(d.Children)...)
	return gomponents.El("slot", nodes...)
}

func (g *Generator) pushLoop(b loopBinding) {
	g.loops = append(g.loops, b)
}

func (g *Generator) popLoop() {
	if len(g.loops) > 0 {
		g.loops = g.loops[:len(g.loops)-1]
	}
}

func (g *Generator) rewrite(e Expr) string {
	return Rewrite(e, g.stateRename)
}

// addListDeps records the state keys e reads as keys of the enclosing
// top-level list, which re-renders when any of them changes.
func (g *Generator) addListDeps(e Expr) {
	if g.listDeps == nil {
		return
	}
	for _, dep := range g.depsOf(e) {
		if !slices.Contains(*g.listDeps, dep) {
			*g.listDeps = append(*g.listDeps, dep)
		}
	}
}

func (g *Generator) addItemFn(e Expr, pos Position) string {
	return g.addItemFunc(g.rewrite(e), pos)
}

// addItemFunc registers a row function for already rewritten code.
func (g *Generator) addItemFunc(code string, pos Position) string {
	id := g.nextFn()
	g.funcs = append(g.funcs, scriptFunc{kind: funcItem, id: id, decls: g.loopDecls(), body: code, pos: pos})
	return id
}

func (g *Generator) addEffect(id string, deps []string, body string, pos Position) {
	g.funcs = append(g.funcs, scriptFunc{
		kind:  funcEffect,
		id:    id,
		deps:  deps,
		decls: g.loopDecls(),
		body:  body,
		pos:   pos,
	})
}
