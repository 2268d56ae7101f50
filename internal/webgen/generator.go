package webgen

import (
	"bytes"
	"fmt"
	"strings"

	"maragu.dev/gomponents"
	ghtml "maragu.dev/gomponents/html"
)

// Generator turns an analyzed document into markup, stylesheet and script.
type Generator struct {
	cc       *CompilationContext
	doc      *Document
	graph    *ReactivityGraph
	strategy Strategy
	opts     Options

	// script buffer
	buf         bytes.Buffer
	indent      int
	currentLine int
	sourceMap   *SourceMap

	// initial values of data variables known at compile time
	stateScope *Scope
	initial    []initialValue

	// loop bindings of the node being generated, outermost first
	loops []loopBinding
	// >0 while generating the body of a runtime-rendered list
	templateDepth int
	// state keys read anywhere inside the current top-level runtime list
	listDeps *[]string

	bindCounter    int
	handlerCounter int
	condCounter    int
	loopCounter    int
	widCounter     int
	fnCounter      int
	islandCounter  int

	funcs      []scriptFunc
	eventTypes []string
}

// initialValue is one entry of the runtime's initial state object. Code is a
// script expression; Deps is set for data variables derived from others.
type initialValue struct {
	Name string
	Code string
	Deps []string
	Pos  Position
}

// loopBinding is a loop variable visible to the node being generated. Static
// bindings come from unrolled loops and carry their value; dynamic ones are
// row variables of runtime-rendered lists.
type loopBinding struct {
	name   string
	value  any
	static bool
}

type funcKind int

const (
	funcEffect funcKind = iota
	funcHandler
	funcList
	funcItem
)

// scriptFunc is a function registered with the runtime.
type scriptFunc struct {
	kind   funcKind
	id     string
	deps   []string // effect and top-level list keys
	decls  []string // loop variable declarations
	body   string   // statement for effects and handlers, expression otherwise
	once   bool
	item   string
	index  string
	nested bool
	pos    Position
}

// GeneratorOutput holds the generated artifacts.
type GeneratorOutput struct {
	Markup     string
	Stylesheet string
	Script     string
	ServerJS   string
	SourceMap  *SourceMap
}

// NewGenerator creates a generator for the document in cc. Analysis and
// strategy selection must already have run.
func NewGenerator(cc *CompilationContext) *Generator {
	return &Generator{
		cc:       cc,
		doc:      cc.Document,
		graph:    cc.Graph,
		strategy: cc.Strategy,
		opts:     cc.Options,
	}
}

// Generate produces every artifact and stores them as assets in the context.
func (g *Generator) Generate() (*GeneratorOutput, error) {
	g.reset()
	g.initState()

	content := g.genNodes(g.doc.View.Nodes)

	out := &GeneratorOutput{Stylesheet: strings.TrimSpace(g.doc.Style.Content)}
	out.Script = g.generateScript()
	if g.opts.SourceMap && out.Script != "" {
		out.SourceMap = g.sourceMap
	}
	out.ServerJS = g.generateServer()

	markup, err := g.renderDocument(content, out.Stylesheet, out.Script)
	if err != nil {
		return nil, fmt.Errorf("rendering markup: %w", err)
	}
	if g.strategy == StrategyStream && g.opts.Target == TargetNode {
		out.Script = "export const markup = " + ToJS(markup) + ";\n\n" + out.Script
		if out.SourceMap != nil {
			out.SourceMap.Shift(2)
		}
	}
	out.Markup = markup

	g.cc.SetAsset(AssetHTML, out.Markup)
	g.cc.SetAsset(AssetCSS, out.Stylesheet)
	g.cc.SetAsset(AssetJS, out.Script)
	if out.ServerJS != "" {
		g.cc.SetAsset(AssetServerJS, out.ServerJS)
	}
	if out.SourceMap != nil {
		data, err := out.SourceMap.ToJSON()
		if err != nil {
			return nil, fmt.Errorf("encoding source map: %w", err)
		}
		g.cc.SetAsset(AssetSourceMap, string(data))
	}
	g.cc.bindings = g.bindCounter + g.condCounter + g.loopCounter
	g.cc.handlers = g.handlerCounter
	g.cc.islands = g.islandCounter
	g.cc.sourceMap = out.SourceMap
	return out, nil
}

func (g *Generator) reset() {
	g.buf.Reset()
	g.indent = 0
	g.currentLine = 0
	g.sourceMap = NewSourceMap(g.cc.Filename)
	g.loops = nil
	g.templateDepth = 0
	g.listDeps = nil
	g.bindCounter, g.handlerCounter, g.condCounter, g.loopCounter = 0, 0, 0, 0
	g.widCounter, g.fnCounter, g.islandCounter = 0, 0, 0
	g.funcs = nil
	g.eventTypes = nil
	g.initial = nil
	g.stateScope = nil
}

// initState evaluates data variable initializers. Literal values join the
// compile-time scope; derived variables are computed by effects at runtime.
func (g *Generator) initState() {
	seen := make(map[string]bool)
	for _, v := range g.doc.Data.Vars {
		if seen[v.Name] {
			continue
		}
		seen[v.Name] = true
		iv := initialValue{Name: v.Name, Pos: v.Position}
		if val, ok := Evaluate(v.Value, nil); ok {
			g.stateScope = g.stateScope.With(v.Name, val)
			iv.Code = ToJS(val)
		} else if info, _ := g.graph.Lookup(v.Name); info != nil && len(info.Dependencies) > 0 {
			iv.Deps = info.Dependencies
			iv.Code = Rewrite(v.Value, g.stateRename)
		} else {
			iv.Code = v.Value.Code()
		}
		g.initial = append(g.initial, iv)
	}
}

// renderDocument renders the page shell around the view content.
func (g *Generator) renderDocument(content []gomponents.Node, css, script string) (string, error) {
	base := g.opts.AssetBase

	head := []gomponents.Node{
		ghtml.Meta(ghtml.Charset("utf-8")),
		ghtml.Meta(ghtml.Name("viewport"), ghtml.Content("width=device-width, initial-scale=1")),
		ghtml.TitleEl(gomponents.Text(g.opts.Title)),
	}
	if css != "" {
		if g.opts.Dev {
			head = append(head, ghtml.StyleEl(gomponents.Raw(escapeRawText(css, "style"))))
		} else {
			head = append(head, ghtml.Link(ghtml.Rel("stylesheet"), ghtml.Href(base+g.opts.AssetName+".css")))
		}
	}

	app := []gomponents.Node{
		ghtml.ID("app"),
		gomponents.Attr("data-strategy", g.strategy.String()),
	}
	if g.strategy == StrategySpa {
		app = append(app, gomponents.Attr("data-spa"))
	}
	app = append(app, content...)

	body := []gomponents.Node{ghtml.Div(app...)}
	if script != "" && !(g.strategy == StrategyStream && g.opts.Target == TargetNode) {
		if g.opts.Dev {
			body = append(body, ghtml.Script(gomponents.Raw(escapeRawText(script, "script"))))
		} else {
			body = append(body, ghtml.Script(ghtml.Src(base+g.opts.AssetName+".js"), ghtml.Defer()))
		}
	}

	page := ghtml.Doctype(ghtml.HTML(
		ghtml.Lang("en"),
		ghtml.Head(head...),
		ghtml.Body(body...),
	))

	var sb strings.Builder
	if err := page.Render(&sb); err != nil {
		return "", err
	}
	sb.WriteByte('\n')
	return sb.String(), nil
}

// escapeRawText keeps inlined code from closing its element early.
func escapeRawText(s, tag string) string {
	return strings.ReplaceAll(s, "</"+tag, `<\/`+tag)
}

func (g *Generator) nextID(prefix string, counter *int) string {
	id := fmt.Sprintf("%s%d", prefix, *counter)
	*counter++
	return id
}

func (g *Generator) nextBind() string    { return g.nextID("b", &g.bindCounter) }
func (g *Generator) nextHandler() string { return g.nextID("h", &g.handlerCounter) }
func (g *Generator) nextCond() string    { return g.nextID("c", &g.condCounter) }
func (g *Generator) nextLoop() string    { return g.nextID("l", &g.loopCounter) }
func (g *Generator) nextWid() string     { return g.nextID("w", &g.widCounter) }
func (g *Generator) nextFn() string      { return g.nextID("e", &g.fnCounter) }
func (g *Generator) nextIsland() string  { return g.nextID("i", &g.islandCounter) }

// visibleLoops returns the loop bindings in scope with the innermost binding
// of each name winning, outermost first.
func (g *Generator) visibleLoops() []loopBinding {
	var out []loopBinding
	seen := make(map[string]bool)
	for i := len(g.loops) - 1; i >= 0; i-- {
		b := g.loops[i]
		if seen[b.name] {
			continue
		}
		seen[b.name] = true
		out = append(out, b)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (g *Generator) isLoopVar(name string) bool {
	for _, b := range g.loops {
		if b.name == name {
			return true
		}
	}
	return false
}

func (g *Generator) isRowVar(name string) bool {
	for _, b := range g.visibleLoops() {
		if b.name == name {
			return !b.static
		}
	}
	return false
}

// loopScope holds the statically known loop variables. It decides which
// branches and rows exist in the markup.
func (g *Generator) loopScope() *Scope {
	var s *Scope
	for _, b := range g.visibleLoops() {
		if b.static {
			s = s.With(b.name, b.value)
		}
	}
	return s
}

// initScope adds the literal data variables to loopScope. Values evaluated in
// it are only the initial render and must be backed by an effect.
func (g *Generator) initScope() *Scope {
	s := g.stateScope
	for _, b := range g.visibleLoops() {
		if b.static {
			s = s.With(b.name, b.value)
		}
	}
	return s
}

// stateRename maps data variables to their runtime state property. Loop
// variables shadow data variables.
func (g *Generator) stateRename(name string) (string, bool) {
	if g.isLoopVar(name) || !g.graph.IsState(name) {
		return "", false
	}
	return "$state." + name, true
}

// depsOf returns the state keys e reads.
func (g *Generator) depsOf(e Expr) []string {
	var deps []string
	for _, id := range g.graph.StateDeps(Identifiers(e)) {
		if !g.isLoopVar(id) {
			deps = append(deps, id)
		}
	}
	return deps
}

// loopDecls declares the visible loop variables at the top of a function.
func (g *Generator) loopDecls() []string {
	var decls []string
	for _, b := range g.visibleLoops() {
		if b.static {
			decls = append(decls, fmt.Sprintf("var %s = %s;", b.name, ToJS(b.value)))
		} else {
			decls = append(decls, fmt.Sprintf("var %s = $vars[%s];", b.name, ToJS(b.name)))
		}
	}
	return decls
}

// write writes a string without indentation and tracks line numbers.
func (g *Generator) write(s string) {
	g.buf.WriteString(s)
	g.currentLine += strings.Count(s, "\n")
}

// writef writes a formatted string with indentation and tracks line numbers.
func (g *Generator) writef(format string, args ...any) {
	g.writeIndent()
	g.write(fmt.Sprintf(format, args...))
}

// writeln writes a line with indentation and tracks line numbers.
func (g *Generator) writeln(s string) {
	if s == "" {
		g.buf.WriteByte('\n')
		g.currentLine++
		return
	}
	g.writeIndent()
	g.buf.WriteString(s)
	g.buf.WriteByte('\n')
	g.currentLine += 1 + strings.Count(s, "\n")
}

// writeBlock writes multi-line text, indenting every non-empty line.
func (g *Generator) writeBlock(s string) {
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			g.writeln("")
			continue
		}
		g.writeln(line)
	}
}

func (g *Generator) writeIndent() {
	for i := 0; i < g.indent; i++ {
		g.buf.WriteString("  ")
	}
}

// mark records that the next script line was produced by the node at pos.
func (g *Generator) mark(pos Position, name string) {
	if pos.Line == 0 {
		return
	}
	g.sourceMap.AddMapping(SourceMapping{
		ScriptLine: g.currentLine,
		ScriptCol:  g.indent * 2,
		SourceLine: pos.Line - 1,
		SourceCol:  max(pos.Column-1, 0),
		Length:     len(name),
		Name:       name,
	})
}
