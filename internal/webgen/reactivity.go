package webgen

import "slices"

// Usage sites recorded in VarInfo.UsedIn.
const (
	UsedInData = "data"
	UsedInView = "view"
)

// VarInfo records what a data variable's initializer depends on and which
// blocks reference it.
type VarInfo struct {
	Name         string
	Dependencies []string // other data variables read by the initializer
	UsedIn       []string // "data", then "view" if the view reads it
}

// ReactivityGraph maps each data variable to its VarInfo. It is built once
// per compile and not modified afterwards.
type ReactivityGraph struct {
	Vars  map[string]*VarInfo
	Order []string // declaration order, first declaration wins
}

// Lookup returns the entry for name.
func (g *ReactivityGraph) Lookup(name string) (*VarInfo, bool) {
	v, ok := g.Vars[name]
	return v, ok
}

// IsState reports whether name is a declared data variable.
func (g *ReactivityGraph) IsState(name string) bool {
	_, ok := g.Vars[name]
	return ok
}

// StateDeps filters identifiers down to data variables, preserving order.
func (g *ReactivityGraph) StateDeps(names []string) []string {
	var deps []string
	for _, n := range names {
		if g.IsState(n) && !slices.Contains(deps, n) {
			deps = append(deps, n)
		}
	}
	return deps
}

// Unused returns the data variables nothing in the view reads.
func (g *ReactivityGraph) Unused() []string {
	var out []string
	for _, name := range g.Order {
		if !slices.Contains(g.Vars[name].UsedIn, UsedInView) {
			out = append(out, name)
		}
	}
	return out
}

// Derived returns the data variables whose initializer reads other data
// variables, in declaration order.
func (g *ReactivityGraph) Derived() []string {
	var out []string
	for _, name := range g.Order {
		if len(g.Vars[name].Dependencies) > 0 {
			out = append(out, name)
		}
	}
	return out
}

// Analyzer builds the reactivity graph of a document.
type Analyzer struct {
	doc   *Document
	graph *ReactivityGraph
}

// NewAnalyzer creates an Analyzer for doc.
func NewAnalyzer(doc *Document) *Analyzer {
	return &Analyzer{
		doc:   doc,
		graph: &ReactivityGraph{Vars: make(map[string]*VarInfo)},
	}
}

// BuildGraph is shorthand for NewAnalyzer(doc).Analyze().
func BuildGraph(doc *Document) *ReactivityGraph {
	return NewAnalyzer(doc).Analyze()
}

// Analyze seeds one entry per data variable and marks the variables read by
// view conditions, iterables and interpolations.
//
// References are found with Identifiers, which works on the tokens of the
// parsed expression rather than on its raw text. Names inside string
// literals ('count') and member names after a dot (user.name) are therefore
// not uses of the data variables of the same name. Identifiers reached
// through computed member access (obj[key]) are seen, but the property they
// select is not, and a loop variable that shadows a data variable still
// counts as a use of it. Bound attribute values are not scanned here; the
// generator derives its own dependency keys for those.
func (a *Analyzer) Analyze() *ReactivityGraph {
	for _, v := range a.doc.Data.Vars {
		if _, ok := a.graph.Vars[v.Name]; ok {
			continue
		}
		a.graph.Vars[v.Name] = &VarInfo{Name: v.Name, UsedIn: []string{UsedInData}}
		a.graph.Order = append(a.graph.Order, v.Name)
	}

	for _, v := range a.doc.Data.Vars {
		info := a.graph.Vars[v.Name]
		for _, id := range Identifiers(v.Value) {
			if id != v.Name && a.graph.IsState(id) && !slices.Contains(info.Dependencies, id) {
				info.Dependencies = append(info.Dependencies, id)
			}
		}
	}

	if a.doc.View != nil {
		Walk(a.doc.View.Nodes, func(n Node) bool {
			switch n := n.(type) {
			case *Interpolation:
				a.markView(n.Expr)
			case *Directive:
				a.markView(n.Condition)
				a.markView(n.Iterable)
			}
			return true
		})
	}
	return a.graph
}

func (a *Analyzer) markView(e Expr) {
	for _, id := range Identifiers(e) {
		info, ok := a.graph.Vars[id]
		if !ok || slices.Contains(info.UsedIn, UsedInView) {
			continue
		}
		info.UsedIn = append(info.UsedIn, UsedInView)
	}
}
