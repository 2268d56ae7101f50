package webgen

import (
	"strings"
)

// Node is the interface implemented by all document tree nodes.
type Node interface {
	node()         // marker method to ensure type safety
	Pos() Position // returns the source position of the node
}

// Document is the parsed form of one .webc source. View is always present;
// Data, Style and Script are empty rather than nil when the source omits them.
type Document struct {
	Data     *DataBlock
	Style    *StyleBlock
	View     *ViewBlock
	Script   *ScriptBlock
	Actions  []*RemoteAction
	Position Position
}

func (d *Document) node()         {}
func (d *Document) Pos() Position { return d.Position }

// DataBlock holds the declared state variables in source order.
type DataBlock struct {
	Vars     []*DataVar
	Position Position
}

func (b *DataBlock) node()         {}
func (b *DataBlock) Pos() Position { return b.Position }

// Names returns the variable names in declaration order.
func (b *DataBlock) Names() []string {
	names := make([]string, len(b.Vars))
	for i, v := range b.Vars {
		names[i] = v.Name
	}
	return names
}

// Lookup returns the first variable named name, or nil.
func (b *DataBlock) Lookup(name string) *DataVar {
	for _, v := range b.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// DataVar is one name = value declaration.
type DataVar struct {
	Name     string
	Value    Expr
	Position Position
}

func (v *DataVar) node()         {}
func (v *DataVar) Pos() Position { return v.Position }

// StyleBlock holds the stylesheet text verbatim (trimmed).
type StyleBlock struct {
	Content  string
	Position Position
}

func (b *StyleBlock) node()         {}
func (b *StyleBlock) Pos() Position { return b.Position }

// ScriptBlock holds the user script verbatim (trimmed).
type ScriptBlock struct {
	Content  string
	Position Position
}

func (b *ScriptBlock) node()         {}
func (b *ScriptBlock) Pos() Position { return b.Position }

// ViewBlock holds the markup tree.
type ViewBlock struct {
	Nodes    []Node // Element, Text, Directive, Interpolation, Comment
	Position Position
}

func (b *ViewBlock) node()         {}
func (b *ViewBlock) Pos() Position { return b.Position }

// voidElements are always self-closing, whatever the source says.
var voidElements = map[string]bool{
	"br": true, "img": true, "input": true, "meta": true, "link": true,
	"hr": true, "source": true, "track": true, "area": true, "base": true,
	"col": true, "embed": true, "param": true, "wbr": true,
}

// IsVoidElement reports whether tag is an HTML void element (case-insensitive).
func IsVoidElement(tag string) bool {
	return voidElements[strings.ToLower(tag)]
}

// Element represents markup: <tag attrs>children</tag> or <tag />.
type Element struct {
	Tag         string
	Attributes  []*Attribute
	Children    []Node
	SelfClosing bool
	Position    Position
}

func (e *Element) node()         {}
func (e *Element) Pos() Position { return e.Position }

// Attribute returns the first attribute with the given name and kind, or nil.
func (e *Element) Attribute(name string, kind AttrKind) *Attribute {
	for _, a := range e.Attributes {
		if a.Name == name && a.Kind == kind {
			return a
		}
	}
	return nil
}

// HasEvents reports whether any attribute is an event binding.
func (e *Element) HasEvents() bool {
	for _, a := range e.Attributes {
		if a.Kind == AttrEvent {
			return true
		}
	}
	return false
}

// AttrKind distinguishes plain attributes from bindings.
type AttrKind int

const (
	AttrStatic AttrKind = iota // name="value"
	AttrEvent                  // @name="code"
	AttrBound                  // :name="expr"
)

func (k AttrKind) String() string {
	switch k {
	case AttrEvent:
		return "event"
	case AttrBound:
		return "bound"
	default:
		return "static"
	}
}

// Attribute is an element attribute. Value is nil for valueless attributes.
type Attribute struct {
	Name      string
	Kind      AttrKind
	Modifiers []string // @click.prevent.once → ["prevent", "once"]
	Value     Expr
	Dynamic   bool // event and bound attributes
	Position  Position
}

func (a *Attribute) node()         {}
func (a *Attribute) Pos() Position { return a.Position }

// HasModifier reports whether mod was given on an event attribute.
func (a *Attribute) HasModifier(mod string) bool {
	for _, m := range a.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// DirectiveKind enumerates the view directives.
type DirectiveKind int

const (
	DirectiveIf DirectiveKind = iota
	DirectiveElseIf
	DirectiveElse
	DirectiveFor
	DirectiveSlot
)

var directiveNames = map[DirectiveKind]string{
	DirectiveIf:     "if",
	DirectiveElseIf: "else-if",
	DirectiveElse:   "else",
	DirectiveFor:    "for",
	DirectiveSlot:   "slot",
}

func (k DirectiveKind) String() string {
	return directiveNames[k]
}

// Directive is a control-flow node. if, for and slot own Children up to their
// @end marker. else-if and else are childless markers placed among the
// Children of the enclosing if; they split that range into branches.
type Directive struct {
	Kind      DirectiveKind
	Condition Expr   // if, else-if
	Iterator  string // for
	Index     string // for, optional second binding: @for(item, i in items)
	Iterable  Expr   // for
	Name      string // slot
	Children  []Node
	Position  Position
}

func (d *Directive) node()         {}
func (d *Directive) Pos() Position { return d.Position }

// Branch is one arm of an @if chain. Condition is nil for the else arm.
type Branch struct {
	Condition Expr
	Nodes     []Node
}

// Branches splits an if directive's children at its else-if and else markers.
func (d *Directive) Branches() []Branch {
	branches := []Branch{{Condition: d.Condition}}
	for _, child := range d.Children {
		if m, ok := child.(*Directive); ok && (m.Kind == DirectiveElseIf || m.Kind == DirectiveElse) {
			branches = append(branches, Branch{Condition: m.Condition})
			continue
		}
		last := &branches[len(branches)-1]
		last.Nodes = append(last.Nodes, child)
	}
	return branches
}

// Interpolation is a {{ expr }} site.
type Interpolation struct {
	Expr     Expr
	Position Position
}

func (i *Interpolation) node()         {}
func (i *Interpolation) Pos() Position { return i.Position }

// Text is literal markup text.
type Text struct {
	Text     string
	Position Position
}

func (t *Text) node()         {}
func (t *Text) Pos() Position { return t.Position }

// Comment is an HTML comment in the view, without its delimiters.
type Comment struct {
	Text     string
	Position Position
}

func (c *Comment) node()         {}
func (c *Comment) Pos() Position { return c.Position }

// RemoteAction is a function declared in an @server region. Its body runs on
// the server; the client calls it through Endpoint.
type RemoteAction struct {
	Name       string
	Params     []Param
	ReturnType string
	Async      bool
	Body       string
	Position   Position
}

func (a *RemoteAction) node()         {}
func (a *RemoteAction) Pos() Position { return a.Position }

// Endpoint is the path the client stub posts to.
func (a *RemoteAction) Endpoint() string {
	return "/__actions/" + a.Name
}

// Param is a remote action parameter with an optional type name.
type Param struct {
	Name string
	Type string
}

// Walk calls fn for every view node in depth-first order, descending into
// element and directive children while fn returns true.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		switch n := n.(type) {
		case *Element:
			Walk(n.Children, fn)
		case *Directive:
			Walk(n.Children, fn)
		}
	}
}
