package webgen

import (
	"fmt"
	"strings"
)

// Strategy is the rendering strategy of the generated output.
type Strategy int

const (
	StrategyAuto Strategy = iota // select automatically
	StrategyStatic
	StrategyHydrate
	StrategyStream
	StrategyIslands
	StrategySpa
)

var strategyNames = map[Strategy]string{
	StrategyAuto:    "auto",
	StrategyStatic:  "static",
	StrategyHydrate: "hydrate",
	StrategyStream:  "stream",
	StrategyIslands: "islands",
	StrategySpa:     "spa",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseStrategy converts a strategy name. The empty string means auto.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return StrategyAuto, nil
	}
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return StrategyAuto, fmt.Errorf("unknown strategy %q (want static, hydrate, stream, islands or spa)", name)
}

// Features are the interactivity signals of a document.
type Features struct {
	Reactive       bool `json:"reactive"`
	Events         bool `json:"events"`
	RemoteActions  bool `json:"remoteActions"`
	DynamicImports bool `json:"dynamicImports"`
	Animations     bool `json:"animations"`
	Forms          bool `json:"forms"`
	Routing        bool `json:"routing"`

	Elements      int `json:"elements"`
	EventElements int `json:"eventElements"` // elements with at least one event binding
	EventBindings int `json:"eventBindings"`
	Directives    int `json:"directives"`
	DataVars      int `json:"dataVars"`
}

var formTags = map[string]bool{"form": true, "input": true, "textarea": true, "select": true}

var formEvents = map[string]bool{"submit": true, "input": true, "change": true}

// DetectFeatures computes the Features of doc by walking its tree.
func DetectFeatures(doc *Document) Features {
	f := Features{
		DataVars:      len(doc.Data.Vars),
		RemoteActions: len(doc.Actions) > 0,
	}
	f.Reactive = f.DataVars > 0

	if usesDynamicImport(doc.Script.Content) {
		f.DynamicImports = true
	}
	for _, a := range doc.Actions {
		if usesDynamicImport(a.Body) {
			f.DynamicImports = true
		}
	}

	style := doc.Style.Content
	if strings.Contains(style, "@keyframes") || strings.Contains(style, "animation") || strings.Contains(style, "transition") {
		f.Animations = true
	}

	Walk(doc.View.Nodes, func(n Node) bool {
		switch n := n.(type) {
		case *Directive:
			f.Directives++
		case *Element:
			f.Elements++
			tag := strings.ToLower(n.Tag)
			if formTags[tag] {
				f.Forms = true
			}
			hasEvent := false
			for _, attr := range n.Attributes {
				switch attr.Kind {
				case AttrEvent:
					hasEvent = true
					f.EventBindings++
					if formEvents[attr.Name] {
						f.Forms = true
					}
					if strings.HasPrefix(attr.Name, "animation") || strings.HasPrefix(attr.Name, "transition") {
						f.Animations = true
					}
				case AttrBound:
					f.Reactive = true
					if attr.Name == "value" || attr.Name == "checked" {
						f.Forms = true
					}
				}
				if attr.Name == "transition" || attr.Name == "animate" {
					f.Animations = true
				}
				if tag == "a" && attr.Name == "href" {
					f.Routing = true
				}
			}
			if hasEvent {
				f.EventElements++
			}
		}
		return true
	})
	f.Events = f.EventBindings > 0
	return f
}

// usesDynamicImport reports whether code calls import(...).
func usesDynamicImport(code string) bool {
	if !strings.Contains(code, "import") {
		return false
	}
	toks := scanExpr(code)
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].Kind == ExprIdent && toks[i].Text == "import" &&
			toks[i+1].Kind == ExprPunct && toks[i+1].Text == "(" {
			return true
		}
	}
	return false
}

// Heuristic proposes a strategy, or declines.
type Heuristic struct {
	Name   string
	Select func(doc *Document, f Features) (Strategy, bool)
}

// islandRatio is the share of interactive elements below which a page is
// hydrated as islands.
const islandRatio = 0.30

// Heuristics returns the selection heuristics in priority order. The order is
// a precedence table: the raw conditions overlap.
func Heuristics() []Heuristic {
	return []Heuristic{
		{
			Name: "static-content",
			Select: func(_ *Document, f Features) (Strategy, bool) {
				return StrategyStatic, !f.Reactive && !f.Events && !f.Forms
			},
		},
		{
			Name: "islands-optimization",
			Select: func(_ *Document, f Features) (Strategy, bool) {
				if !f.Events || f.RemoteActions || f.Elements == 0 {
					return StrategyAuto, false
				}
				return StrategyIslands, float64(f.EventElements)/float64(f.Elements) < islandRatio
			},
		},
		{
			Name: "spa-complexity",
			Select: func(_ *Document, f Features) (Strategy, bool) {
				highlyInteractive := f.EventBindings > 5 || f.Directives > 3 || f.DataVars > 10
				return StrategySpa, f.RemoteActions || f.DynamicImports || f.Routing || highlyInteractive
			},
		},
		{
			Name: "hydration-default",
			Select: func(_ *Document, f Features) (Strategy, bool) {
				return StrategyHydrate, f.Reactive || f.Events
			},
		},
	}
}

// FallbackHeuristic names the selection when no heuristic matched.
const FallbackHeuristic = "fallback"

// SelectStrategy returns the first strategy a heuristic proposes, and the
// heuristic's name. It is a pure function of its inputs.
func SelectStrategy(doc *Document, f Features) (Strategy, string) {
	for _, h := range Heuristics() {
		if s, ok := h.Select(doc, f); ok {
			return s, h.Name
		}
	}
	return StrategySpa, FallbackHeuristic
}
