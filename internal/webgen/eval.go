package webgen

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Values produced by Evaluate are string, float64, bool, nil (null),
// []any (arrays) and *Object.

// Object is an evaluated object literal. Keys keeps source order.
type Object struct {
	Keys   []string
	Values map[string]any
}

// Get returns the value of key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// Scope binds names to compile-time values, e.g. the iterator of an unrolled
// loop. Inner scopes shadow outer ones. The zero Scope and nil are empty.
type Scope struct {
	parent *Scope
	name   string
	value  any
}

// With returns a child scope binding name to v.
func (s *Scope) With(name string, v any) *Scope {
	return &Scope{parent: s, name: name, value: v}
}

// Lookup resolves name, innermost binding first.
func (s *Scope) Lookup(name string) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.name == name && sc.name != "" {
			return sc.value, true
		}
	}
	return nil, false
}

// ScopeBinding is one visible name of a Scope.
type ScopeBinding struct {
	Name  string
	Value any
}

// Bindings returns every visible name with the innermost binding winning,
// outermost first.
func (s *Scope) Bindings() []ScopeBinding {
	var out []ScopeBinding
	seen := make(map[string]bool)
	for sc := s; sc != nil; sc = sc.parent {
		if sc.name == "" || seen[sc.name] {
			continue
		}
		seen[sc.name] = true
		out = append(out, ScopeBinding{Name: sc.name, Value: sc.value})
	}
	slices.Reverse(out)
	return out
}

// Evaluate resolves e at compile time. The boolean is false when e is not
// statically determinable; that is the signal to emit runtime code instead.
func Evaluate(e Expr, scope *Scope) (any, bool) {
	switch e := e.(type) {
	case *StringLit:
		return e.Value, true
	case *NumberLit:
		return e.Value, true
	case *BoolLit:
		return e.Value, true
	case *NullLit:
		return nil, true
	case *ArrayLit:
		out := make([]any, 0, len(e.Elems))
		for _, el := range e.Elems {
			v, ok := Evaluate(el, scope)
			if !ok {
				return nil, false
			}
			out = append(out, v)
		}
		return out, true
	case *ObjectLit:
		obj := &Object{Values: make(map[string]any, len(e.Fields))}
		for _, f := range e.Fields {
			v, ok := Evaluate(f.Value, scope)
			if !ok {
				return nil, false
			}
			if _, dup := obj.Values[f.Key]; !dup {
				obj.Keys = append(obj.Keys, f.Key)
			}
			obj.Values[f.Key] = v
		}
		return obj, true
	case *Ident:
		v, ok := scope.Lookup(e.Root())
		if !ok {
			return nil, false
		}
		return selectPath(v, e.Path[1:])
	}
	return nil, false
}

// selectPath follows property names through objects. Arrays and strings
// expose length.
func selectPath(v any, path []string) (any, bool) {
	for _, key := range path {
		switch cur := v.(type) {
		case *Object:
			next, ok := cur.Get(key)
			if !ok {
				return nil, false
			}
			v = next
		case []any:
			if key != "length" {
				return nil, false
			}
			v = float64(len(cur))
		case string:
			if key != "length" {
				return nil, false
			}
			v = float64(len([]rune(cur)))
		default:
			return nil, false
		}
	}
	return v, true
}

// Truthy applies the host language's truthiness rules.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0 && !math.IsNaN(v)
	default:
		return true
	}
}

// Iterate returns the items an unrolled loop visits: array elements, or
// 0..n-1 for a non-negative integer n.
func Iterate(v any) ([]any, bool) {
	switch v := v.(type) {
	case []any:
		return v, true
	case float64:
		if v < 0 || v != math.Trunc(v) || v > 1e6 {
			return nil, false
		}
		items := make([]any, int(v))
		for i := range items {
			items[i] = float64(i)
		}
		return items, true
	}
	return nil, false
}

// Stringify renders a value as interpolated text. Arrays join their elements
// with commas, objects render as JSON and null renders as nothing.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatNumber(v)
	case []any:
		parts := make([]string, len(v))
		for i, el := range v {
			parts[i] = Stringify(el)
		}
		return strings.Join(parts, ",")
	default:
		return ToJS(v)
	}
}

func formatNumber(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ToJS renders a value as a script literal. Strings are JSON encoded, which
// also escapes <, > and & so the literal is safe inside a script element.
func ToJS(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return "null"
		}
		return formatNumber(v)
	case string:
		b, _ := json.Marshal(v)
		return string(b)
	case []any:
		parts := make([]string, len(v))
		for i, el := range v {
			parts[i] = ToJS(el)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case *Object:
		parts := make([]string, len(v.Keys))
		for i, k := range v.Keys {
			parts[i] = ToJS(k) + ":" + ToJS(v.Values[k])
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	return "null"
}
