package webgen

import (
	"math"
	"testing"
)

func TestEvaluate(t *testing.T) {
	scope := (&Scope{}).
		With("item", &Object{Keys: []string{"name"}, Values: map[string]any{"name": "Ada"}}).
		With("n", 3.0).
		With("list", []any{"a", "b"})

	type tc struct {
		input  string
		want   string // Stringify of the value
		static bool
	}

	tests := map[string]tc{
		"string":          {input: `"hi"`, want: "hi", static: true},
		"number":          {input: "1.50", want: "1.5", static: true},
		"negative":        {input: "-2", want: "-2", static: true},
		"bool":            {input: "false", want: "false", static: true},
		"null":            {input: "null", want: "", static: true},
		"array":           {input: "[1, 'a', true]", want: "1,a,true", static: true},
		"object":          {input: `{a: 1, b: "x"}`, want: `{"a":1,"b":"x"}`, static: true},
		"scoped ident":    {input: "n", want: "3", static: true},
		"scoped path":     {input: "item.name", want: "Ada", static: true},
		"array length":    {input: "list.length", want: "2", static: true},
		"string length":   {input: "item.name.length", want: "3", static: true},
		"unknown ident":   {input: "count", static: false},
		"missing field":   {input: "item.age", static: false},
		"opaque":          {input: "n + 1", static: false},
		"array with miss": {input: "[1, count]", static: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, ok := Evaluate(ParseExpr(tt.input), scope)
			if ok != tt.static {
				t.Fatalf("Evaluate(%q) static = %v, want %v", tt.input, ok, tt.static)
			}
			if !ok {
				return
			}
			if got := Stringify(v); got != tt.want {
				t.Errorf("Stringify(Evaluate(%q)) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEvaluate_NilScope(t *testing.T) {
	if _, ok := Evaluate(ParseExpr("x"), nil); ok {
		t.Error("Evaluate(x, nil) resolved, want miss")
	}
	if v, ok := Evaluate(ParseExpr("7"), nil); !ok || v != 7.0 {
		t.Errorf("Evaluate(7, nil) = %v, %v", v, ok)
	}
}

func TestScope_Shadowing(t *testing.T) {
	outer := (&Scope{}).With("x", "outer").With("y", 1.0)
	inner := outer.With("x", "inner")

	if v, _ := inner.Lookup("x"); v != "inner" {
		t.Errorf("inner x = %v, want inner", v)
	}
	if v, _ := outer.Lookup("x"); v != "outer" {
		t.Errorf("outer x = %v, want outer", v)
	}

	bindings := inner.Bindings()
	if len(bindings) != 2 || bindings[0].Name != "y" || bindings[1].Name != "x" || bindings[1].Value != "inner" {
		t.Errorf("Bindings() = %+v", bindings)
	}
}

func TestTruthy(t *testing.T) {
	type tc struct {
		value any
		want  bool
	}

	tests := map[string]tc{
		"nil":          {value: nil, want: false},
		"false":        {value: false, want: false},
		"empty string": {value: "", want: false},
		"zero":         {value: 0.0, want: false},
		"NaN":          {value: math.NaN(), want: false},
		"string":       {value: "0", want: true},
		"number":       {value: -1.0, want: true},
		"empty array":  {value: []any{}, want: true},
		"object":       {value: &Object{}, want: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Truthy(tt.value); got != tt.want {
				t.Errorf("Truthy(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestIterate(t *testing.T) {
	items, ok := Iterate([]any{"a", "b"})
	if !ok || len(items) != 2 {
		t.Errorf("Iterate(array) = %v, %v", items, ok)
	}
	items, ok = Iterate(3.0)
	if !ok || len(items) != 3 || items[2] != 2.0 {
		t.Errorf("Iterate(3) = %v, %v", items, ok)
	}
	for _, bad := range []any{-1.0, 1.5, "abc", nil, &Object{}} {
		if _, ok := Iterate(bad); ok {
			t.Errorf("Iterate(%v) ok, want not iterable", bad)
		}
	}
}

func TestToJS(t *testing.T) {
	type tc struct {
		value any
		want  string
	}

	tests := map[string]tc{
		"nil":      {value: nil, want: "null"},
		"string":   {value: "</script>", want: `"\u003c/script\u003e"`},
		"integer":  {value: 3.0, want: "3"},
		"fraction": {value: 0.25, want: "0.25"},
		"infinity": {value: math.Inf(1), want: "null"},
		"array":    {value: []any{1.0, "a", true}, want: `[1,"a",true]`},
		"object": {
			value: &Object{Keys: []string{"b", "a"}, Values: map[string]any{"a": 1.0, "b": []any{}}},
			want:  `{"b":[],"a":1}`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ToJS(tt.value); got != tt.want {
				t.Errorf("ToJS(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
