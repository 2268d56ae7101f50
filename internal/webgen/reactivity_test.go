package webgen

import (
	"reflect"
	"testing"
)

func TestAnalyzer_Graph(t *testing.T) {
	src := `#data
count = 0
step = 1
total = count * step
label = "n"
items = []
flag = true
unused = 5
#end data
#view
<p>{{ total }}</p>
@if(flag) <i></i> @end if
@for(item in items) {{ item }} @end for
<b :title="label"></b>
#end view`

	doc := mustParse(t, src)
	g := BuildGraph(doc)

	if !reflect.DeepEqual(g.Order, []string{"count", "step", "total", "label", "items", "flag", "unused"}) {
		t.Fatalf("Order = %v", g.Order)
	}

	type tc struct {
		usedIn []string
		deps   []string
	}

	tests := map[string]tc{
		"count":  {usedIn: []string{"data"}},
		"step":   {usedIn: []string{"data"}},
		"total":  {usedIn: []string{"data", "view"}, deps: []string{"count", "step"}},
		"label":  {usedIn: []string{"data"}}, // bound attributes are not scanned
		"items":  {usedIn: []string{"data", "view"}},
		"flag":   {usedIn: []string{"data", "view"}},
		"unused": {usedIn: []string{"data"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			info, ok := g.Lookup(name)
			if !ok {
				t.Fatalf("Lookup(%q) missing", name)
			}
			if !reflect.DeepEqual(info.UsedIn, tt.usedIn) {
				t.Errorf("UsedIn = %v, want %v", info.UsedIn, tt.usedIn)
			}
			if !reflect.DeepEqual(info.Dependencies, tt.deps) {
				t.Errorf("Dependencies = %v, want %v", info.Dependencies, tt.deps)
			}
		})
	}

	if got, want := g.Derived(), []string{"total"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Derived() = %v, want %v", got, want)
	}
	if got, want := g.Unused(), []string{"count", "step", "label", "unused"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Unused() = %v, want %v", got, want)
	}
}

func TestAnalyzer_EveryVarPresentWithoutView(t *testing.T) {
	doc := mustParse(t, "#data\na = 1\nb = 'x'\n#end data\n#view <p>static</p> #end view")
	g := BuildGraph(doc)

	for _, name := range []string{"a", "b"} {
		info, ok := g.Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) missing", name)
		}
		if !reflect.DeepEqual(info.UsedIn, []string{UsedInData}) {
			t.Errorf("%s UsedIn = %v, want [data]", name, info.UsedIn)
		}
	}
}

func TestAnalyzer_DuplicateFirstWins(t *testing.T) {
	doc := mustParse(t, "#data\na = 1\nb = a\na = b\n#end data\n#view #end view")
	g := BuildGraph(doc)

	if !reflect.DeepEqual(g.Order, []string{"a", "b"}) {
		t.Errorf("Order = %v, want [a b]", g.Order)
	}
	// Both declarations of a contribute dependencies; the graph keeps one entry.
	if info, _ := g.Lookup("a"); !reflect.DeepEqual(info.Dependencies, []string{"b"}) {
		t.Errorf("a Dependencies = %v, want [b]", info.Dependencies)
	}
}

func TestAnalyzer_TextualScanLimits(t *testing.T) {
	// A loop variable named like a data variable still counts as a use, and
	// a self-reference is not a dependency.
	doc := mustParse(t, "#data\nitem = 0\nlist = [1]\nn = n + 1\n#end data\n#view @for(item in list) {{ item }} @end for #end view")
	g := BuildGraph(doc)

	if info, _ := g.Lookup("item"); !reflect.DeepEqual(info.UsedIn, []string{"data", "view"}) {
		t.Errorf("item UsedIn = %v, want [data view]", info.UsedIn)
	}
	if info, _ := g.Lookup("n"); len(info.Dependencies) != 0 {
		t.Errorf("n Dependencies = %v, want none", info.Dependencies)
	}

	// Names in string literals and after a dot are not references; a
	// computed key is, though the property it selects is not known.
	doc = mustParse(t, "#data\ncount = 0\nname = \"\"\nitems = [1]\nkey = 0\n#end data\n"+
		"#view {{ 'count' + x }} {{ user.name }} {{ items[key] }} #end view")
	g = BuildGraph(doc)

	want := map[string][]string{
		"count": {"data"},
		"name":  {"data"},
		"items": {"data", "view"},
		"key":   {"data", "view"},
	}
	for name, usedIn := range want {
		if info, _ := g.Lookup(name); !reflect.DeepEqual(info.UsedIn, usedIn) {
			t.Errorf("%s UsedIn = %v, want %v", name, info.UsedIn, usedIn)
		}
	}
}

func TestReactivityGraph_StateDeps(t *testing.T) {
	doc := mustParse(t, "#data\na = 1\nb = 2\n#end data\n#view #end view")
	g := BuildGraph(doc)

	got := g.StateDeps([]string{"b", "x", "a", "b"})
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("StateDeps() = %v, want [b a]", got)
	}
	if g.IsState("x") {
		t.Error("IsState(x) = true, want false")
	}
}
