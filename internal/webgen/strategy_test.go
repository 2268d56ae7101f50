package webgen

import (
	"testing"
)

func TestSelectStrategy(t *testing.T) {
	type tc struct {
		input     string
		strategy  Strategy
		heuristic string
	}

	tests := map[string]tc{
		"static content": {
			input:     "#view <h1>Hi</h1> <a href=\"/x\">x</a> #end view",
			strategy:  StrategyStatic,
			heuristic: "static-content",
		},
		"counter hydrates": {
			input:     "#data\ncount = 0\n#end data\n#view <button @click=\"count++\">{{count}}</button> #end view",
			strategy:  StrategyHydrate,
			heuristic: "hydration-default",
		},
		"few interactive elements": {
			input:     "#view <main><h1>t</h1><p>a</p><button @click=\"go()\">b</button></main> #end view",
			strategy:  StrategyIslands,
			heuristic: "islands-optimization",
		},
		"remote actions skip islands": {
			input: "#view <main><h1>t</h1><p>a</p><button @click=\"save()\">b</button></main> #end view\n" +
				"@server\nfunction save() { return 1 }\n@end server",
			strategy:  StrategySpa,
			heuristic: "spa-complexity",
		},
		"links route": {
			input:     "#data\nn = 1\n#end data\n#view <a href=\"/about\">{{ n }}</a> #end view",
			strategy:  StrategySpa,
			heuristic: "spa-complexity",
		},
		"dynamic import": {
			input:     "#data\nn = 1\n#end data\n#view <p>{{ n }}</p> #end view\n#script\nconst m = import(\"./m.js\")\n#end script",
			strategy:  StrategySpa,
			heuristic: "spa-complexity",
		},
		"many handlers": {
			input: "#view <div>" +
				"<b @click=\"a()\"></b><b @click=\"a()\"></b><b @click=\"a()\"></b>" +
				"<b @click=\"a()\"></b><b @click=\"a()\"></b><b @click=\"a()\"></b>" +
				"</div> #end view",
			strategy:  StrategySpa,
			heuristic: "spa-complexity",
		},
		"form only falls back": {
			input:     "#view <input type=\"text\"> #end view",
			strategy:  StrategySpa,
			heuristic: FallbackHeuristic,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			doc := mustParse(t, tt.input)
			f := DetectFeatures(doc)
			s, h := SelectStrategy(doc, f)
			if s != tt.strategy || h != tt.heuristic {
				t.Errorf("SelectStrategy() = %v (%s), want %v (%s)", s, h, tt.strategy, tt.heuristic)
			}

			s2, h2 := SelectStrategy(doc, f)
			if s2 != s || h2 != h {
				t.Errorf("second SelectStrategy() = %v (%s), want %v (%s)", s2, h2, s, h)
			}
		})
	}
}

func TestDetectFeatures(t *testing.T) {
	src := `#data
v = ""
#end data
#style
.fade { transition: opacity 1s; }
#end style
#view
<form @submit.prevent="send()">
  <input :value="v" @input="v = $event.target.value">
  @if(v) <p>{{ v }}</p> @end if
</form>
<a href="/home">home</a>
#end view`

	f := DetectFeatures(mustParse(t, src))

	want := Features{
		Reactive:      true,
		Events:        true,
		Animations:    true,
		Forms:         true,
		Routing:       true,
		Elements:      4,
		EventElements: 2,
		EventBindings: 2,
		Directives:    1,
		DataVars:      1,
	}
	if f != want {
		t.Errorf("DetectFeatures() = %+v\nwant %+v", f, want)
	}
}

func TestParseStrategy(t *testing.T) {
	type tc struct {
		input   string
		want    Strategy
		wantErr bool
	}

	tests := map[string]tc{
		"empty":   {input: "", want: StrategyAuto},
		"auto":    {input: "auto", want: StrategyAuto},
		"islands": {input: "Islands", want: StrategyIslands},
		"spa":     {input: " spa ", want: StrategySpa},
		"unknown": {input: "ssr", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	for s := range strategyNames {
		got, err := ParseStrategy(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStrategy(%q) = %v, %v", s.String(), got, err)
		}
	}
}
