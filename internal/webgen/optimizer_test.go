package webgen

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const counterSource = `#data
count = 0
#end data
#style
.counter { font-size: 2em; }
#end style
#view
<div class="counter">
  <button @click="count++">{{ count }}</button>
</div>
#end view`

func warningMessages(cc *CompilationContext) string {
	var msgs []string
	for _, w := range cc.Warnings() {
		msgs = append(msgs, w.Message)
	}
	return strings.Join(msgs, "\n")
}

func TestOptimizer_RollsBackFailedPass(t *testing.T) {
	cc, _ := generate(t, counterSource, Options{Strategy: StrategyHydrate})
	before := cc.Assets()

	o := &Optimizer{passes: []Pass{{
		Name:    "broken",
		Enabled: func(Options) bool { return true },
		Run: func(_ context.Context, cc *CompilationContext) error {
			cc.SetAsset(AssetHTML, "garbage")
			cc.DeleteAsset(AssetCSS)
			return errors.New("boom")
		},
	}}}

	if err := o.Run(context.Background(), cc); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	after := cc.Assets()
	for name, content := range before {
		if after[name] != content {
			t.Errorf("asset %s changed by a failed pass", name)
		}
	}
	assertContains(t, "warnings", warningMessages(cc), "pass failed, output left unchanged: boom")
}

func TestOptimizer_Cancelled(t *testing.T) {
	cc, _ := generate(t, counterSource, Options{Strategy: StrategyHydrate, Minify: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewOptimizer().Run(ctx, cc); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestOptimizer_Toggles(t *testing.T) {
	type tc struct {
		opts    Options
		changed map[string]bool
	}

	tests := map[string]tc{
		"minify off": {
			opts:    Options{Strategy: StrategyHydrate},
			changed: map[string]bool{AssetHTML: false, AssetCSS: false, AssetJS: false},
		},
		"minify on": {
			opts:    Options{Strategy: StrategyHydrate, Minify: true},
			changed: map[string]bool{AssetHTML: true, AssetCSS: true, AssetJS: true},
		},
		"minify-html disabled": {
			opts:    Options{Strategy: StrategyHydrate, Minify: true, DisablePasses: []string{PassMinifyHTML}},
			changed: map[string]bool{AssetHTML: false, AssetCSS: true, AssetJS: true},
		},
		"all minifiers disabled": {
			opts: Options{
				Strategy:      StrategyHydrate,
				Minify:        true,
				DisablePasses: []string{PassMinifyHTML, PassMinifyCSS, PassMinifyJS, PassMangle},
			},
			changed: map[string]bool{AssetHTML: false, AssetCSS: false, AssetJS: false},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cc, _ := generate(t, counterSource, tt.opts)
			before := cc.Assets()
			if err := NewOptimizer().Run(context.Background(), cc); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			after := cc.Assets()
			for asset, want := range tt.changed {
				if got := before[asset] != after[asset]; got != want {
					t.Errorf("%s changed = %v, want %v", asset, got, want)
				}
			}
		})
	}
}

func TestOptimizer_MangleShortensRuntime(t *testing.T) {
	cc, _ := generate(t, counterSource, Options{Strategy: StrategyHydrate, Minify: true})
	if js, _ := cc.Asset(AssetJS); !strings.Contains(js, mangledPrefix) {
		t.Fatalf("generated script has no %s names", mangledPrefix)
	}
	if err := NewOptimizer().Run(context.Background(), cc); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	js, _ := cc.Asset(AssetJS)
	if strings.Contains(js, "var "+mangledPrefix) {
		t.Errorf("mangled script still declares %s names", mangledPrefix)
	}

	// Dev builds keep readable names.
	dev, _ := generate(t, counterSource, Options{Strategy: StrategyHydrate, Minify: true, Dev: true})
	if err := NewOptimizer().Run(context.Background(), dev); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if js, _ := dev.Asset(AssetJS); !strings.Contains(js, mangledPrefix) {
		t.Errorf("dev script lost its %s names", mangledPrefix)
	}
}

func TestOptimizer_Idempotent(t *testing.T) {
	cc, _ := generate(t, counterSource, Options{Strategy: StrategyHydrate, Minify: true})
	if err := NewOptimizer().Run(context.Background(), cc); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	once := cc.Assets()

	if err := NewOptimizer().Run(context.Background(), cc); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	for name, content := range cc.Assets() {
		if once[name] != content {
			t.Errorf("asset %s changed on the second run:\n%q\n%q", name, once[name], content)
		}
	}
}

func TestOptimizer_SourceMapDroppedWhenMinified(t *testing.T) {
	cc, _ := generate(t, counterSource, Options{Strategy: StrategyHydrate, Minify: true, SourceMap: true})
	if _, ok := cc.Asset(AssetSourceMap); !ok {
		t.Fatal("js.map missing before optimizing")
	}
	if err := NewOptimizer().Run(context.Background(), cc); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := cc.Asset(AssetSourceMap); ok {
		t.Error("js.map kept after minification")
	}
	assertContains(t, "warnings", warningMessages(cc), "source map dropped")
}

func TestWarningsPass(t *testing.T) {
	src := "#data\na = 1\na = 2\nb = 3\nc = b\nd = 4\ne = 5\n#end data\n" +
		"#view <p :title=\"e\">{{ a }}</p> #end view\n#script\nconsole.log(d)\n#end script"
	cc, _ := generate(t, src, Options{Strategy: StrategyHydrate})

	if err := warningsPass(context.Background(), cc); err != nil {
		t.Fatalf("warningsPass() error = %v", err)
	}
	got := warningMessages(cc)
	assertContains(t, "warnings", got,
		`data variable "a" declared more than once; the first declaration is used`,
		`data variable "c" is never used`,
	)
	// b feeds c, d is read by the script and e by a bound attribute.
	assertNotContains(t, "warnings", got, `"b" is never used`, `"d" is never used`, `"e" is never used`)
}

func TestWarningsPass_LargeAsset(t *testing.T) {
	cc, _ := generate(t, "#view <p>x</p> #end view", Options{Strategy: StrategyStatic})
	cc.SetAsset(AssetCSS, strings.Repeat("a", maxAssetBytes+1))

	if err := warningsPass(context.Background(), cc); err != nil {
		t.Fatalf("warningsPass() error = %v", err)
	}
	assertContains(t, "warnings", warningMessages(cc), "asset css is 100.0 KiB, above the 100 KiB budget")
}

func TestStaticHintsPass(t *testing.T) {
	type tc struct {
		input    string
		strategy Strategy
		want     []string
		absent   []string
	}

	tests := map[string]tc{
		"undeclared with suggestion": {
			input:    "#data\ncount = 0\n#end data\n#view {{ cout }} @for(x in items) {{ x }} {{ Math.max(x, 1) }} @end for #end view",
			strategy: StrategyHydrate,
			want: []string{
				`"cout" is not declared in #data, #script or @server; did you mean "count"?`,
				`"items" is not declared in #data, #script or @server`,
			},
			absent: []string{`"x" is not declared`, `"Math"`},
		},
		"script and actions declare names": {
			input: "#view {{ helper() }} {{ save }} #end view\n#script\nfunction helper() { return 1 }\n#end script\n" +
				"@server\nfunction save() { return 1 }\n@end server",
			strategy: StrategyHydrate,
			absent:   []string{"is not declared"},
		},
		"static with events": {
			input:    "#data\nn = 0\n#end data\n#view <button @click=\"n++\">{{ n }}</button> #end view",
			strategy: StrategyStatic,
			want:     []string{"static strategy ships no script: 1 event bindings and 1 data variables will be inert"},
		},
		"hydrate without interactivity": {
			input:    "#view <p>plain</p> #end view",
			strategy: StrategyHydrate,
			want:     []string{"document has no interactivity"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cc, _ := generate(t, tt.input, Options{Strategy: tt.strategy})
			if err := staticHintsPass(context.Background(), cc); err != nil {
				t.Fatalf("staticHintsPass() error = %v", err)
			}
			got := warningMessages(cc)
			assertContains(t, "warnings", got, tt.want...)
			assertNotContains(t, "warnings", got, tt.absent...)
		})
	}
}

func TestBundleAnalysisPass(t *testing.T) {
	cc, _ := generate(t, counterSource, Options{Strategy: StrategyHydrate, Analyze: true})
	if err := NewOptimizer().Run(context.Background(), cc); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var names []string
	for _, s := range cc.bundle {
		names = append(names, s.Name)
		if s.Bytes == 0 || s.Gzip == 0 {
			t.Errorf("%s sizes = %d/%d, want both non-zero", s.Name, s.Bytes, s.Gzip)
		}
	}
	if got, want := strings.Join(names, ","), "css,html,js"; got != want {
		t.Errorf("bundle assets = %s, want %s", got, want)
	}
	if got := describeSizes(cc.bundle[:1]); !strings.HasPrefix(got, "css=") {
		t.Errorf("describeSizes() = %q", got)
	}
}

func TestGzipSize(t *testing.T) {
	if n, err := gzipSize(""); n != 0 || err != nil {
		t.Errorf("gzipSize(\"\") = %d, %v", n, err)
	}
	small, _ := gzipSize("a")
	large, _ := gzipSize(strings.Repeat("abcdefgh", 1000))
	if small == 0 || large >= 8000 {
		t.Errorf("gzipSize() = %d and %d", small, large)
	}
}
