package webgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/grindlemire/go-webc/internal/log"
	"golang.org/x/sync/errgroup"
)

func TestCompile_Counter(t *testing.T) {
	var logs bytes.Buffer
	res, err := Compile(context.Background(), "counter.webc", counterSource,
		Options{Analyze: true, Logger: log.New(&logs)})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	assertContains(t, "markup", res.Markup,
		"<!doctype html>",
		"<title>counter</title>",
		`data-strategy="hydrate"`,
		`<button data-on-click="h0"><span data-bind="b0">0</span></button>`,
	)
	assertContains(t, "script", res.Script, `"count": 0`, "$state.count++;")
	if res.Stylesheet != ".counter { font-size: 2em; }" {
		t.Errorf("Stylesheet = %q", res.Stylesheet)
	}
	if res.Assets[AssetHTML] != res.Markup || res.Assets[AssetJS] != res.Script {
		t.Error("Assets disagree with the Result fields")
	}

	md := res.Metadata
	if md.Strategy != StrategyHydrate || md.Heuristic != "hydration-default" {
		t.Errorf("Strategy = %s (%s), want hydrate (hydration-default)", md.Strategy, md.Heuristic)
	}
	if md.Target != TargetBrowser || md.Source != "counter.webc" {
		t.Errorf("Target = %s, Source = %s", md.Target, md.Source)
	}
	if md.Timestamp.IsZero() || md.Duration < 0 {
		t.Errorf("Timestamp = %v, Duration = %v", md.Timestamp, md.Duration)
	}
	if strings.Join(md.Runtime, ",") != RuntimeCore {
		t.Errorf("Runtime = %v, want [%s]", md.Runtime, RuntimeCore)
	}
	if len(md.Bundle) != 3 {
		t.Errorf("Bundle = %+v, want three assets", md.Bundle)
	}

	p := md.Performance
	if p.Bindings != 1 || p.Handlers != 1 || p.Islands != 0 {
		t.Errorf("Performance counts = %+v", p)
	}
	if p.MarkupBytes != len(res.Markup) || p.ScriptBytes != len(res.Script) || p.StyleBytes != len(res.Stylesheet) {
		t.Errorf("Performance sizes = %+v", p)
	}
	if p.GzipBytes == 0 || p.EstimatedTTI <= 50 {
		t.Errorf("GzipBytes = %d, EstimatedTTI = %v", p.GzipBytes, p.EstimatedTTI)
	}

	assertContains(t, "log", logs.String(),
		"[parse] counter.webc: 1 data vars",
		"[analyze] counter.webc: derived [], unused []",
		"[strategy] counter.webc: hydrate (hydration-default)",
		"[generate] counter.webc: 1 bindings, 1 handlers, runtime [runtime/core]",
		"[optimize] counter.webc: css=",
		"[build] counter.webc: done in",
	)
}

func TestCompile_Minified(t *testing.T) {
	plain, err := Compile(context.Background(), "counter.webc", counterSource, Options{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	small, err := Compile(context.Background(), "counter.webc", counterSource, Options{Minify: true})
	if err != nil {
		t.Fatalf("Compile(minify) error = %v", err)
	}
	if len(small.Script) >= len(plain.Script) || len(small.Markup) >= len(plain.Markup) {
		t.Errorf("minified sizes %d/%d, plain %d/%d", len(small.Markup), len(small.Script), len(plain.Markup), len(plain.Script))
	}
	if small.Stylesheet != ".counter{font-size:2em}" {
		t.Errorf("Stylesheet = %q", small.Stylesheet)
	}
}

func TestCompile_StaticTarget(t *testing.T) {
	type tc struct {
		opts      Options
		strategy  Strategy
		heuristic string
	}

	tests := map[string]tc{
		"static target": {
			opts:      Options{Target: TargetStatic},
			strategy:  StrategyStatic,
			heuristic: "static-target",
		},
		"explicit strategy wins": {
			opts:      Options{Target: TargetStatic, Strategy: StrategyIslands},
			strategy:  StrategyIslands,
			heuristic: "explicit",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := Compile(context.Background(), "counter.webc", counterSource, tt.opts)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if res.Metadata.Strategy != tt.strategy || res.Metadata.Heuristic != tt.heuristic {
				t.Errorf("Strategy = %s (%s), want %s (%s)", res.Metadata.Strategy, res.Metadata.Heuristic, tt.strategy, tt.heuristic)
			}
		})
	}
}

func TestCompile_StaticHasNoScriptCost(t *testing.T) {
	res, err := Compile(context.Background(), "page.webc", "#view <h1>Hi</h1> #end view", Options{})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if res.Metadata.Strategy != StrategyStatic {
		t.Fatalf("Strategy = %s, want static", res.Metadata.Strategy)
	}
	if res.Script != "" || res.Metadata.Performance.EstimatedTTI != 0 {
		t.Errorf("Script = %q, EstimatedTTI = %v", res.Script, res.Metadata.Performance.EstimatedTTI)
	}
	if len(res.Metadata.Runtime) != 0 {
		t.Errorf("Runtime = %v, want none", res.Metadata.Runtime)
	}
}

func TestCompile_Errors(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	type tc struct {
		ctx    context.Context
		source string
		opts   Options
		stage  Stage
		cause  error
		plain  string // substring of a non-CompilationError
	}

	tests := map[string]tc{
		"cancelled": {
			ctx:    cancelled,
			source: counterSource,
			stage:  StageTokenize,
			cause:  context.Canceled,
		},
		"parse error": {
			ctx:    context.Background(),
			source: "#view <div> #end view",
			stage:  StageParse,
		},
		"invalid target": {
			ctx:    context.Background(),
			source: counterSource,
			opts:   Options{Target: "wasm"},
			plain:  `invalid options: unknown target "wasm"`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res, err := Compile(tt.ctx, "bad.webc", tt.source, tt.opts)
			if err == nil {
				t.Fatalf("Compile() = %+v, want error", res)
			}
			if res != nil {
				t.Errorf("Compile() returned a result with the error")
			}

			var ce *CompilationError
			if tt.plain != "" {
				if errors.As(err, &ce) {
					t.Errorf("Compile() error = %#v, want a plain error", err)
				}
				if !strings.Contains(err.Error(), tt.plain) {
					t.Errorf("Compile() error = %q, want %q", err, tt.plain)
				}
				return
			}

			if !errors.As(err, &ce) {
				t.Fatalf("Compile() error = %v, want *CompilationError", err)
			}
			if ce.Stage != tt.stage || ce.File != "bad.webc" {
				t.Errorf("CompilationError = %s/%s, want bad.webc/%s", ce.File, ce.Stage, tt.stage)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.cause)
			}
		})
	}
}

func TestCompile_ParseErrorDetail(t *testing.T) {
	_, err := Compile(context.Background(), "bad.webc", "#view <div> #end view", Options{})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Compile() error = %v, want a wrapped *ParseError", err)
	}
	if !strings.HasPrefix(err.Error(), "bad.webc: parse failed: ") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestCompile_Concurrent(t *testing.T) {
	sources := map[string]string{
		"counter.webc": counterSource,
		"static.webc":  "#view <h1>Hi</h1> #end view",
		"list.webc":    "#data\nitems = [1, 2]\n#end data\n#view <ul>@for(i in items)<li>{{ i }}</li>@end for</ul> #end view",
		"islands.webc": "#view <main><h1>t</h1><p>a</p><button @click=\"go()\">b</button></main> #end view",
	}

	want := make(map[string]*Result)
	for name, src := range sources {
		res, err := Compile(context.Background(), name, src, Options{Minify: true})
		if err != nil {
			t.Fatalf("Compile(%s) error = %v", name, err)
		}
		want[name] = res
	}

	g, ctx := errgroup.WithContext(context.Background())
	results := make([]*Result, 8*len(sources))
	names := make([]string, len(results))
	i := 0
	for round := 0; round < 8; round++ {
		for name, src := range sources {
			idx := i
			names[idx] = name
			g.Go(func() error {
				res, err := Compile(ctx, name, src, Options{Minify: true})
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				results[idx] = res
				return nil
			})
			i++
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Compile() error = %v", err)
	}

	for idx, res := range results {
		w := want[names[idx]]
		if res.Markup != w.Markup || res.Script != w.Script || res.Stylesheet != w.Stylesheet {
			t.Errorf("%s: concurrent output differs from sequential output", names[idx])
		}
	}
}

func TestCheck(t *testing.T) {
	src := "#data\ncount = 0\nunused = 1\n#end data\n#view <button @click=\"count++\">{{ cout }}</button> #end view"
	rep, err := Check(context.Background(), "check.webc", src, Options{})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if rep.Strategy != StrategyHydrate || rep.Heuristic != "hydration-default" {
		t.Errorf("Strategy = %s (%s), want hydrate (hydration-default)", rep.Strategy, rep.Heuristic)
	}

	var msgs []string
	for _, w := range rep.Warnings {
		msgs = append(msgs, w.Message)
	}
	assertContains(t, "warnings", strings.Join(msgs, "\n"),
		`data variable "unused" is never used`,
		`did you mean "count"?`,
	)

	rep, err = Check(context.Background(), "check.webc", src, Options{DisablePasses: []string{PassWarnings, PassStaticHints}})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none with the passes disabled", rep.Warnings)
	}

	_, err = Check(context.Background(), "bad.webc", "#view <p> #end view", Options{})
	var ce *CompilationError
	if !errors.As(err, &ce) || ce.Stage != StageParse {
		t.Errorf("Check() error = %v, want a parse-stage CompilationError", err)
	}
}
