package webgen

import (
	"context"
	"maps"
)

// Optimizer pass names, in the order they run.
const (
	PassMinifyHTML     = "minify-html"
	PassMinifyCSS      = "minify-css"
	PassMinifyJS       = "minify-js"
	PassMangle         = "mangle"
	PassWarnings       = "warnings"
	PassStaticHints    = "static-hints"
	PassBundleAnalysis = "bundle-analysis"
)

// Pass is one optimizer step over the assets of a compilation. Run must be
// idempotent: running a pass on its own output changes nothing.
type Pass struct {
	Name    string
	Enabled func(o Options) bool
	Run     func(ctx context.Context, cc *CompilationContext) error
}

// Passes returns the optimizer pipeline in order.
func Passes() []Pass {
	always := func(Options) bool { return true }
	return []Pass{
		{Name: PassMinifyHTML, Enabled: func(o Options) bool { return o.Minify }, Run: minifyHTMLPass},
		{Name: PassMinifyCSS, Enabled: func(o Options) bool { return o.Minify }, Run: minifyCSSPass},
		{Name: PassMinifyJS, Enabled: func(o Options) bool { return o.Minify }, Run: minifyJSPass},
		{Name: PassMangle, Enabled: func(o Options) bool { return o.Minify && !o.Dev }, Run: manglePass},
		{Name: PassWarnings, Enabled: always, Run: warningsPass},
		{Name: PassStaticHints, Enabled: always, Run: staticHintsPass},
		{Name: PassBundleAnalysis, Enabled: func(o Options) bool { return o.Analyze }, Run: bundleAnalysisPass},
	}
}

// Optimizer runs passes over a CompilationContext.
type Optimizer struct {
	passes []Pass
}

// NewOptimizer creates an optimizer with the default pipeline.
func NewOptimizer() *Optimizer {
	return &Optimizer{passes: Passes()}
}

// Run executes every enabled pass. A pass that fails never aborts the
// compile: its asset changes are rolled back and a warning is recorded.
// Only cancellation of ctx is returned as an error.
func (o *Optimizer) Run(ctx context.Context, cc *CompilationContext) error {
	for _, p := range o.passes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.Enabled(cc.Options) || !cc.Options.passEnabled(p.Name) {
			continue
		}
		snapshot := maps.Clone(cc.assets)
		if err := p.Run(ctx, cc); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			cc.assets = snapshot
			cc.Warn(p.Name, nil, "pass failed, output left unchanged: %v", err)
			cc.Options.Logger.Optimize("%s failed: %v", p.Name, err)
			continue
		}
		cc.Options.Logger.Optimize("%s done", p.Name)
	}
	return nil
}
