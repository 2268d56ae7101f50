package webgen

import (
	"context"
	"fmt"
	"time"
)

// Result is the output of one compile.
type Result struct {
	Markup     string
	Stylesheet string
	Script     string
	// Assets holds every artifact by name: html, css, js and, when produced,
	// server.js and js.map.
	Assets   map[string]string
	Metadata Metadata
	Warnings []Warning
}

// Metadata describes how a document was compiled.
type Metadata struct {
	Timestamp   time.Time     `json:"timestamp"`
	Source      string        `json:"source"`
	Strategy    Strategy      `json:"strategy"`
	Heuristic   string        `json:"heuristic"`
	Target      Target        `json:"target"`
	Duration    time.Duration `json:"duration"`
	Features    Features      `json:"features"`
	Performance Performance   `json:"performance"`
	Runtime     []string      `json:"runtime"`
	Bundle      []AssetSize   `json:"bundle,omitempty"`
}

// Performance holds size and cost estimates of the output.
type Performance struct {
	MarkupBytes int `json:"markupBytes"`
	StyleBytes  int `json:"styleBytes"`
	ScriptBytes int `json:"scriptBytes"`
	GzipBytes   int `json:"gzipBytes"` // all three, compressed separately
	Bindings    int `json:"bindings"`
	Handlers    int `json:"handlers"`
	Islands     int `json:"islands"`
	// EstimatedTTI is a rough time-to-interactive in milliseconds.
	EstimatedTTI float64 `json:"estimatedTTI"`
}

// Compile runs the whole pipeline on one document. Each call works on its
// own CompilationContext, so concurrent calls are safe. ctx is checked
// between stages; a cancelled compile returns a *CompilationError wrapping
// ctx.Err().
func Compile(ctx context.Context, filename, source string, opts Options) (*Result, error) {
	start := time.Now()
	target, err := ParseTarget(string(opts.Target))
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	opts.Target = target
	opts = opts.resolve(filename)
	logger := opts.Logger
	cc := NewCompilationContext(filename, opts)

	fail := func(stage Stage, err error) (*Result, error) {
		logger.Build("%s: %s failed: %v", filename, stage, err)
		return nil, &CompilationError{File: filename, Stage: stage, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(StageTokenize, err)
	}
	tokens := Tokenize(filename, source)
	logger.Lex("%s: %d tokens", filename, len(tokens))

	if err := ctx.Err(); err != nil {
		return fail(StageParse, err)
	}
	doc, err := NewParserFromTokens(filename, source, tokens).ParseDocument()
	if err != nil {
		return fail(StageParse, err)
	}
	cc.Document = doc
	logger.Parse("%s: %d data vars, %d view nodes, %d actions",
		filename, len(doc.Data.Vars), len(doc.View.Nodes), len(doc.Actions))

	if err := ctx.Err(); err != nil {
		return fail(StageAnalyze, err)
	}
	cc.Graph = BuildGraph(doc)
	cc.Features = DetectFeatures(doc)
	if logger.Enabled() {
		logger.Analyze("%s: derived %v, unused %v", filename, cc.Graph.Derived(), cc.Graph.Unused())
	}

	if err := ctx.Err(); err != nil {
		return fail(StageSelect, err)
	}
	cc.Strategy, cc.Heuristic = chooseStrategy(opts, doc, cc.Features)
	logger.Strategy("%s: %s (%s)", filename, cc.Strategy, cc.Heuristic)

	if err := ctx.Err(); err != nil {
		return fail(StageGenerate, err)
	}
	if _, err := NewGenerator(cc).Generate(); err != nil {
		return fail(StageGenerate, err)
	}
	if logger.Enabled() {
		logger.Generate("%s: %d bindings, %d handlers, runtime %v", filename, cc.bindings, cc.handlers, cc.Dependencies())
	}

	if err := ctx.Err(); err != nil {
		return fail(StageOptimize, err)
	}
	if err := NewOptimizer().Run(ctx, cc); err != nil {
		return fail(StageOptimize, err)
	}
	if len(cc.bundle) > 0 && logger.Enabled() {
		logger.Optimize("%s: %s", filename, describeSizes(cc.bundle))
	}

	res, err := cc.result(start)
	if err != nil {
		return fail(StageOptimize, err)
	}
	logger.Build("%s: done in %s", filename, res.Metadata.Duration)
	return res, nil
}

// Report is the outcome of Check.
type Report struct {
	Strategy  Strategy
	Heuristic string
	Features  Features
	Warnings  []Warning
}

// Check parses and analyzes a document without generating output. It returns
// the strategy Compile would pick and the findings of the analysis passes.
func Check(ctx context.Context, filename, source string, opts Options) (*Report, error) {
	target, err := ParseTarget(string(opts.Target))
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	opts.Target = target
	opts = opts.resolve(filename)
	cc := NewCompilationContext(filename, opts)

	if err := ctx.Err(); err != nil {
		return nil, &CompilationError{File: filename, Stage: StageParse, Err: err}
	}
	doc, err := NewParserFromTokens(filename, source, Tokenize(filename, source)).ParseDocument()
	if err != nil {
		return nil, &CompilationError{File: filename, Stage: StageParse, Err: err}
	}
	cc.Document = doc
	cc.Graph = BuildGraph(doc)
	cc.Features = DetectFeatures(doc)
	cc.Strategy, cc.Heuristic = chooseStrategy(opts, doc, cc.Features)

	for _, p := range Passes() {
		if p.Name != PassWarnings && p.Name != PassStaticHints || !opts.passEnabled(p.Name) {
			continue
		}
		if err := p.Run(ctx, cc); err != nil {
			return nil, &CompilationError{File: filename, Stage: StageAnalyze, Err: err}
		}
	}
	opts.Logger.Analyze("%s: checked, %d warnings", filename, len(cc.warnings))

	return &Report{
		Strategy:  cc.Strategy,
		Heuristic: cc.Heuristic,
		Features:  cc.Features,
		Warnings:  cc.Warnings(),
	}, nil
}

// chooseStrategy applies an explicit strategy, then the static target, then
// the heuristics.
func chooseStrategy(opts Options, doc *Document, f Features) (Strategy, string) {
	switch {
	case opts.Strategy != StrategyAuto:
		return opts.Strategy, "explicit"
	case opts.Target == TargetStatic:
		return StrategyStatic, "static-target"
	}
	return SelectStrategy(doc, f)
}

func (c *CompilationContext) result(start time.Time) (*Result, error) {
	assets := c.Assets()
	res := &Result{
		Markup:     assets[AssetHTML],
		Stylesheet: assets[AssetCSS],
		Script:     assets[AssetJS],
		Assets:     assets,
		Warnings:   c.Warnings(),
	}

	perf := Performance{
		MarkupBytes: len(res.Markup),
		StyleBytes:  len(res.Stylesheet),
		ScriptBytes: len(res.Script),
		Bindings:    c.bindings,
		Handlers:    c.handlers,
		Islands:     c.islands,
	}
	var scriptGzip int
	for i, s := range []string{res.Markup, res.Stylesheet, res.Script} {
		n, err := gzipSize(s)
		if err != nil {
			return nil, fmt.Errorf("measuring output: %w", err)
		}
		perf.GzipBytes += n
		if i == 2 {
			scriptGzip = n
		}
	}
	perf.EstimatedTTI = estimateTTI(scriptGzip, perf)

	res.Metadata = Metadata{
		Timestamp:   start,
		Source:      c.Filename,
		Strategy:    c.Strategy,
		Heuristic:   c.Heuristic,
		Target:      c.Options.Target,
		Duration:    time.Since(start),
		Features:    c.Features,
		Performance: perf,
		Runtime:     c.Dependencies(),
		Bundle:      c.bundle,
	}
	return res, nil
}

// estimateTTI models time to interactive as a fixed script start-up cost,
// transfer of the compressed script at 200 bytes per millisecond and a small
// cost per binding and handler. Pages without script are interactive at once.
func estimateTTI(scriptGzip int, p Performance) float64 {
	if p.ScriptBytes == 0 {
		return 0
	}
	return 50 + float64(scriptGzip)/200 + float64(p.Bindings)*0.2 + float64(p.Handlers)*0.1
}
