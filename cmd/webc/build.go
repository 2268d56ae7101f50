package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/grindlemire/go-webc/internal/config"
	"github.com/grindlemire/go-webc/internal/discover"
	"github.com/grindlemire/go-webc/internal/goembed"
	"github.com/grindlemire/go-webc/internal/log"
	"github.com/grindlemire/go-webc/internal/webgen"
)

// builder holds the settings shared by every file of one build.
type builder struct {
	opts    webgen.Options
	out     string // empty writes next to the source
	goPkg   string
	analyze bool
	verbose bool
	p       *printer
}

// runBuild implements the build subcommand.
func runBuild(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Out, "o", cfg.Out, "output directory (default: next to each source file)")
	fs.BoolVar(&cfg.Minify, "minify", cfg.Minify, "minify markup, styles and scripts")
	fs.BoolVar(&cfg.Dev, "dev", cfg.Dev, "inline styles and scripts into the page")
	fs.BoolVar(&cfg.Analyze, "analyze", cfg.Analyze, "write <name>.meta.json with bundle analysis")
	fs.BoolVar(&cfg.SourceMap, "sourcemap", cfg.SourceMap, "write <name>.js.map")
	fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "rendering strategy: auto, static, hydrate, stream, islands or spa")
	fs.StringVar(&cfg.Target, "target", cfg.Target, "output target: browser, node or static")
	fs.StringVar(&cfg.AssetBase, "asset-base", cfg.AssetBase, "URL prefix of linked assets")
	fs.StringVar(&cfg.GoPackage, "go-pkg", cfg.GoPackage, "also write <name>_webc.go in this package")
	fs.IntVar(&cfg.Jobs, "j", cfg.Jobs, "files compiled in parallel (default: number of CPUs)")
	disable := fs.String("disable", strings.Join(cfg.Disable, ","), "comma-separated optimizer passes to skip")
	verbose := fs.Bool("v", false, "verbose output")
	logPath := fs.String("log", "", "write compiler debug log to file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Disable = splitList(*disable)
	if err := cfg.Validate(); err != nil {
		return err
	}

	b := &builder{
		opts:    cfg.Options(),
		out:     cfg.Out,
		goPkg:   cfg.GoPackage,
		analyze: cfg.Analyze,
		verbose: *verbose,
		p:       newPrinter(stdout, stderr),
	}

	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		defer f.Close()
		b.opts.Logger = log.New(f)
	}

	files, err := discover.Files(fs.Args(), cfg.Ignore)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .webc files found")
	}
	if err := b.checkCollisions(files); err != nil {
		return err
	}
	if b.verbose {
		b.p.info("Found %d .webc file(s)", len(files))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	jobs := cfg.Jobs
	if jobs == 0 {
		jobs = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	var failed atomic.Int32
	for _, file := range files {
		g.Go(func() error {
			if err := b.buildFile(ctx, file); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				b.p.fail(file, err)
				failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("build interrupted: %w", err)
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d file(s) had errors", n)
	}
	if b.verbose {
		b.p.info("Successfully built %d file(s)", len(files))
	}
	return nil
}

// checkCollisions rejects builds where two documents would write the same
// output files.
func (b *builder) checkCollisions(files []string) error {
	owner := make(map[string]string)
	for _, f := range files {
		key := filepath.Join(b.outDir(f), stem(f))
		if prev, ok := owner[key]; ok {
			return fmt.Errorf("%s and %s would both write %s.*", prev, f, key)
		}
		owner[key] = f
	}
	return nil
}

func (b *builder) outDir(file string) string {
	if b.out != "" {
		return b.out
	}
	return filepath.Dir(file)
}

// buildFile compiles one document and writes its assets.
func (b *builder) buildFile(ctx context.Context, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	res, err := webgen.Compile(ctx, path, string(source), b.opts)
	if err != nil {
		return err
	}

	dir := b.outDir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	name := stem(path)
	written := make([]string, 0, len(res.Assets)+2)
	for _, key := range slices.Sorted(maps.Keys(res.Assets)) {
		content := res.Assets[key]
		if content == "" {
			continue
		}
		out := filepath.Join(dir, goembed.FileName(name, key))
		if err := os.WriteFile(out, []byte(content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		written = append(written, out)
	}

	if b.analyze {
		data, err := json.MarshalIndent(res.Metadata, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding metadata: %w", err)
		}
		out := filepath.Join(dir, name+".meta.json")
		if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		written = append(written, out)
	}

	if b.goPkg != "" {
		code, err := goembed.NewGenerator().Generate(b.goPkg, path, res)
		if err != nil {
			return fmt.Errorf("generating Go file: %w", err)
		}
		out := filepath.Join(dir, filepath.Base(goembed.OutputFileName(path)))
		if err := os.WriteFile(out, code, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		written = append(written, out)
	}

	b.p.warnings(path, res.Warnings)
	b.p.ok("%s -> %s (%s, %s)", path, filepath.Join(dir, name+".html"), res.Metadata.Strategy, res.Metadata.Heuristic)
	if b.verbose {
		for _, w := range written {
			b.p.info("  wrote %s", w)
		}
		perf := res.Metadata.Performance
		b.p.info("  %d bindings, %d handlers, %d bytes gzipped, ~%.0fms to interactive",
			perf.Bindings, perf.Handlers, perf.GzipBytes, perf.EstimatedTTI)
	}
	return nil
}

// stem is the file name without directory and extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
