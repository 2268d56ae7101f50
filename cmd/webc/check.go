package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grindlemire/go-webc/internal/config"
	"github.com/grindlemire/go-webc/internal/discover"
	"github.com/grindlemire/go-webc/internal/webgen"
)

// runCheck implements the check subcommand.
// It parses and analyzes .webc files without generating output.
func runCheck(args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "rendering strategy to check against")
	fs.StringVar(&cfg.Target, "target", cfg.Target, "output target: browser, node or static")
	verbose := fs.Bool("v", false, "verbose output")
	strict := fs.Bool("strict", false, "treat warnings as errors")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts := cfg.Options()

	files, err := discover.Files(fs.Args(), cfg.Ignore)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .webc files found")
	}

	p := newPrinter(stdout, stderr)
	if *verbose {
		p.info("Checking %d .webc file(s)", len(files))
	}

	errs := webgen.NewErrorList()
	var warningCount int
	for _, path := range files {
		rep, err := checkFile(path, opts)
		if err != nil {
			p.fail(path, err)
			errs.Add(err)
			continue
		}
		p.warnings(path, rep.Warnings)
		warningCount += len(rep.Warnings)
		if *verbose {
			p.ok("%s: %s (%s)", path, rep.Strategy, rep.Heuristic)
		}
	}

	if errs.HasErrors() {
		return fmt.Errorf("%d file(s) had errors", errs.Len())
	}
	if *strict && warningCount > 0 {
		return fmt.Errorf("%d warning(s)", warningCount)
	}
	if *verbose {
		p.info("All %d file(s) passed checks", len(files))
	}
	return nil
}

// checkFile parses and analyzes a single .webc file.
func checkFile(path string, opts webgen.Options) (*webgen.Report, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return webgen.Check(context.Background(), path, string(source), opts)
}
