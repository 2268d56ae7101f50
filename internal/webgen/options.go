package webgen

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grindlemire/go-webc/internal/log"
)

// Target is the environment the output is built for.
type Target string

const (
	TargetBrowser Target = "browser"
	TargetNode    Target = "node"
	TargetStatic  Target = "static"
)

// ParseTarget validates a target name. The empty string means browser.
func ParseTarget(name string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(name))); t {
	case "":
		return TargetBrowser, nil
	case TargetBrowser, TargetNode, TargetStatic:
		return t, nil
	}
	return "", fmt.Errorf("unknown target %q (want browser, node or static)", name)
}

// Options control one compile.
type Options struct {
	Target    Target
	Strategy  Strategy // StrategyAuto selects by heuristics
	Minify    bool
	SourceMap bool
	Dev       bool // inline assets instead of linking them
	Analyze   bool // run bundle analysis

	Title     string // page title; defaults to the file name
	AssetBase string // prefix of linked asset URLs, e.g. "/static/"
	AssetName string // base name of the linked .css and .js; defaults to the file name

	// DisablePasses names optimizer passes to skip.
	DisablePasses []string

	Logger *log.Logger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Target: TargetBrowser}
}

// resolve fills defaults that depend on the file being compiled.
func (o Options) resolve(filename string) Options {
	if o.Target == "" {
		o.Target = TargetBrowser
	}
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "app"
	}
	if o.Title == "" {
		o.Title = stem
	}
	if o.AssetName == "" {
		o.AssetName = stem
	}
	return o
}

func (o Options) passEnabled(name string) bool {
	for _, p := range o.DisablePasses {
		if p == name {
			return false
		}
	}
	return true
}
