package webgen

import (
	"fmt"
	"maps"
	"slices"
)

// Asset names in the CompilationContext.
const (
	AssetHTML      = "html"
	AssetCSS       = "css"
	AssetJS        = "js"
	AssetServerJS  = "server.js"
	AssetSourceMap = "js.map"
)

// Warning is a non-fatal finding of a pass.
type Warning struct {
	Pass    string    `json:"pass"`
	Message string    `json:"message"`
	Pos     *Position `json:"pos,omitempty"`
}

func (w Warning) String() string {
	if w.Pos != nil {
		return fmt.Sprintf("%s: %s [%s]", w.Pos, w.Message, w.Pass)
	}
	return fmt.Sprintf("%s [%s]", w.Message, w.Pass)
}

// CompilationContext carries one compile through the pipeline. Every call to
// Compile builds its own; nothing in it is shared.
type CompilationContext struct {
	Filename  string
	Document  *Document
	Options   Options
	Features  Features
	Graph     *ReactivityGraph
	Strategy  Strategy
	Heuristic string

	assets       map[string]string
	dependencies map[string]bool
	warnings     []Warning
	warned       map[string]bool

	// generator statistics used by metadata
	bindings  int
	handlers  int
	islands   int
	sourceMap *SourceMap
	bundle    []AssetSize
}

// NewCompilationContext creates an empty context for filename.
func NewCompilationContext(filename string, opts Options) *CompilationContext {
	return &CompilationContext{
		Filename:     filename,
		Options:      opts,
		assets:       make(map[string]string),
		dependencies: make(map[string]bool),
		warned:       make(map[string]bool),
	}
}

// Asset returns the named asset.
func (c *CompilationContext) Asset(name string) (string, bool) {
	v, ok := c.assets[name]
	return v, ok
}

// SetAsset stores the named asset.
func (c *CompilationContext) SetAsset(name, content string) {
	c.assets[name] = content
}

// DeleteAsset removes the named asset.
func (c *CompilationContext) DeleteAsset(name string) {
	delete(c.assets, name)
}

// Assets returns a copy of the asset map.
func (c *CompilationContext) Assets() map[string]string {
	return maps.Clone(c.assets)
}

// AddDependency records a runtime module the output needs.
func (c *CompilationContext) AddDependency(name string) {
	c.dependencies[name] = true
}

// Dependencies returns the recorded runtime modules, sorted.
func (c *CompilationContext) Dependencies() []string {
	return slices.Sorted(maps.Keys(c.dependencies))
}

// Warn appends a warning unless an identical one was already recorded.
func (c *CompilationContext) Warn(pass string, pos *Position, format string, args ...any) {
	w := Warning{Pass: pass, Message: fmt.Sprintf(format, args...), Pos: pos}
	key := w.String()
	if c.warned[key] {
		return
	}
	c.warned[key] = true
	c.warnings = append(c.warnings, w)
}

// Warnings returns a copy of the warnings in the order they were recorded.
func (c *CompilationContext) Warnings() []Warning {
	return slices.Clone(c.warnings)
}
