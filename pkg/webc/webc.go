// Package webc compiles .webc documents into HTML, CSS and JavaScript.
//
// A document has optional #data, #style, #script and @server blocks and a
// required #view block:
//
//	#data
//	count = 0
//	#end data
//	#view
//	<button @click="count++">{{ count }}</button>
//	#end view
//
// Compile picks a rendering strategy from the document's features unless one
// is given, and returns the page markup, its stylesheet and its script.
package webc

import (
	"context"
	"fmt"
	"os"

	"github.com/grindlemire/go-webc/internal/webgen"
)

type (
	Options          = webgen.Options
	Result           = webgen.Result
	Metadata         = webgen.Metadata
	Performance      = webgen.Performance
	Features         = webgen.Features
	Warning          = webgen.Warning
	AssetSize        = webgen.AssetSize
	Strategy         = webgen.Strategy
	Target           = webgen.Target
	Position         = webgen.Position
	ParseError       = webgen.ParseError
	CompilationError = webgen.CompilationError
	Stage            = webgen.Stage
)

const (
	StrategyAuto    = webgen.StrategyAuto
	StrategyStatic  = webgen.StrategyStatic
	StrategyHydrate = webgen.StrategyHydrate
	StrategyStream  = webgen.StrategyStream
	StrategyIslands = webgen.StrategyIslands
	StrategySpa     = webgen.StrategySpa

	TargetBrowser = webgen.TargetBrowser
	TargetNode    = webgen.TargetNode
	TargetStatic  = webgen.TargetStatic
)

// Asset names in Result.Assets.
const (
	AssetHTML      = webgen.AssetHTML
	AssetCSS       = webgen.AssetCSS
	AssetJS        = webgen.AssetJS
	AssetServerJS  = webgen.AssetServerJS
	AssetSourceMap = webgen.AssetSourceMap
)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return webgen.DefaultOptions()
}

// ParseStrategy validates a strategy name; "" and "auto" mean StrategyAuto.
func ParseStrategy(name string) (Strategy, error) {
	return webgen.ParseStrategy(name)
}

// ParseTarget validates a target name; "" means TargetBrowser.
func ParseTarget(name string) (Target, error) {
	return webgen.ParseTarget(name)
}

// Compile compiles one document. filename is used in errors and as the
// default page title. Concurrent calls are safe.
func Compile(ctx context.Context, filename, source string, opts Options) (*Result, error) {
	return webgen.Compile(ctx, filename, source, opts)
}

// CompileFile reads and compiles the document at path.
func CompileFile(ctx context.Context, path string, opts Options) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return webgen.Compile(ctx, path, string(source), opts)
}
