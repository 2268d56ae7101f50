// Package goembed writes compiled .webc output as a Go source file, so a Go
// program can serve a page without reading files at run time.
package goembed

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/grindlemire/go-webc/internal/webgen"
)

// asset describes how one compiled artifact is exposed in Go.
type asset struct {
	key         string // webgen asset name
	suffix      string // appended to the document identifier
	path        string // URL path served by the handler, relative to the mount point
	contentType string
}

var assets = []asset{
	{key: webgen.AssetHTML, suffix: "HTML", path: "/{$}", contentType: "text/html; charset=utf-8"},
	{key: webgen.AssetCSS, suffix: "CSS", path: "/%s.css", contentType: "text/css; charset=utf-8"},
	{key: webgen.AssetJS, suffix: "JS", path: "/%s.js", contentType: "text/javascript; charset=utf-8"},
	{key: webgen.AssetSourceMap, suffix: "SourceMap", path: "/%s.js.map", contentType: "application/json"},
	{key: webgen.AssetServerJS, suffix: "ServerJS"}, // not served
}

// Generator emits one Go file per compiled document.
type Generator struct {
	// SkipImports uses format.Source instead of imports.Process (faster for tests)
	SkipImports bool

	buf bytes.Buffer
}

// NewGenerator creates a generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns a Go file in package pkg declaring the assets of res as
// string constants, a map of them by file name and an http.Handler serving
// them. sourceFile names the .webc document; it determines the identifiers
// and the served file names.
func (g *Generator) Generate(pkg, sourceFile string, res *webgen.Result) ([]byte, error) {
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("invalid package name %q", pkg)
	}
	g.buf.Reset()

	stem := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	id := Identifier(stem)

	g.printf("// Code generated by webc build from %s. DO NOT EDIT.\n\n", filepath.Base(sourceFile))
	g.printf("package %s\n\n", pkg)

	var present []asset
	for _, a := range assets {
		if res.Assets[a.key] == "" {
			continue
		}
		present = append(present, a)
	}

	g.printf("// Compiled with the %s strategy for the %s target.\n", res.Metadata.Strategy, res.Metadata.Target)
	g.printf("const (\n")
	for _, a := range present {
		g.printf("\t%s%s = %s\n", id, a.suffix, quote(res.Assets[a.key]))
	}
	g.printf(")\n\n")

	g.printf("// %sAssets maps file names to the compiled output of %s.\n", id, filepath.Base(sourceFile))
	g.printf("var %sAssets = map[string]string{\n", id)
	for _, a := range present {
		g.printf("\t%q: %s%s,\n", FileName(stem, a.key), id, a.suffix)
	}
	g.printf("}\n\n")

	g.printf("// %sHandler serves the page at the root of its mount point and its\n", id)
	g.printf("// linked assets next to it.\n")
	g.printf("func %sHandler() http.Handler {\n", id)
	g.printf("\tmux := http.NewServeMux()\n")
	for _, a := range present {
		if a.path == "" {
			continue
		}
		path := a.path
		if strings.Contains(path, "%s") {
			path = fmt.Sprintf(path, stem)
		}
		g.printf("\tmux.HandleFunc(%q, func(w http.ResponseWriter, r *http.Request) {\n", "GET "+path)
		g.printf("\t\tw.Header().Set(\"Content-Type\", %q)\n", a.contentType)
		g.printf("\t\tio.WriteString(w, %s%s)\n", id, a.suffix)
		g.printf("\t})\n")
	}
	g.printf("\treturn mux\n")
	g.printf("}\n")

	if g.SkipImports {
		src := strings.Replace(g.buf.String(), "package "+pkg+"\n", "package "+pkg+"\n\nimport (\n\t\"io\"\n\t\"net/http\"\n)\n", 1)
		return format.Source([]byte(src))
	}
	out, err := imports.Process(OutputFileName(sourceFile), g.buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return out, nil
}

func (g *Generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
}

// OutputFileName converts a .webc filename to its Go file name.
// Examples:
//
//	index.webc   -> index_webc.go
//	my-app.webc  -> my_app_webc.go
func OutputFileName(inputPath string) string {
	dir := filepath.Dir(inputPath)
	name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	name = strings.ReplaceAll(name, "-", "_")
	return filepath.Join(dir, name+"_webc.go")
}

// Identifier turns a file stem into an exported Go identifier:
// "my-page" becomes "MyPage" and "404" becomes "Page404".
func Identifier(stem string) string {
	var b strings.Builder
	upper := true
	for _, r := range stem {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	id := b.String()
	if id == "" || !unicode.IsLetter([]rune(id)[0]) {
		id = "Page" + id
	}
	return id
}

// FileName is the name under which a compiled asset of the document stem is
// written and served.
func FileName(stem, key string) string {
	switch key {
	case webgen.AssetHTML:
		return stem + ".html"
	case webgen.AssetCSS:
		return stem + ".css"
	case webgen.AssetJS:
		return stem + ".js"
	case webgen.AssetSourceMap:
		return stem + ".js.map"
	}
	return stem + "." + key
}

// quote renders s as a raw string literal when it can, for readable output.
func quote(s string) string {
	if !strings.Contains(s, "`") && !strings.Contains(s, "\r") && strconv.CanBackquote(strings.ReplaceAll(s, "\n", "")) {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}
