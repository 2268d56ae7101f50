package webc_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grindlemire/go-webc/pkg/webc"
)

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.webc")
	src := "#data\nname = \"world\"\n#end data\n#view <h1>Hello {{ name }}</h1> #end view"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := webc.CompileFile(context.Background(), path, webc.DefaultOptions())
	if err != nil {
		t.Fatalf("CompileFile() error = %v", err)
	}
	if !strings.Contains(res.Markup, "<title>hello</title>") {
		t.Errorf("Markup = %q, want title from the file name", res.Markup)
	}
	if res.Metadata.Target != webc.TargetBrowser {
		t.Errorf("Target = %q, want %q", res.Metadata.Target, webc.TargetBrowser)
	}
}

func TestCompileFile_Missing(t *testing.T) {
	_, err := webc.CompileFile(context.Background(), filepath.Join(t.TempDir(), "nope.webc"), webc.Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("CompileFile() error = %v, want os.ErrNotExist", err)
	}
}

func TestCompile_ParseError(t *testing.T) {
	_, err := webc.Compile(context.Background(), "bad.webc", "#view <p> #end view", webc.Options{})

	var pe *webc.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Compile() error = %v, want *webc.ParseError", err)
	}
	var ce *webc.CompilationError
	if !errors.As(err, &ce) || ce.Stage != "parse" {
		t.Errorf("Compile() error = %v, want a parse-stage CompilationError", err)
	}
}

func ExampleCompile() {
	src := `#view <h1>Hello</h1> #end view`
	res, err := webc.Compile(context.Background(), "hello.webc", src, webc.Options{Strategy: webc.StrategyStatic})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Metadata.Strategy, len(res.Script))
	// Output: static 0
}
