package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const counterDoc = `#data
count = 0
#end data
#view
<button @click="count++">{{ count }}</button>
#end view`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// runIn runs the CLI inside dir and returns the exit code and both outputs.
func runIn(t *testing.T, dir string, args ...string) (int, string, string) {
	t.Helper()
	t.Chdir(dir)
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

func TestRun_Commands(t *testing.T) {
	type tc struct {
		args   []string
		code   int
		stdout string
		stderr string
	}

	tests := map[string]tc{
		"version":       {args: []string{"version"}, code: 0, stdout: "webc version " + version},
		"help":          {args: []string{"help"}, code: 0, stdout: "Commands:"},
		"no args":       {args: nil, code: 1, stderr: "Usage:"},
		"unknown":       {args: []string{"serve"}, code: 1, stderr: "unknown command: serve"},
		"bad strategy":  {args: []string{"build", "-strategy", "ssr"}, code: 1, stderr: `unknown strategy "ssr"`},
		"bad pass":      {args: []string{"build", "-disable", "gzip"}, code: 1, stderr: `unknown optimizer pass "gzip"`},
		"nothing found": {args: []string{"build", "./..."}, code: 1, stderr: "no .webc files found"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			code, stdout, stderr := runIn(t, t.TempDir(), tt.args...)
			if code != tt.code {
				t.Errorf("exit code = %d, want %d\nstderr: %s", code, tt.code, stderr)
			}
			if !strings.Contains(stdout, tt.stdout) {
				t.Errorf("stdout = %q, want %q", stdout, tt.stdout)
			}
			if !strings.Contains(stderr, tt.stderr) {
				t.Errorf("stderr = %q, want %q", stderr, tt.stderr)
			}
		})
	}
}

func TestBuild_NextToSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pages/index.webc", counterDoc)
	writeFile(t, dir, "pages/about.webc", "#style\nh1 { margin: 0 }\n#end style\n#view <h1>About</h1> #end view")

	code, stdout, stderr := runIn(t, dir, "build", "./...")
	if code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr)
	}

	for _, f := range []string{"pages/index.html", "pages/index.js", "pages/about.html", "pages/about.css"} {
		if !exists(t, filepath.Join(dir, f)) {
			t.Errorf("%s not written", f)
		}
	}
	// static pages ship no script and index has no style block
	for _, f := range []string{"pages/about.js", "pages/index.css"} {
		if exists(t, filepath.Join(dir, f)) {
			t.Errorf("%s written for an empty asset", f)
		}
	}
	if !strings.Contains(stdout, "ok pages/index.webc -> pages/index.html (hydrate, hydration-default)") {
		t.Errorf("stdout = %q", stdout)
	}

	html, _ := os.ReadFile(filepath.Join(dir, "pages/index.html"))
	if !strings.Contains(string(html), `<script src="index.js" defer></script>`) {
		t.Errorf("index.html does not link index.js:\n%s", html)
	}
}

func TestBuild_OutputOptions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.webc", counterDoc)

	code, _, stderr := runIn(t, dir, "build", "-o", "dist", "-go-pkg", "site", "-analyze", "-minify", "-j", "2", "index.webc")
	if code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr)
	}

	for _, f := range []string{"dist/index.html", "dist/index.js", "dist/index_webc.go", "dist/index.meta.json"} {
		if !exists(t, filepath.Join(dir, f)) {
			t.Errorf("%s not written", f)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "dist/index.meta.json"))
	if err != nil {
		t.Fatal(err)
	}
	var meta struct {
		Strategy string `json:"strategy"`
		Bundle   []struct {
			Name string `json:"name"`
		} `json:"bundle"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("meta.json: %v", err)
	}
	if meta.Strategy != "hydrate" || len(meta.Bundle) == 0 {
		t.Errorf("meta = %+v", meta)
	}

	code, _, _ = runIn(t, dir, "build", "-o", "dist", "-go-pkg", "not-a-name", "index.webc")
	if code != 1 {
		t.Errorf("invalid -go-pkg exit code = %d, want 1", code)
	}
}

func TestBuild_ConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.webc", counterDoc)
	writeFile(t, dir, ".webc.json", `{"out": "public", "strategy": "islands"}`)

	code, stdout, stderr := runIn(t, dir, "build", "index.webc")
	if code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr)
	}
	if !exists(t, filepath.Join(dir, "public/index.html")) {
		t.Error("config output directory not used")
	}
	if !strings.Contains(stdout, "(islands, explicit)") {
		t.Errorf("stdout = %q, want the configured strategy", stdout)
	}

	// flags win over the file
	code, stdout, stderr = runIn(t, dir, "build", "-o", "dist", "-strategy", "spa", "index.webc")
	if code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr)
	}
	if !exists(t, filepath.Join(dir, "dist/index.html")) || !strings.Contains(stdout, "(spa, explicit)") {
		t.Errorf("flags did not override config: %q", stdout)
	}
}

func TestBuild_ConfigIgnore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.webc", counterDoc)
	writeFile(t, dir, "drafts/wip.webc", counterDoc)
	writeFile(t, dir, ".webc.json", `{"ignore": ["drafts/"]}`)

	code, _, stderr := runIn(t, dir, "build", "./...")
	if code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr)
	}
	if exists(t, filepath.Join(dir, "drafts/wip.html")) {
		t.Error("ignored document was built")
	}
}

func TestBuild_Failures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.webc", counterDoc)
	writeFile(t, dir, "bad.webc", "#view <div> #end view")

	code, _, stderr := runIn(t, dir, "build", ".")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "FAIL bad.webc: bad.webc: parse failed") {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stderr, "1 file(s) had errors") {
		t.Errorf("stderr = %q", stderr)
	}
	if !exists(t, filepath.Join(dir, "good.html")) {
		t.Error("a failing file stopped the others")
	}
}

func TestBuild_Collisions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/page.webc", counterDoc)
	writeFile(t, dir, "b/page.webc", counterDoc)

	code, _, stderr := runIn(t, dir, "build", "-o", "dist", "./...")
	if code != 1 || !strings.Contains(stderr, "would both write") {
		t.Errorf("exit code = %d, stderr = %q", code, stderr)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.webc", "#data\ncount = 0\n#end data\n#view <p>{{ cout }}</p> #end view")

	code, stdout, stderr := runIn(t, dir, "check", "-v", "index.webc")
	if code != 0 {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, `warning index.webc:4:10: "cout" is not declared`) {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stdout, "ok index.webc: hydrate (hydration-default)") {
		t.Errorf("stdout = %q", stdout)
	}
	if exists(t, filepath.Join(dir, "index.html")) {
		t.Error("check wrote output")
	}

	if code, _, _ := runIn(t, dir, "check", "-strict", "index.webc"); code != 1 {
		t.Errorf("-strict exit code = %d, want 1", code)
	}
}
