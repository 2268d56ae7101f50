package webgen

import (
	"errors"
	"strings"
	"testing"
)

func TestEditDistance(t *testing.T) {
	type tc struct {
		a, b string
		want int
	}

	tests := map[string]tc{
		"equal":         {a: "count", b: "count", want: 0},
		"empty":         {a: "", b: "abc", want: 3},
		"deletion":      {a: "cout", b: "count", want: 1},
		"substitution":  {a: "data", b: "date", want: 1},
		"transposition": {a: "veiw", b: "view", want: 1},
		"unrelated":     {a: "style", b: "xyz", want: 4},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := editDistance(tt.a, tt.b); got != tt.want {
				t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSuggestion(t *testing.T) {
	candidates := []string{"data", "style", "view", "script"}

	type tc struct {
		target string
		want   string
	}

	tests := map[string]tc{
		"close":         {target: "veiw", want: `did you mean "view"?`},
		"case folded":   {target: "STYLE", want: `did you mean "style"?`},
		"too far":       {target: "server", want: ""},
		"exact skipped": {target: "data", want: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := suggestion(tt.target, candidates); got != tt.want {
				t.Errorf("suggestion(%q) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}

func TestErrorList(t *testing.T) {
	el := NewErrorList()
	if el.Err() != nil || el.HasErrors() {
		t.Fatal("empty list reports errors")
	}

	el.Add(nil)
	el.Add(errors.New("first"))
	el.Add(&ParseError{Pos: Position{File: "a.webc", Line: 2, Column: 3}, Expected: `"}}"`, Got: "end of input"})

	if el.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", el.Len())
	}
	want := "first\na.webc:2:3: expected \"}}\", got end of input"
	if got := el.Err().Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	errs := el.Errors()
	errs[0] = nil
	if el.Errors()[0] == nil {
		t.Error("Errors() shares its backing array")
	}
}

func TestCompilationError(t *testing.T) {
	cause := &ParseError{Pos: Position{File: "x.webc", Line: 1, Column: 1}, Expected: "#view", Got: "end of input", Hint: "every document needs a view"}
	err := error(&CompilationError{File: "x.webc", Stage: StageParse, Err: cause})

	if got := err.Error(); !strings.HasPrefix(got, "x.webc: parse failed: x.webc:1:1: expected #view") || !strings.HasSuffix(got, "(every document needs a view)") {
		t.Errorf("Error() = %q", got)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe != cause {
		t.Error("errors.As does not reach the ParseError")
	}

	bare := &CompilationError{Stage: StageOptimize, Err: errors.New("x")}
	if got, want := bare.Error(), "optimize failed: x"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
