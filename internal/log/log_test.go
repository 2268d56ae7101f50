package log

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestLogger_Prefixes(t *testing.T) {
	type tc struct {
		write func(l *Logger)
		want  string
	}

	tests := map[string]tc{
		"analyze": {
			write: func(l *Logger) { l.Analyze("unused %v", []string{"a"}) },
			want:  "[analyze] unused [a]\n",
		},
		"lex": {
			write: func(l *Logger) { l.Lex("%d tokens", 12) },
			want:  "[lex] 12 tokens\n",
		},
		"parse": {
			write: func(l *Logger) { l.Parse("ok") },
			want:  "[parse] ok\n",
		},
		"strategy": {
			write: func(l *Logger) { l.Strategy("picked %s", "hydrate") },
			want:  "[strategy] picked hydrate\n",
		},
		"optimize": {
			write: func(l *Logger) { l.Optimize("pass %s", "minify-js") },
			want:  "[optimize] pass minify-js\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.write(New(&buf))
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_NilIsDisabled(t *testing.T) {
	var l *Logger
	if l.Enabled() {
		t.Error("nil logger reports enabled")
	}
	// must not panic
	l.Generate("ignored %s", "x")

	if New(nil) != nil {
		t.Error("New(nil) should return a nil logger")
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Build("file %d", i)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[build] file ") {
			t.Errorf("line %q lacks prefix", line)
		}
	}
}
