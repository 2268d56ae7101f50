// Package log provides prefixed debug logging for the compiler and the CLI.
//
// A *Logger is passed to whoever needs it; a nil *Logger discards everything,
// so callers never check before logging.
package log

import (
	"fmt"
	"io"
	"sync"
)

// Logger writes one formatted line per call. It is safe for concurrent use.
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a Logger writing to w. A nil w yields a disabled logger.
func New(w io.Writer) *Logger {
	if w == nil {
		return nil
	}
	return &Logger{w: w}
}

// Enabled reports whether messages are written. Callers check it before
// computing arguments that cost more than the message is worth.
func (l *Logger) Enabled() bool {
	return l != nil
}

// Lex writes a lex-prefixed log message.
func (l *Logger) Lex(format string, args ...any) {
	l.write("[lex] ", format, args...)
}

// Parse writes a parse-prefixed log message.
func (l *Logger) Parse(format string, args ...any) {
	l.write("[parse] ", format, args...)
}

// Analyze writes an analyze-prefixed log message.
func (l *Logger) Analyze(format string, args ...any) {
	l.write("[analyze] ", format, args...)
}

// Strategy writes a strategy-prefixed log message.
func (l *Logger) Strategy(format string, args ...any) {
	l.write("[strategy] ", format, args...)
}

// Generate writes a generate-prefixed log message.
func (l *Logger) Generate(format string, args ...any) {
	l.write("[generate] ", format, args...)
}

// Optimize writes an optimize-prefixed log message.
func (l *Logger) Optimize(format string, args ...any) {
	l.write("[optimize] ", format, args...)
}

// Build writes a build-prefixed log message.
func (l *Logger) Build(format string, args ...any) {
	l.write("[build] ", format, args...)
}

func (l *Logger) write(prefix, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, prefix+format+"\n", args...)
}
