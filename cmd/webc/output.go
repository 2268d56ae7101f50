package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/grindlemire/go-webc/internal/webgen"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

// printer serializes status lines from concurrent builds and colors them when
// writing to a terminal.
type printer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	color  bool
}

func newPrinter(stdout, stderr io.Writer) *printer {
	return &printer{out: stdout, errOut: stderr, color: colorEnabled(stdout)}
}

// colorEnabled reports whether w is a terminal and NO_COLOR is unset.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func (p *printer) ok(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s\n", p.paint(ansiGreen, "ok"), fmt.Sprintf(format, args...))
}

func (p *printer) info(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.paint(ansiDim, fmt.Sprintf(format, args...)))
}

func (p *printer) fail(file string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.errOut, "%s %s: %v\n", p.paint(ansiRed, "FAIL"), file, err)
}

func (p *printer) warnings(file string, ws []webgen.Warning) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range ws {
		where := file
		if w.Pos != nil {
			where = fmt.Sprintf("%s:%d:%d", file, w.Pos.Line, w.Pos.Column)
		}
		fmt.Fprintf(p.errOut, "%s %s: %s [%s]\n", p.paint(ansiYellow, "warning"), where, w.Message, w.Pass)
	}
}
