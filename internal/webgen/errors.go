package webgen

import (
	"fmt"
	"strings"
)

// ErrorList collects errors from several documents, e.g. a multi-file check.
type ErrorList struct {
	errors []error
}

// NewErrorList creates an empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{}
}

// Add appends an error to the list. Nil errors are ignored.
func (el *ErrorList) Add(err error) {
	if err == nil {
		return
	}
	el.errors = append(el.errors, err)
}

// Len returns the number of errors.
func (el *ErrorList) Len() int {
	return len(el.errors)
}

// HasErrors returns true if there are any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.errors) > 0
}

// Errors returns a copy of the error slice.
func (el *ErrorList) Errors() []error {
	result := make([]error, len(el.errors))
	copy(result, el.errors)
	return result
}

// Error implements the error interface, returning all errors joined by newlines.
func (el *ErrorList) Error() string {
	var sb strings.Builder
	for i, err := range el.errors {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Err returns nil if there are no errors, otherwise returns the ErrorList as an error.
func (el *ErrorList) Err() error {
	if len(el.errors) == 0 {
		return nil
	}
	return el
}

// ParseError reports a token that did not match what the grammar expected.
// It is fatal: a compile that hits one returns no document.
type ParseError struct {
	Pos      Position
	Expected string
	Got      string
	Hint     string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s: expected %s, got %s", e.Pos, e.Expected, e.Got)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Stage names a step of the compilation pipeline.
type Stage string

const (
	StageTokenize Stage = "tokenize"
	StageParse    Stage = "parse"
	StageAnalyze  Stage = "analyze"
	StageSelect   Stage = "select"
	StageGenerate Stage = "generate"
	StageOptimize Stage = "optimize"
)

// CompilationError wraps a failure with the stage that produced it.
type CompilationError struct {
	File  string
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *CompilationError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.File, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CompilationError) Unwrap() error {
	return e.Err
}

// editDistance computes the Damerau-Levenshtein distance between two strings:
// insertions, deletions, substitutions and adjacent transpositions each cost one.
func editDistance(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prevprev := make([]int, lb+1)
	prev := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			best := min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				best = min(best, prevprev[j-2]+1)
			}
			curr[j] = best
		}
		prevprev = prev
		prev = curr
	}
	return prev[lb]
}

// closest returns the candidate nearest to target within maxDist edits, or "".
// Ties go to the earlier candidate.
func closest(target string, candidates []string, maxDist int) string {
	best := ""
	bestDist := maxDist + 1
	for _, c := range candidates {
		if c == target {
			continue
		}
		if d := editDistance(strings.ToLower(target), strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// suggestion formats a "did you mean" hint, or "" when nothing is close.
func suggestion(target string, candidates []string) string {
	if c := closest(target, candidates, 2); c != "" {
		return fmt.Sprintf("did you mean %q?", c)
	}
	return ""
}
