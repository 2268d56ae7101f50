// Package main provides the CLI for the .webc compiler.
//
// Usage:
//
//	webc build [flags] [path...]    Compile .webc files to HTML, CSS and JS
//	webc check [flags] [path...]    Parse and analyze .webc files
//	webc help                       Show help
//
// Examples:
//
//	webc build ./...                Compile every .webc file below the current directory
//	webc build -o dist pages        Compile the files in pages into dist
//	webc check index.webc           Report problems without writing output
package main

import (
	"fmt"
	"io"
	"os"
)

const version = "0.1.0"

const usage = `webc - compiler for .webc documents

Usage:
  webc <command> [options] [path...]

Commands:
  build       Compile .webc files to HTML, CSS and JavaScript
  check       Parse and analyze .webc files without writing output
  version     Print version information
  help        Show this help message

Paths:
  file.webc   A single document
  dir         The .webc files in dir
  dir/...     The .webc files below dir, honoring .gitignore

Project defaults are read from .webc.json in the current directory;
command-line flags override them. Set NO_COLOR to disable colored output.

Examples:
  webc build ./...                       Compile everything next to its source
  webc build -o dist -minify ./...       Minified output in dist
  webc build -go-pkg site -o site ./...  Also emit Go files embedding the output
  webc build -strategy islands page.webc Force a rendering strategy
  webc check -v ./...                    Report strategies and warnings
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	command := args[0]
	args = args[1:]

	var err error
	switch command {
	case "build":
		err = runBuild(args, stdout, stderr)
	case "check":
		err = runCheck(args, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "webc version %s\n", version)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", command)
		fmt.Fprint(stderr, usage)
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
