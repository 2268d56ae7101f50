// Package discover finds .webc documents named by command-line paths.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Ext is the extension of compiler input files.
const Ext = ".webc"

var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	".git":         {},
	".hg":          {},
	".svn":         {},
}

// Files expands paths into a sorted, duplicate-free list of .webc files.
// A path is one of:
//   - a file, returned as is even when ignored
//   - a directory, whose .webc files are listed without recursion
//   - "dir/...", walked recursively
//
// Directories honor the .gitignore found in them and the extra patterns,
// which use gitignore syntax. An empty paths means ".".
func Files(paths []string, extra []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, path := range paths {
		if root, ok := strings.CutSuffix(path, "..."); ok {
			root = strings.TrimSuffix(root, "/")
			if root == "" {
				root = "."
			}
			found, err := walk(root, extra)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) != Ext {
				return nil, fmt.Errorf("%s: not a %s file", path, Ext)
			}
			add(path)
			continue
		}

		found, err := list(path, extra)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

// walk collects .webc files under root recursively.
func walk(root string, extra []string) ([]string, error) {
	gi := loadGitignore(root, extra)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := d.Name()

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if gi.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || strings.HasPrefix(name, ".") {
			return nil
		}
		if filepath.Ext(name) == Ext && !gi.MatchesPath(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// list collects the .webc files directly inside dir.
func list(dir string, extra []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	gi := loadGitignore(dir, extra)

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != Ext {
			continue
		}
		if gi.MatchesPath(name) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

// loadGitignore compiles dir/.gitignore together with extra. A missing or
// unreadable .gitignore leaves only the extra patterns.
func loadGitignore(dir string, extra []string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFileAndLines(filepath.Join(dir, ".gitignore"), extra...)
	if err != nil {
		return ignore.CompileIgnoreLines(extra...)
	}
	return gi
}
