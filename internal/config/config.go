// Package config loads project defaults for the webc command from .webc.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grindlemire/go-webc/internal/webgen"
)

// FileName is the configuration file looked up in the project root.
const FileName = ".webc.json"

// Config holds the project defaults. Every field is optional; command-line
// flags override whatever is set here.
type Config struct {
	Out       string   `json:"out,omitempty"`      // output directory
	Target    string   `json:"target,omitempty"`   // browser, node or static
	Strategy  string   `json:"strategy,omitempty"` // empty or "auto" selects by heuristics
	Minify    bool     `json:"minify,omitempty"`
	SourceMap bool     `json:"sourcemap,omitempty"`
	Dev       bool     `json:"dev,omitempty"`
	Analyze   bool     `json:"analyze,omitempty"`
	AssetBase string   `json:"assetBase,omitempty"`
	GoPackage string   `json:"goPackage,omitempty"` // also emit <name>_webc.go
	Jobs      int      `json:"jobs,omitempty"`
	Disable   []string `json:"disablePasses,omitempty"`
	Ignore    []string `json:"ignore,omitempty"` // gitignore-style patterns on top of .gitignore
}

// Load reads FileName from dir. A missing file yields a zero Config, not an
// error.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	return cfg, nil
}

// Save writes cfg to FileName in dir.
func Save(dir string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", FileName, err)
	}
	return nil
}

// Validate checks the enumerated fields and the pass names.
func (c *Config) Validate() error {
	if _, err := webgen.ParseTarget(c.Target); err != nil {
		return err
	}
	if _, err := webgen.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	known := make(map[string]bool)
	for _, p := range webgen.Passes() {
		known[p.Name] = true
	}
	for _, name := range c.Disable {
		if !known[name] {
			return fmt.Errorf("unknown optimizer pass %q", name)
		}
	}
	return nil
}

// Options converts the configuration into compiler options. The config must
// have passed Validate.
func (c *Config) Options() webgen.Options {
	target, _ := webgen.ParseTarget(c.Target)
	strategy, _ := webgen.ParseStrategy(c.Strategy)
	return webgen.Options{
		Target:        target,
		Strategy:      strategy,
		Minify:        c.Minify,
		SourceMap:     c.SourceMap,
		Dev:           c.Dev,
		Analyze:       c.Analyze,
		AssetBase:     c.AssetBase,
		DisablePasses: c.Disable,
	}
}
