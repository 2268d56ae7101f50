package webgen

import (
	"encoding/json"
)

// SourceMap maps lines of the generated script back to the .webc source.
// All line and column numbers are 0-indexed.
type SourceMap struct {
	// SourceFile is the original .webc file path
	SourceFile string `json:"sourceFile"`

	// Mappings contains position mappings from script to source
	Mappings []SourceMapping `json:"mappings"`
}

// SourceMapping ties a region of the script to the node that produced it.
type SourceMapping struct {
	ScriptLine int    `json:"scriptLine"`
	ScriptCol  int    `json:"scriptCol"`
	SourceLine int    `json:"sourceLine"`
	SourceCol  int    `json:"sourceCol"`
	Length     int    `json:"length"`
	Name       string `json:"name,omitempty"` // handler or binding id
}

// NewSourceMap creates a new empty source map.
func NewSourceMap(sourceFile string) *SourceMap {
	return &SourceMap{
		SourceFile: sourceFile,
		Mappings:   make([]SourceMapping, 0),
	}
}

// AddMapping adds a new position mapping.
func (sm *SourceMap) AddMapping(m SourceMapping) {
	sm.Mappings = append(sm.Mappings, m)
}

// Shift moves every mapping down by lines, for when text is prepended to the
// script after the mappings were recorded.
func (sm *SourceMap) Shift(lines int) {
	for i := range sm.Mappings {
		sm.Mappings[i].ScriptLine += lines
	}
}

// ScriptToSource converts a script position to a source position.
// Returns the translated position and true if found, otherwise returns
// the input position and false.
func (sm *SourceMap) ScriptToSource(line, col int) (srcLine, srcCol int, found bool) {
	for _, m := range sm.Mappings {
		if m.ScriptLine == line && col >= m.ScriptCol && col <= m.ScriptCol+m.Length {
			return m.SourceLine, m.SourceCol, true
		}
	}
	return line, col, false
}

// ToJSON serializes the source map to JSON.
func (sm *SourceMap) ToJSON() ([]byte, error) {
	return json.MarshalIndent(sm, "", "  ")
}

// ParseSourceMap parses a source map from JSON.
func ParseSourceMap(data []byte) (*SourceMap, error) {
	var sm SourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, err
	}
	return &sm, nil
}
