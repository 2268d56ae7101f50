package webgen

import (
	"reflect"
	"testing"
)

func TestSourceMap_Lookup(t *testing.T) {
	sm := NewSourceMap("a.webc")
	sm.AddMapping(SourceMapping{ScriptLine: 10, ScriptCol: 2, SourceLine: 4, SourceCol: 8, Length: 5, Name: "h0"})
	sm.AddMapping(SourceMapping{ScriptLine: 12, ScriptCol: 0, SourceLine: 6, SourceCol: 1, Length: 3, Name: "b0"})

	type tc struct {
		line, col         int
		wantLine, wantCol int
		found             bool
	}

	tests := map[string]tc{
		"start of range": {line: 10, col: 2, wantLine: 4, wantCol: 8, found: true},
		"end of range":   {line: 10, col: 7, wantLine: 4, wantCol: 8, found: true},
		"past range":     {line: 10, col: 8, wantLine: 10, wantCol: 8, found: false},
		"other line":     {line: 12, col: 1, wantLine: 6, wantCol: 1, found: true},
		"unmapped":       {line: 3, col: 0, wantLine: 3, wantCol: 0, found: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			line, col, found := sm.ScriptToSource(tt.line, tt.col)
			if line != tt.wantLine || col != tt.wantCol || found != tt.found {
				t.Errorf("ScriptToSource(%d, %d) = %d, %d, %v, want %d, %d, %v",
					tt.line, tt.col, line, col, found, tt.wantLine, tt.wantCol, tt.found)
			}
		})
	}
}

func TestSourceMap_Shift(t *testing.T) {
	sm := NewSourceMap("a.webc")
	sm.AddMapping(SourceMapping{ScriptLine: 0, Name: "h0"})
	sm.Shift(2)
	if sm.Mappings[0].ScriptLine != 2 {
		t.Errorf("ScriptLine = %d, want 2", sm.Mappings[0].ScriptLine)
	}
}

func TestSourceMap_Asset(t *testing.T) {
	src := "#data\nn = 0\n#end data\n#view\n<button @click=\"n++\">{{ n }}</button>\n#end view"
	cc, out := generate(t, src, Options{Strategy: StrategyHydrate, SourceMap: true})

	data, ok := cc.Asset(AssetSourceMap)
	if !ok {
		t.Fatal("js.map asset missing")
	}
	sm, err := ParseSourceMap([]byte(data))
	if err != nil {
		t.Fatalf("ParseSourceMap() error = %v", err)
	}
	if sm.SourceFile != "test.webc" {
		t.Errorf("SourceFile = %q, want %q", sm.SourceFile, "test.webc")
	}
	if !reflect.DeepEqual(sm.Mappings, out.SourceMap.Mappings) {
		t.Errorf("Mappings = %+v, want %+v", sm.Mappings, out.SourceMap.Mappings)
	}
}
