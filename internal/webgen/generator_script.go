package webgen

import (
	"fmt"
	"strings"
)

// generateScript writes the client script. It returns "" when the strategy
// needs no script.
func (g *Generator) generateScript() string {
	g.buf.Reset()
	g.indent = 0
	g.currentLine = 0

	switch {
	case g.strategy == StrategyStatic:
		return ""
	case g.strategy == StrategyStream && g.opts.Target == TargetNode:
		g.cc.AddDependency(RuntimeStream)
		g.generateHeader()
		g.write(streamNodeStub)
		return g.buf.String()
	}

	g.generateHeader()
	g.writeln("(function () {")
	g.indent++
	g.writeln(`"use strict";`)
	g.writeln("")

	g.generateRuntime()
	g.generateActionStubs()
	g.generateDerived()
	g.generateFuncs()
	g.generateUserScript()
	g.generateStart()

	g.indent--
	g.writeln("})();")
	g.generateStrategyTail()
	return g.buf.String()
}

// generateHeader writes the "DO NOT EDIT" comment.
func (g *Generator) generateHeader() {
	g.writeln("// Code generated by webc build. DO NOT EDIT.")
	if g.cc.Filename != "" {
		g.writef("// Source: %s\n", g.cc.Filename)
	}
	g.writeln("")
}

// generateRuntime writes the runtime factory call that creates rt and the
// initial state object.
func (g *Generator) generateRuntime() {
	g.writeln("var rt = (function (root, initial) {")
	g.indent++
	for _, section := range g.runtimeSections() {
		g.writeBlock(section)
		g.writeln("")
	}
	g.writeln("return api;")
	g.indent--

	var fields []initialValue
	for _, iv := range g.initial {
		if len(iv.Deps) == 0 {
			fields = append(fields, iv)
		}
	}
	if len(fields) == 0 {
		g.writeln(`})(document.getElementById("app"), {});`)
	} else {
		g.writeln(`})(document.getElementById("app"), {`)
		g.indent++
		for i, iv := range fields {
			sep := ","
			if i == len(fields)-1 {
				sep = ""
			}
			g.mark(iv.Pos, iv.Name)
			g.writef("%s: %s%s\n", ToJS(iv.Name), iv.Code, sep)
		}
		g.indent--
		g.writeln("});")
	}
	g.writeln("var $state = rt.state;")
	g.writeln("")
}

// generateActionStubs writes one client function per remote action. Each
// posts its arguments to the action endpoint and resolves with the result.
func (g *Generator) generateActionStubs() {
	for _, a := range g.doc.Actions {
		params := make([]string, len(a.Params))
		for i, p := range a.Params {
			params[i] = p.Name
		}
		list := strings.Join(params, ", ")
		g.mark(a.Position, a.Name)
		g.writef("function %s(%s) {\n", a.Name, list)
		g.indent++
		g.writef("return rt.call(%s, [%s]);\n", ToJS(a.Endpoint()), list)
		g.indent--
		g.writeln("}")
		g.writeln("")
	}
}

// generateDerived writes an effect per derived data variable. They are
// registered first so they settle before the bindings that read them.
func (g *Generator) generateDerived() {
	n := 0
	for _, iv := range g.initial {
		if len(iv.Deps) == 0 {
			continue
		}
		id := fmt.Sprintf("d%d", n)
		n++
		g.mark(iv.Pos, iv.Name)
		g.writef("rt.effect(%s, %s, function () {\n", ToJS(id), jsStrings(iv.Deps))
		g.indent++
		g.writef("$state.%s = (%s);\n", iv.Name, iv.Code)
		g.indent--
		g.writeln("});")
	}
	if n > 0 {
		g.writeln("")
	}
}

func (g *Generator) generateFuncs() {
	for _, f := range g.funcs {
		g.mark(f.pos, f.id)
		switch f.kind {
		case funcEffect:
			g.writef("rt.effect(%s, %s, function () {\n", ToJS(f.id), jsStrings(f.deps))
			g.writeFuncBody(f.decls, f.body)
			g.writeln("});")

		case funcHandler:
			g.writef("rt.handler(%s, function ($event, $el, $vars) {\n", ToJS(f.id))
			g.writeFuncBody(f.decls, f.body)
			if f.once {
				g.writeln("}, { once: true });")
			} else {
				g.writeln("});")
			}

		case funcList:
			keys := "null"
			if !f.nested {
				keys = jsStrings(f.deps)
			}
			index := "null"
			if f.index != "" {
				index = ToJS(f.index)
			}
			g.writef("rt.list(%s, %s, function ($vars) {\n", ToJS(f.id), keys)
			g.writeFuncBody(f.decls, "return ("+f.body+");")
			g.writef("}, %s, %s);\n", ToJS(f.item), index)

		case funcItem:
			g.writef("rt.fn(%s, function ($vars) {\n", ToJS(f.id))
			g.writeFuncBody(f.decls, "return ("+f.body+");")
			g.writeln("});")
		}
	}
	if len(g.funcs) > 0 {
		g.writeln("")
	}
}

func (g *Generator) writeFuncBody(decls []string, body string) {
	g.indent++
	for _, d := range decls {
		g.writeln(d)
	}
	if body != "" {
		g.writeBlock(body)
	}
	g.indent--
}

// generateUserScript appends the #script block with data variable references
// rewritten to state reads and writes.
func (g *Generator) generateUserScript() {
	code := strings.TrimSpace(g.doc.Script.Content)
	if code == "" {
		return
	}
	toks := scanExpr(code)
	declared := declaredNames(toks)
	code = rewriteCode(code, toks, func(name string) (string, bool) {
		if declared[name] || !g.graph.IsState(name) {
			return "", false
		}
		return "$state." + name, true
	})
	g.mark(g.doc.Script.Position, "script")
	g.writeBlock(code)
	g.writeln("")
}

// declaredNames returns the names the script declares itself, including
// function parameters. Those shadow data variables of the same name.
func declaredNames(toks []ExprToken) map[string]bool {
	declared := make(map[string]bool)
	for i := 0; i+1 < len(toks); i++ {
		if toks[i].Kind != ExprIdent {
			continue
		}
		switch toks[i].Text {
		case "let", "const", "var", "class":
			if toks[i+1].Kind == ExprIdent {
				declared[toks[i+1].Text] = true
			}
		case "function":
			j := i + 1
			if toks[j].Kind == ExprIdent {
				declared[toks[j].Text] = true
				j++
			}
			if j >= len(toks) || toks[j].Text != "(" {
				continue
			}
			for j++; j < len(toks) && toks[j].Text != ")"; j++ {
				if toks[j].Kind == ExprIdent && (toks[j-1].Text == "(" || toks[j-1].Text == "," || toks[j-1].Text == "...") {
					declared[toks[j].Text] = true
				}
			}
		}
	}
	return declared
}

// generateServer writes the server.js asset: one handler per remote action,
// keyed by endpoint.
func (g *Generator) generateServer() string {
	if len(g.doc.Actions) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("// Code generated by webc build. DO NOT EDIT.\n")
	if g.cc.Filename != "" {
		fmt.Fprintf(&sb, "// Source: %s\n", g.cc.Filename)
	}
	sb.WriteString("\nexport const actions = {\n")
	for _, a := range g.doc.Actions {
		params := make([]string, len(a.Params))
		typed := false
		for i, p := range a.Params {
			params[i] = p.Name
			if p.Type != "" {
				params[i] += ": " + p.Type
				typed = true
			}
		}
		if typed || a.ReturnType != "" {
			sig := a.Name + "(" + strings.Join(params, ", ") + ")"
			if a.ReturnType != "" {
				sig += ": " + a.ReturnType
			}
			fmt.Fprintf(&sb, "  // %s\n", sig)
		}
		for i, p := range a.Params {
			params[i] = p.Name
		}
		async := ""
		if a.Async {
			async = "async "
		}
		fmt.Fprintf(&sb, "  %s: %sfunction %s(%s) {\n", ToJS(a.Endpoint()), async, a.Name, strings.Join(params, ", "))
		for _, line := range strings.Split(a.Body, "\n") {
			if strings.TrimSpace(line) == "" {
				sb.WriteString("\n")
				continue
			}
			sb.WriteString("    " + line + "\n")
		}
		sb.WriteString("  },\n")
	}
	sb.WriteString("};\n\n")
	sb.WriteString(serverActionsFooter)
	return sb.String()
}

// jsStrings renders names as a script array literal.
func jsStrings(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = ToJS(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
