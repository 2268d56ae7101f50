package webgen

// runtimeSections returns the runtime code the document needs for the
// selected strategy and records each as a dependency.
func (g *Generator) runtimeSections() []string {
	sections := []string{runtimeCore}
	g.cc.AddDependency(RuntimeCore)

	if g.hasLists() {
		sections = append(sections, runtimeLists)
		g.cc.AddDependency(RuntimeLists)
	}
	if g.strategy == StrategyIslands {
		sections = append(sections, runtimeIslands)
		g.cc.AddDependency(RuntimeIslands)
	}
	if g.strategy == StrategySpa {
		sections = append(sections, runtimeRouter)
		g.cc.AddDependency(RuntimeRouter)
	}
	if len(g.doc.Actions) > 0 {
		sections = append(sections, runtimeActions)
		g.cc.AddDependency(RuntimeActions)
	}
	return sections
}

func (g *Generator) hasLists() bool {
	for _, f := range g.funcs {
		if f.kind == funcList {
			return true
		}
	}
	return false
}

// generateStart wires events and runs every effect once. Islands attach
// their listeners after the first render so rows rendered by lists are
// found too.
func (g *Generator) generateStart() {
	events := jsStrings(g.eventTypes)
	switch g.strategy {
	case StrategyIslands:
		g.writeln("rt.start();")
		if len(g.eventTypes) > 0 {
			g.writef("rt.islands(%s);\n", events)
		}
	case StrategySpa:
		if len(g.eventTypes) > 0 {
			g.writef("rt.delegate(%s);\n", events)
		}
		g.writeln("rt.router();")
		g.writeln("rt.start();")
	default:
		if len(g.eventTypes) > 0 {
			g.writef("rt.delegate(%s);\n", events)
		}
		g.writeln("rt.start();")
	}
}

// generateStrategyTail appends code that runs outside the runtime closure.
func (g *Generator) generateStrategyTail() {
	if g.strategy != StrategyStream {
		return
	}
	g.cc.AddDependency(RuntimeStream)
	g.writeln("")
	g.writeBlock(streamBrowserStub)
}
