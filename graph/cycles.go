package graph

// DetectCycles walks the dependents relation depth first and reports the
// cyclic suffix of the current path every time it re-enters a course on the
// recursion stack. Self-loops are reported as single-course cycles.
func (g *Graph) DetectCycles() [][]string {
	visited := make(Set)
	onStack := make(Set)
	var cycles [][]string

	var visit func(code string, path []string)
	visit = func(code string, path []string) {
		if onStack.Has(code) {
			for i, c := range path {
				if c == code {
					cycle := make([]string, len(path)-i)
					copy(cycle, path[i:])
					cycles = append(cycles, cycle)
					break
				}
			}
			return
		}
		if visited.Has(code) {
			return
		}
		visited.Add(code)
		onStack.Add(code)
		path = append(path, code)
		for _, next := range g.adjacency[code].Sorted() {
			visit(next, path)
		}
		delete(onStack, code)
	}

	for _, code := range g.codes {
		visit(code, nil)
	}
	return cycles
}

// Validate reports whether the graph is acyclic. Cycles are legal data, lab
// and lecture pairs produce them, so this is advisory only.
func (g *Graph) Validate() bool {
	return len(g.DetectCycles()) == 0
}
