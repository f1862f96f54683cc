package graph

// RequisitePaths enumerates every concrete route from root prerequisites to
// code. Each AND-of-ORs rule is expanded into its combinations and each chosen
// prerequisite is expanded recursively. A course's corequisites share its step
// and are listed immediately before it.
//
// The result holds at most the graph's path limit entries. Results are
// memoized per course; callers must not modify them.
func (g *Graph) RequisitePaths(code string) [][]string {
	code = g.resolve(code)
	if !g.Has(code) {
		return nil
	}
	paths, _ := g.expand(code, make(Set))
	return paths
}

// CriticalPath returns the longest requisite path to code, the best estimate
// of the minimum time needed to reach it.
func (g *Graph) CriticalPath(code string) []string {
	var longest []string
	for _, path := range g.RequisitePaths(code) {
		if len(path) > len(longest) {
			longest = path
		}
	}
	return longest
}

// ShortestPath returns the requisite path to code with the fewest courses.
func (g *Graph) ShortestPath(code string) []string {
	var shortest []string
	for _, path := range g.RequisitePaths(code) {
		if shortest == nil || len(path) < len(shortest) {
			shortest = path
		}
	}
	return shortest
}

// expand returns the paths ending at code. cut reports whether a cycle was
// broken somewhere below, in which case the result depends on the caller's
// stack and is not memoized.
func (g *Graph) expand(code string, inProgress Set) (paths [][]string, cut bool) {
	if inProgress.Has(code) {
		return [][]string{{code}}, true
	}

	g.pathsMu.Lock()
	memo, ok := g.paths[code]
	g.pathsMu.Unlock()
	if ok {
		return memo, false
	}

	inProgress.Add(code)
	defer delete(inProgress, code)

	coreqCombinations := g.CorequisiteLogic(code).Combinations(g.pathLimit)

	for _, combination := range g.PrerequisiteLogic(code).Combinations(g.pathLimit) {
		branches := make([][][]string, 0, len(combination))
		for _, prerequisite := range combination {
			sub, subCut := g.expand(prerequisite, inProgress)
			cut = cut || subCut
			branches = append(branches, sub)
		}

		for _, merged := range g.product(branches) {
			for _, corequisites := range coreqCombinations {
				if len(paths) >= g.pathLimit {
					break
				}
				paths = append(paths, finish(merged, corequisites, code))
			}
		}
		if len(paths) >= g.pathLimit {
			break
		}
	}

	if !cut {
		g.pathsMu.Lock()
		g.paths[code] = paths
		g.pathsMu.Unlock()
	}
	return paths, cut
}

// product merges one path from every branch, keeping the first occurrence of
// each course, for every combination of branch choices up to the path limit.
func (g *Graph) product(branches [][][]string) [][]string {
	merged := [][]string{{}}
	for _, branch := range branches {
		next := make([][]string, 0, len(merged)*len(branch))
	combine:
		for _, prefix := range merged {
			for _, path := range branch {
				if len(next) >= g.pathLimit {
					break combine
				}
				next = append(next, appendUnique(prefix, path...))
			}
		}
		merged = next
	}
	return merged
}

// finish closes a path at code. On a cycle code may already appear in the
// prefix; it is moved to the end so every path ends at its target.
func finish(prefix, corequisites []string, code string) []string {
	path := make([]string, 0, len(prefix)+len(corequisites)+1)
	for _, c := range prefix {
		if c != code {
			path = append(path, c)
		}
	}
	for _, c := range corequisites {
		if c != code {
			path = appendUnique(path, c)
		}
	}
	return append(path, code)
}

func appendUnique(prefix []string, codes ...string) []string {
	out := make([]string, len(prefix), len(prefix)+len(codes))
	copy(out, prefix)
	seen := NewSet(prefix...)
	for _, code := range codes {
		if !seen.Has(code) {
			seen.Add(code)
			out = append(out, code)
		}
	}
	return out
}
