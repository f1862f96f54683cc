// Package graph builds the course dependency graph from a catalog snapshot and
// answers prerequisite, corequisite, path and eligibility queries over it.
//
// A Graph is immutable once New returns and may be shared between goroutines.
// Queries on codes the graph has never seen return empty results.
package graph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/finnjohnston/enrollment/catalog"
)

// DefaultPathLimit bounds RequisitePaths on pathological catalogs.
const DefaultPathLimit = 1000

type Graph struct {
	catalog *catalog.Catalog
	nodes   map[string]*catalog.Course
	codes   []string

	// adjacency maps a code to the courses that list it as a prerequisite or
	// corequisite; reverse maps a course to its direct prerequisites.
	adjacency map[string]Set
	reverse   map[string]Set

	prereq map[string]*PrerequisiteLogic
	coreq  map[string]*CorequisiteLogic

	pathLimit int
	pathsMu   sync.Mutex
	paths     map[string][][]string
}

type Option func(*Graph)

// WithPathLimit caps the number of paths RequisitePaths returns per course.
func WithPathLimit(limit int) Option {
	return func(g *Graph) {
		if limit > 0 {
			g.pathLimit = limit
		}
	}
}

// New builds the graph for every course in the catalog. Codes referenced by a
// requisite but missing from the catalog still become edges.
func New(cat *catalog.Catalog, opts ...Option) (*Graph, error) {
	g := &Graph{
		catalog:   cat,
		nodes:     make(map[string]*catalog.Course, cat.Len()),
		adjacency: make(map[string]Set),
		reverse:   make(map[string]Set),
		prereq:    make(map[string]*PrerequisiteLogic, cat.Len()),
		coreq:     make(map[string]*CorequisiteLogic, cat.Len()),
		pathLimit: DefaultPathLimit,
		paths:     make(map[string][][]string),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, listed := range cat.All() {
		course, err := cat.Lookup(listed.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to build dependency graph: %w", err)
		}
		g.addCourse(course)
	}
	return g, nil
}

func (g *Graph) addCourse(course *catalog.Course) {
	code := course.Code
	g.nodes[code] = course
	g.codes = append(g.codes, code)
	g.prereq[code] = NewPrerequisiteLogic(course.Prerequisites)
	g.coreq[code] = NewCorequisiteLogic(course.Corequisites)

	for _, prerequisite := range course.Prerequisites.Courses() {
		g.edge(g.adjacency, prerequisite, code)
		g.edge(g.reverse, code, prerequisite)
	}
	for _, corequisite := range course.Corequisites.Courses() {
		g.edge(g.adjacency, corequisite, code)
	}
}

func (g *Graph) edge(edges map[string]Set, from, to string) {
	set, ok := edges[from]
	if !ok {
		set = make(Set)
		edges[from] = set
	}
	set.Add(to)
}

// Catalog returns the catalog the graph was built from.
func (g *Graph) Catalog() *catalog.Catalog {
	return g.catalog
}

// Course returns the catalog entry for a code, if the catalog has one.
func (g *Graph) Course(code string) (*catalog.Course, bool) {
	course, ok := g.nodes[g.resolve(code)]
	return course, ok
}

// Codes returns every catalog course code in catalog order.
func (g *Graph) Codes() []string {
	return g.codes
}

// Has reports whether code is a node or an edge endpoint.
func (g *Graph) Has(code string) bool {
	code = g.resolve(code)
	if _, ok := g.nodes[code]; ok {
		return true
	}
	_, ok := g.adjacency[code]
	return ok
}

// resolve maps loosely formatted input onto the graph's canonical codes.
func (g *Graph) resolve(code string) string {
	if _, ok := g.nodes[code]; ok {
		return code
	}
	if _, ok := g.adjacency[code]; ok {
		return code
	}
	if normalized, err := catalog.NormalizeCode(code); err == nil {
		return normalized
	}
	return code
}

// PrerequisiteLogic returns the prerequisite rule of a course. Unknown codes
// get an empty rule.
func (g *Graph) PrerequisiteLogic(code string) *PrerequisiteLogic {
	if l, ok := g.prereq[g.resolve(code)]; ok {
		return l
	}
	return NewPrerequisiteLogic(nil)
}

// CorequisiteLogic returns the corequisite rule of a course. Unknown codes get
// an empty rule.
func (g *Graph) CorequisiteLogic(code string) *CorequisiteLogic {
	if l, ok := g.coreq[g.resolve(code)]; ok {
		return l
	}
	return NewCorequisiteLogic(nil)
}

// Prerequisites returns the direct prerequisites of a course, flattened.
func (g *Graph) Prerequisites(code string) []string {
	return g.reverse[g.resolve(code)].Sorted()
}

func (g *Graph) Corequisites(code string) []string {
	return g.CorequisiteLogic(code).Courses()
}

// Dependents returns the courses that directly list code as a prerequisite
// or corequisite.
func (g *Graph) Dependents(code string) []string {
	return g.adjacency[g.resolve(code)].Sorted()
}

// IsMutual reports whether a and b list each other as corequisites.
func (g *Graph) IsMutual(a, b string) bool {
	return contains(g.Corequisites(a), b) && contains(g.Corequisites(b), a)
}

// AllPrerequisites returns the transitive prerequisites of code. The course
// itself is included only when it sits on a prerequisite cycle.
func (g *Graph) AllPrerequisites(code string) []string {
	return g.closure(g.resolve(code), g.reverse).Sorted()
}

// AllDependents returns every course transitively unlocked by code. The
// course itself is included only when it sits on a cycle.
func (g *Graph) AllDependents(code string) []string {
	return g.closure(g.resolve(code), g.adjacency).Sorted()
}

func (g *Graph) closure(start string, edges map[string]Set) Set {
	visited := make(Set)
	stack := edges[start].Sorted()
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(current) {
			continue
		}
		visited.Add(current)
		for next := range edges[current] {
			if !visited.Has(next) {
				stack = append(stack, next)
			}
		}
	}
	return visited
}

// PathBetween returns a shortest chain of dependents leading from one course
// to another, or nil when to is not reachable.
func (g *Graph) PathBetween(from, to string) []string {
	from, to = g.resolve(from), g.resolve(to)
	if !g.Has(from) || !g.Has(to) {
		return nil
	}
	if from == to {
		return []string{from}
	}

	previous := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.adjacency[current].Sorted() {
			if _, seen := previous[next]; seen {
				continue
			}
			previous[next] = current
			if next == to {
				var path []string
				for step := to; step != ""; step = previous[step] {
					path = append([]string{step}, path...)
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// PathsBetween returns every simple chain of dependents from one course to
// another, at most the graph's path limit of them.
func (g *Graph) PathsBetween(from, to string) [][]string {
	from, to = g.resolve(from), g.resolve(to)
	if !g.Has(from) || !g.Has(to) {
		return nil
	}

	var paths [][]string
	onPath := NewSet(from)
	path := []string{from}
	var visit func(current string)
	visit = func(current string) {
		if len(paths) >= g.pathLimit {
			return
		}
		if current == to {
			paths = append(paths, append([]string(nil), path...))
			return
		}
		for _, next := range g.adjacency[current].Sorted() {
			if onPath.Has(next) {
				continue
			}
			onPath.Add(next)
			path = append(path, next)
			visit(next)
			path = path[:len(path)-1]
			delete(onPath, next)
		}
	}
	visit(from)
	return paths
}

// DegreePlan orders the remaining courses into terms. Each term holds every
// remaining course whose prerequisites are met by completed and the earlier
// terms, in catalog order. Courses that never become available, because of a
// missing prerequisite or a cycle, are left out.
func (g *Graph) DegreePlan(remaining, completed Set) [][]string {
	done := completed.Union(nil)
	left := make(Set, len(remaining))
	for code := range remaining {
		if !done.Has(code) {
			left.Add(g.resolve(code))
		}
	}

	var terms [][]string
	for len(left) > 0 {
		var term []string
		for _, code := range g.Available(done) {
			if left.Has(code) {
				term = append(term, code)
			}
		}
		if len(term) == 0 {
			break
		}
		for _, code := range term {
			done.Add(code)
			delete(left, code)
		}
		terms = append(terms, term)
	}
	return terms
}

// Available returns every catalog course not yet completed whose
// prerequisites are met by completed.
func (g *Graph) Available(completed Set) []string {
	var available []string
	for _, code := range g.codes {
		if !completed.Has(code) && g.prereq[code].IsSatisfied(completed) {
			available = append(available, code)
		}
	}
	return available
}

// Blocked returns every catalog course not yet completed whose prerequisites
// are not met by completed.
func (g *Graph) Blocked(completed Set) []string {
	var blocked []string
	for _, code := range g.codes {
		if !completed.Has(code) && !g.prereq[code].IsSatisfied(completed) {
			blocked = append(blocked, code)
		}
	}
	return blocked
}

// MissingPrerequisites returns the unsatisfied prerequisite groups of a course.
func (g *Graph) MissingPrerequisites(code string, completed Set) catalog.Requisites {
	return g.PrerequisiteLogic(code).Missing(completed)
}

type Stats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
	// Roots have no prerequisites; Leaves unlock nothing.
	Roots  int `json:"roots"`
	Leaves int `json:"leaves"`
}

func (g *Graph) Stats() Stats {
	stats := Stats{Nodes: len(g.nodes)}
	for _, dependents := range g.adjacency {
		stats.Edges += len(dependents)
	}
	for _, code := range g.codes {
		if len(g.reverse[code]) == 0 {
			stats.Roots++
		}
		if len(g.adjacency[code]) == 0 {
			stats.Leaves++
		}
	}
	return stats
}

// Bottlenecks returns the catalog courses with the most direct dependents.
// A catalog where nothing depends on anything has no bottlenecks.
func (g *Graph) Bottlenecks() []string {
	most := 0
	var bottlenecks []string
	for _, code := range g.codes {
		switch n := len(g.adjacency[code]); {
		case n > most:
			most = n
			bottlenecks = []string{code}
		case n == most && n > 0:
			bottlenecks = append(bottlenecks, code)
		}
	}
	return bottlenecks
}

// DOT renders the dependents relation in Graphviz format. Prerequisite edges
// are solid and corequisite-only edges dashed.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph courses {\n")
	sources := make(Set, len(g.adjacency))
	for code := range g.adjacency {
		sources.Add(code)
	}
	for _, from := range sources.Sorted() {
		for _, to := range g.adjacency[from].Sorted() {
			if g.reverse[to].Has(from) {
				fmt.Fprintf(&b, "  %q -> %q;\n", from, to)
			} else {
				fmt.Fprintf(&b, "  %q -> %q [style=dashed];\n", from, to)
			}
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func contains(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
