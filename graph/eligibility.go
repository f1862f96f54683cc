package graph

// EligibilityOptions tunes how corequisites are resolved.
type EligibilityOptions struct {
	// BundleCorequisites lets a course whose unsatisfied corequisite rule names
	// several courses be taken when every missing group has a member that could
	// itself be taken now. When false such courses are blocked.
	BundleCorequisites bool `yaml:"bundle_corequisites" json:"bundle_corequisites"`
}

// Decision is the outcome of an eligibility check.
type Decision struct {
	Eligible bool     `json:"eligible"`
	Reason   string   `json:"reason"`
	Group    []string `json:"group,omitempty"`
}

// Eligibility decides whether a course may be scheduled in the current term.
type Eligibility struct {
	graph   *Graph
	options EligibilityOptions
}

func NewEligibility(g *Graph, options EligibilityOptions) *Eligibility {
	return &Eligibility{graph: g, options: options}
}

func (e *Eligibility) Graph() *Graph {
	return e.graph
}

// IsEligible reports whether code may be taken given completed and currently
// enrolled courses.
func (e *Eligibility) IsEligible(code string, completed, enrolled Set) bool {
	return e.Check(code, completed, enrolled).Eligible
}

// Check is IsEligible with the reason for the decision.
func (e *Eligibility) Check(code string, completed, enrolled Set) Decision {
	code = e.graph.resolve(code)
	taken := completed.Union(enrolled)

	if taken.Has(code) {
		return Decision{Reason: "already completed or enrolled"}
	}
	prerequisites := e.graph.PrerequisiteLogic(code)
	if !prerequisites.IsSatisfied(taken) {
		return Decision{Reason: prerequisites.Explain(taken)}
	}

	if group := e.MutualGroup(code, nil); len(group) > 1 {
		members := group.Sorted()
		for _, member := range members {
			if completed.Has(member) {
				return Decision{Reason: "mutual corequisite " + member + " already completed", Group: members}
			}
		}
		for _, member := range members {
			if l := e.graph.PrerequisiteLogic(member); !l.IsSatisfied(taken) {
				return Decision{Reason: "mutual corequisite " + member + ": " + l.Explain(taken), Group: members}
			}
		}
		return Decision{Eligible: true, Reason: "eligible together with its mutual corequisites", Group: members}
	}

	corequisites := e.graph.CorequisiteLogic(code)
	if corequisites.IsSatisfied(completed, enrolled) {
		return Decision{Eligible: true, Reason: "requisites satisfied"}
	}

	// A lone corequisite is taken together with its own mutual group.
	if courses := corequisites.Courses(); len(courses) == 1 {
		partner := courses[0]
		group := []string{code}
		for _, member := range e.MutualGroup(partner, nil).Sorted() {
			if member == code {
				continue
			}
			if completed.Has(member) {
				return Decision{Reason: "corequisite " + partner + " needs " + member + ", already completed"}
			}
			if l := e.graph.PrerequisiteLogic(member); !l.IsSatisfied(taken) {
				return Decision{Reason: "corequisite " + partner + ": " + member + ": " + l.Explain(taken)}
			}
			group = append(group, member)
		}
		return Decision{Eligible: true, Reason: "eligible alongside corequisite " + partner, Group: group}
	}

	if e.options.BundleCorequisites {
		bundle := []string{code}
		for _, group := range corequisites.Missing(completed, enrolled) {
			partner, ok := e.takeable(group, taken)
			if !ok {
				return Decision{Reason: corequisites.Explain(completed, enrolled)}
			}
			bundle = append(bundle, partner)
		}
		return Decision{Eligible: true, Reason: "eligible as a corequisite bundle", Group: bundle}
	}
	return Decision{Reason: corequisites.Explain(completed, enrolled)}
}

func (e *Eligibility) takeable(group []string, taken Set) (string, bool) {
	for _, code := range group {
		if !taken.Has(code) && e.graph.PrerequisiteLogic(code).IsSatisfied(taken) {
			return code, true
		}
	}
	return "", false
}

// MutualGroup returns the largest set of courses, grown from code, in which
// every member lists every other member as a corequisite. Only courses in
// within are considered when within is non-nil. The result always contains
// code.
func (e *Eligibility) MutualGroup(code string, within Set) Set {
	code = e.graph.resolve(code)
	group := NewSet(code)
	queue := []string{code}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, candidate := range e.graph.Corequisites(current) {
			if group.Has(candidate) || (within != nil && !within.Has(candidate)) {
				continue
			}
			if e.joins(candidate, group) {
				group.Add(candidate)
				queue = append(queue, candidate)
			}
		}
	}
	return group
}

func (e *Eligibility) joins(candidate string, group Set) bool {
	for member := range group {
		if !e.graph.IsMutual(candidate, member) {
			return false
		}
	}
	return true
}
