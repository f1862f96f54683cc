package graph

import (
	"fmt"
	"strings"

	"github.com/finnjohnston/enrollment/catalog"
)

// DefaultCombinationLimit caps Combinations when the caller passes no limit.
const DefaultCombinationLimit = 1000

// logic evaluates an AND-of-ORs rule: every group must contain at least one
// satisfied code.
type logic struct {
	groups catalog.Requisites
}

// Groups returns the canonical groups. Callers must not modify them.
func (l logic) Groups() catalog.Requisites {
	return l.groups
}

func (l logic) Empty() bool {
	return len(l.groups) == 0
}

func (l logic) satisfied(taken Set) bool {
	for _, group := range l.groups {
		if !groupSatisfied(group, taken) {
			return false
		}
	}
	return true
}

func (l logic) missing(taken Set) catalog.Requisites {
	var missing catalog.Requisites
	for _, group := range l.groups {
		if !groupSatisfied(group, taken) {
			missing = append(missing, group)
		}
	}
	return missing
}

// Courses returns every code the rule mentions.
func (l logic) Courses() []string {
	return l.groups.Courses()
}

// Flexible returns the groups that offer a choice.
func (l logic) Flexible() catalog.Requisites {
	var groups catalog.Requisites
	for _, group := range l.groups {
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

// Rigid returns the codes that are required with no alternative.
func (l logic) Rigid() []string {
	var codes []string
	for _, group := range l.groups {
		if len(group) == 1 {
			codes = append(codes, group[0])
		}
	}
	return codes
}

// Combinations returns the cartesian product of the groups: every minimal
// selection of one code per group. At most limit selections are produced; a
// non-positive limit means DefaultCombinationLimit. An empty rule has exactly
// one combination, the empty one.
func (l logic) Combinations(limit int) [][]string {
	if limit <= 0 {
		limit = DefaultCombinationLimit
	}
	combinations := [][]string{{}}
	for _, group := range l.groups {
		next := make([][]string, 0, len(combinations)*len(group))
	product:
		for _, prefix := range combinations {
			for _, code := range group {
				if len(next) >= limit {
					break product
				}
				combination := make([]string, len(prefix), len(prefix)+1)
				copy(combination, prefix)
				next = append(next, append(combination, code))
			}
		}
		combinations = next
	}
	return combinations
}

// String renders the rule as a boolean expression.
func (l logic) String() string {
	if len(l.groups) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(l.groups))
	for _, group := range l.groups {
		parts = append(parts, "("+strings.Join(group, " OR ")+")")
	}
	return strings.Join(parts, " AND ")
}

func groupSatisfied(group []string, taken Set) bool {
	for _, code := range group {
		if taken.Has(code) {
			return true
		}
	}
	return false
}

// PrerequisiteLogic is the AND-of-ORs prerequisite rule of one course,
// evaluated against completed courses.
type PrerequisiteLogic struct {
	logic
}

func NewPrerequisiteLogic(groups catalog.Requisites) *PrerequisiteLogic {
	return &PrerequisiteLogic{logic{groups: groups}}
}

// IsSatisfied reports whether every group has a member in completed.
func (l *PrerequisiteLogic) IsSatisfied(completed Set) bool {
	return l.satisfied(completed)
}

// Missing returns the groups with no member in completed.
func (l *PrerequisiteLogic) Missing(completed Set) catalog.Requisites {
	return l.missing(completed)
}

// MissingCourses returns every code of every unsatisfied group.
func (l *PrerequisiteLogic) MissingCourses(completed Set) []string {
	return l.missing(completed).Courses()
}

// SatisfactionRatio is the fraction of satisfied groups, 1 for an empty rule.
func (l *PrerequisiteLogic) SatisfactionRatio(completed Set) float64 {
	if len(l.groups) == 0 {
		return 1
	}
	return float64(len(l.groups)-len(l.missing(completed))) / float64(len(l.groups))
}

// Explain describes what is still missing, one clause per group.
func (l *PrerequisiteLogic) Explain(completed Set) string {
	missing := l.missing(completed)
	if len(missing) == 0 {
		return "all prerequisites satisfied"
	}
	reasons := make([]string, 0, len(missing))
	for _, group := range missing {
		reasons = append(reasons, fmt.Sprintf("missing one of [%s]", strings.Join(group, ", ")))
	}
	return strings.Join(reasons, "; ")
}

// CorequisiteLogic is the corequisite rule of one course. A corequisite is met
// by a course that is either completed or taken in the same term.
type CorequisiteLogic struct {
	logic
}

func NewCorequisiteLogic(groups catalog.Requisites) *CorequisiteLogic {
	return &CorequisiteLogic{logic{groups: groups}}
}

func (l *CorequisiteLogic) IsSatisfied(completed, enrolled Set) bool {
	return l.satisfied(completed.Union(enrolled))
}

func (l *CorequisiteLogic) Missing(completed, enrolled Set) catalog.Requisites {
	return l.missing(completed.Union(enrolled))
}

func (l *CorequisiteLogic) MissingCourses(completed, enrolled Set) []string {
	return l.missing(completed.Union(enrolled)).Courses()
}

func (l *CorequisiteLogic) Explain(completed, enrolled Set) string {
	missing := l.missing(completed.Union(enrolled))
	if len(missing) == 0 {
		return "all corequisites satisfied"
	}
	reasons := make([]string, 0, len(missing))
	for _, group := range missing {
		reasons = append(reasons, fmt.Sprintf("take one of [%s] before or alongside", strings.Join(group, ", ")))
	}
	return strings.Join(reasons, "; ")
}
