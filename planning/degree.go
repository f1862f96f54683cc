package planning

import (
	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/graph"
	"github.com/finnjohnston/enrollment/requirement"
)

// SatisfiedCategories returns the categories a course could count toward, in
// program and category order.
func SatisfiedCategories(course *catalog.Course, programs []*requirement.Program) []Key {
	var keys []Key
	for _, program := range programs {
		for _, category := range program.Categories {
			if category.Accepts(course) {
				keys = append(keys, Key{Program: program.Name, Category: category.Name})
			}
		}
	}
	return keys
}

// Alternatives returns the other courses that could count toward some
// requirement the course could count toward and that may be taken now, in
// catalog order.
func Alternatives(course *catalog.Course, programs []*requirement.Program, completed, enrolled graph.Set, eligibility *graph.Eligibility) []*catalog.Course {
	all := eligibility.Graph().Catalog().All()
	single := []*catalog.Course{course}

	var alternatives []*catalog.Course
	for _, program := range programs {
		for _, category := range program.Categories {
			for _, r := range category.Requirements {
				if len(r.PossibleCourses(single)) == 0 {
					continue
				}
				for _, candidate := range r.PossibleCourses(all) {
					if candidate.Code != course.Code && eligibility.IsEligible(candidate.Code, completed, enrolled) {
						alternatives = append(alternatives, candidate)
					}
				}
			}
		}
	}
	return inCatalogOrder(requirement.Unique(alternatives))
}

// UnlockedRequirements returns, per category, the unmet requirements whose
// named courses are all completed or have their prerequisites met.
// Requirements that name no courses are left out.
func UnlockedRequirements(programs []*requirement.Program, completed graph.Set, g *graph.Graph) map[Key][]requirement.Requirement {
	done := g.Catalog().Courses(completed.Sorted())
	unlocked := make(map[Key][]requirement.Requirement)
	for _, program := range programs {
		for _, category := range program.Categories {
			for _, r := range category.Requirements {
				if r.IsMet(done) {
					continue
				}
				named := requirement.NamedCourses(r)
				if len(named) == 0 || !reachable(named, completed, g) {
					continue
				}
				key := Key{Program: program.Name, Category: category.Name}
				unlocked[key] = append(unlocked[key], r)
			}
		}
	}
	return unlocked
}

func reachable(codes []string, completed graph.Set, g *graph.Graph) bool {
	for _, code := range codes {
		if !completed.Has(code) && !g.PrerequisiteLogic(code).IsSatisfied(completed) {
			return false
		}
	}
	return true
}
