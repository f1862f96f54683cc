package planning

import (
	"encoding/json"
	"strings"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/graph"
	"github.com/finnjohnston/enrollment/policy"
	"github.com/finnjohnston/enrollment/requirement"
)

// Key identifies a category within a program.
type Key struct {
	Program  string
	Category string
}

const keySeparator = " / "

func (k Key) String() string {
	return k.Program + keySeparator + k.Category
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	// Program names may contain the separator; category names may not.
	i := strings.LastIndex(string(text), keySeparator)
	if i < 0 {
		return errs.InvalidInput("category key %q", text)
	}
	k.Program, k.Category = string(text[:i]), string(text[i+len(keySeparator):])
	return nil
}

// UnmetRequirements returns, for every incomplete category, the requirements
// that the courses assigned to it do not meet. A category without any
// requirements is listed with an empty slice when incomplete. When
// assignments is nil every completed course counts toward every category.
func UnmetRequirements(programs []*requirement.Program, completed []*catalog.Course, assignments policy.Assignments) map[Key][]requirement.Requirement {
	unmet := make(map[Key][]requirement.Requirement)
	for _, program := range programs {
		for _, category := range program.Categories {
			courses := completed
			if assignments != nil {
				courses = assignedCourses(completed, assignments, program.Name, category.Name)
			}
			if category.IsComplete(courses) {
				continue
			}
			key := Key{Program: program.Name, Category: category.Name}
			if len(category.Requirements) == 0 {
				unmet[key] = []requirement.Requirement{}
				continue
			}
			for _, r := range category.Requirements {
				if !r.IsMet(courses) {
					unmet[key] = append(unmet[key], r)
				}
			}
		}
	}
	return unmet
}

// AllRecommendations lists every catalog course that could satisfy an unmet
// requirement, each code once per category, in catalog order. An empty
// requirement list recommends the whole catalog.
func AllRecommendations(unmet map[Key][]requirement.Requirement, cat *catalog.Catalog) map[Key][]*catalog.Course {
	all := cat.All()
	recommendations := make(map[Key][]*catalog.Course, len(unmet))
	for key, requirements := range unmet {
		if len(requirements) == 0 {
			recommendations[key] = all
			continue
		}
		var possible []*catalog.Course
		for _, r := range requirements {
			possible = append(possible, r.PossibleCourses(all)...)
		}
		recommendations[key] = inCatalogOrder(requirement.Unique(possible))
	}
	return recommendations
}

// EligibleRecommendations keeps the courses that may be taken now.
func EligibleRecommendations(recommendations map[Key][]*catalog.Course, completed, enrolled graph.Set, eligibility *graph.Eligibility) map[Key][]*catalog.Course {
	eligible := make(map[Key][]*catalog.Course, len(recommendations))
	for key, courses := range recommendations {
		kept := []*catalog.Course{}
		for _, course := range courses {
			if eligibility.IsEligible(course.Code, completed, enrolled) {
				kept = append(kept, course)
			}
		}
		eligible[key] = kept
	}
	return eligible
}

// Unit is one recommendation: a single course or a group of mutual
// corequisites that must be taken together.
type Unit []*catalog.Course

func (u Unit) Codes() []string {
	codes := make([]string, len(u))
	for i, course := range u {
		codes[i] = course.Code
	}
	return codes
}

func (u Unit) Credits() int {
	return requirement.Credits(u)
}

// MarshalJSON renders a single course as its code and a group as a list of
// codes.
func (u Unit) MarshalJSON() ([]byte, error) {
	if len(u) == 1 {
		return json.Marshal(u[0].Code)
	}
	return json.Marshal(u.Codes())
}

// Recommendations are the units suggested for each incomplete category.
type Recommendations map[Key][]Unit

func inCatalogOrder(courses []*catalog.Course) []*catalog.Course {
	sorted := append([]*catalog.Course(nil), courses...)
	sortCourses(sorted)
	return sorted
}
