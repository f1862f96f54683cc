package planning

import (
	"log/slog"
	"sort"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/graph"
	"github.com/finnjohnston/enrollment/policy"
	"github.com/finnjohnston/enrollment/requirement"
)

// SemesterPlanner turns unmet requirements into recommendations for the
// current term.
type SemesterPlanner struct {
	catalog     *catalog.Catalog
	eligibility *graph.Eligibility
	logger      *slog.Logger
}

func NewSemesterPlanner(eligibility *graph.Eligibility, logger *slog.Logger) *SemesterPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &SemesterPlanner{
		catalog:     eligibility.Graph().Catalog(),
		eligibility: eligibility,
		logger:      logger,
	}
}

// Recommend returns the eligible courses for every incomplete category.
// Mutual corequisites found among a category's candidates are emitted as one
// unit; categories with nothing eligible are left out.
func (p *SemesterPlanner) Recommend(programs []*requirement.Program, completed, enrolled graph.Set, assignments policy.Assignments) Recommendations {
	completedCourses := p.catalog.Courses(completed.Sorted())
	unmet := UnmetRequirements(programs, completedCourses, assignments)
	eligible := EligibleRecommendations(AllRecommendations(unmet, p.catalog), completed, enrolled, p.eligibility)

	recommendations := make(Recommendations, len(eligible))
	for key, courses := range eligible {
		if units := p.group(courses); len(units) > 0 {
			recommendations[key] = units
		}
	}
	p.logger.Debug("Built semester recommendations",
		slog.Int("unmet_categories", len(unmet)),
		slog.Int("recommended_categories", len(recommendations)))
	return recommendations
}

// group bundles mutual corequisites only within one category's candidates.
// A lab whose lecture counts toward a different category stays a unit of its
// own here; the lecture shows up under the category it serves.
func (p *SemesterPlanner) group(courses []*catalog.Course) []Unit {
	candidates := graph.NewSet()
	for _, course := range courses {
		candidates.Add(course.Code)
	}
	placed := graph.NewSet()
	var units []Unit
	for _, course := range courses {
		if placed.Has(course.Code) {
			continue
		}
		members := p.eligibility.MutualGroup(course.Code, candidates)
		if len(members) < 2 {
			placed.Add(course.Code)
			units = append(units, Unit{course})
			continue
		}
		unit := Unit(p.catalog.Courses(members.Sorted()))
		for _, member := range unit {
			placed.Add(member.Code)
		}
		units = append(units, unit)
	}
	return units
}

func sortCourses(courses []*catalog.Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		return catalog.SortKey(courses[i].Code) < catalog.SortKey(courses[j].Code)
	})
}
