package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/requirement"
)

const (
	RuleNoDoubleCount       = "no_double_count_within_program"
	RuleCrossProgramOverlap = "allow_cross_program_overlap"
	RuleMaxSharedCourses    = "max_shared_courses"
)

// Conditions understood by allow_cross_program_overlap.
const (
	ConditionRequiredOnly    = "required_courses_only"
	ConditionMustSatisfyBoth = "must_satisfy_both"
)

// NoDoubleCountWithinProgram flags any course placed in more than one
// category of the same program.
func NoDoubleCountWithinProgram(in Input, _ Params) []string {
	var violations []string
	for _, program := range in.Programs {
		for _, code := range sortedCodes(in.Assignments) {
			categories := in.Assignments.In(code, program.Name)
			if len(categories) > 1 {
				violations = append(violations, fmt.Sprintf(
					"Course %s assigned to multiple categories in %s: [%s]",
					code, program.Name, strings.Join(categories, ", ")))
			}
		}
	}
	return violations
}

// AllowCrossProgramOverlap permits a course to count toward two programs,
// subject to the rule's condition. Without a condition any overlap is allowed.
func AllowCrossProgramOverlap(in Input, params Params) []string {
	condition := params.String("condition")
	if condition == "" {
		return nil
	}
	var violations []string
	forEachShared(in, func(code string, first, second *requirement.Program) {
		firstCategory, _ := first.Category(in.Assignments.In(code, first.Name)[0])
		secondCategory, _ := second.Category(in.Assignments.In(code, second.Name)[0])
		switch condition {
		case ConditionRequiredOnly:
			if !isCore(firstCategory) || !isCore(secondCategory) {
				violations = append(violations, fmt.Sprintf(
					"Course %s cannot be shared between %s and %s unless both categories are core/required",
					code, first.Name, second.Name))
			}
		case ConditionMustSatisfyBoth:
			course, ok := lookup(in.Courses, code)
			if !ok {
				return
			}
			if !accepts(firstCategory, course) || !accepts(secondCategory, course) {
				violations = append(violations, fmt.Sprintf(
					"Course %s must satisfy a requirement in both %s and %s to be shared",
					code, first.Name, second.Name))
			}
		}
	})
	return violations
}

// MaxSharedCourses caps how many courses any two programs may share. The
// parameter is "limit".
func MaxSharedCourses(in Input, params Params) []string {
	limit, ok := params.Int("limit")
	if !ok {
		return nil
	}
	shared := make(map[[2]string]int)
	var pairs [][2]string
	forEachShared(in, func(_ string, first, second *requirement.Program) {
		key := [2]string{first.Name, second.Name}
		if _, seen := shared[key]; !seen {
			pairs = append(pairs, key)
		}
		shared[key]++
	})
	var violations []string
	for _, pair := range pairs {
		if shared[pair] > limit {
			violations = append(violations, fmt.Sprintf(
				"%s and %s share %d courses, more than the limit of %d",
				pair[0], pair[1], shared[pair], limit))
		}
	}
	return violations
}

// forEachShared calls fn for every course placed in both programs of a pair.
func forEachShared(in Input, fn func(code string, first, second *requirement.Program)) {
	codes := sortedCodes(in.Assignments)
	for i, first := range in.Programs {
		for _, second := range in.Programs[i+1:] {
			for _, code := range codes {
				if len(in.Assignments.In(code, first.Name)) > 0 && len(in.Assignments.In(code, second.Name)) > 0 {
					fn(code, first, second)
				}
			}
		}
	}
}

func isCore(category *requirement.Category) bool {
	return category != nil && category.IsCore()
}

func accepts(category *requirement.Category, course *catalog.Course) bool {
	return category != nil && category.Accepts(course)
}

func lookup(courses CourseLookup, code string) (*catalog.Course, bool) {
	if courses == nil {
		return nil, false
	}
	return courses.Get(code)
}

func sortedCodes(assignments Assignments) []string {
	codes := make([]string, 0, len(assignments))
	for code := range assignments {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return catalog.SortKey(codes[i]) < catalog.SortKey(codes[j]) })
	return codes
}
