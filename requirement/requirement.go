// Package requirement models degree programs: categories of requirements,
// the requirement variants that can fill them and the restrictions that
// constrain them.
//
// Requirement and Restriction are closed sets. Code that needs to treat each
// variant differently implements Visitor or RestrictionVisitor rather than
// switching on concrete types.
package requirement

import (
	"github.com/finnjohnston/enrollment/catalog"
)

// Requirement is one way of earning credit inside a category.
type Requirement interface {
	// Describe renders the requirement for people.
	Describe() string
	// SatisfiedCredits is the credit total of the given courses that count
	// toward the requirement.
	SatisfiedCredits(courses []*catalog.Course) int
	// CompletedCourses returns the given courses that count toward the
	// requirement.
	CompletedCourses(courses []*catalog.Course) []*catalog.Course
	// PossibleCourses returns the given courses that could count toward the
	// requirement, after the requirement's exclusions are applied.
	PossibleCourses(courses []*catalog.Course) []*catalog.Course
	// IsMet reports whether the given courses complete the requirement.
	IsMet(courses []*catalog.Course) bool
	// Restriction returns the attached restriction, or nil.
	Restriction() Restriction

	Accept(v Visitor) error
	requirement()
}

// Visitor is implemented by code that handles each requirement variant.
type Visitor interface {
	VisitCourseList(r *CourseList) error
	VisitCourseOptions(r *CourseOptions) error
	VisitCourseFilter(r *CourseFilter) error
	VisitCompound(r *Compound) error
}

// Restriction constrains the set of courses counted by a requirement or
// category.
type Restriction interface {
	SatisfiedBy(courses []*catalog.Course) bool
	Describe() string

	Accept(v RestrictionVisitor) error
	restriction()
}

// RestrictionVisitor is implemented by code that handles each restriction
// variant.
type RestrictionVisitor interface {
	VisitExclusion(r *Exclusion) error
	VisitCourseGroup(r *CourseGroup) error
	VisitCreditLimit(r *CreditLimit) error
	VisitDistribution(r *Distribution) error
	VisitTagQuota(r *TagQuota) error
	VisitSubjectQuota(r *SubjectQuota) error
	VisitLevelQuota(r *LevelQuota) error
	VisitGroup(r *Group) error
}

// Credits sums the credits of courses, counting each code once.
func Credits(courses []*catalog.Course) int {
	total := 0
	for _, course := range Unique(courses) {
		total += course.Credits
	}
	return total
}

// Unique drops repeated course codes, keeping the first occurrence.
func Unique(courses []*catalog.Course) []*catalog.Course {
	seen := make(map[string]struct{}, len(courses))
	unique := make([]*catalog.Course, 0, len(courses))
	for _, course := range courses {
		if _, ok := seen[course.Code]; ok {
			continue
		}
		seen[course.Code] = struct{}{}
		unique = append(unique, course)
	}
	return unique
}

func codeSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

func selectCourses(courses []*catalog.Course, keep func(*catalog.Course) bool) []*catalog.Course {
	var selected []*catalog.Course
	for _, course := range courses {
		if keep(course) {
			selected = append(selected, course)
		}
	}
	return selected
}
