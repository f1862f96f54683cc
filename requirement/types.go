package requirement

import (
	"fmt"
	"strings"

	"github.com/finnjohnston/enrollment/catalog"
)

// CourseList requires every listed course.
type CourseList struct {
	Courses     []string
	restriction Restriction
}

func NewCourseList(courses []string, restriction Restriction) *CourseList {
	return &CourseList{Courses: courses, restriction: restriction}
}

func (r *CourseList) Describe() string {
	return "Must complete: " + strings.Join(r.Courses, ", ")
}

func (r *CourseList) SatisfiedCredits(courses []*catalog.Course) int {
	return Credits(r.CompletedCourses(courses))
}

func (r *CourseList) CompletedCourses(courses []*catalog.Course) []*catalog.Course {
	listed := codeSet(r.Courses)
	return Unique(selectCourses(courses, func(c *catalog.Course) bool {
		_, ok := listed[c.Code]
		return ok
	}))
}

func (r *CourseList) PossibleCourses(courses []*catalog.Course) []*catalog.Course {
	return applyExclusions(r.restriction, r.CompletedCourses(courses))
}

func (r *CourseList) IsMet(courses []*catalog.Course) bool {
	return len(r.CompletedCourses(courses)) == len(codeSet(r.Courses))
}

func (r *CourseList) Restriction() Restriction { return r.restriction }
func (r *CourseList) Accept(v Visitor) error   { return v.VisitCourseList(r) }
func (r *CourseList) requirement()             {}

// CourseOptions requires a number of distinct courses, a number of credits
// or both from a set of options. With neither threshold set one course is
// enough.
type CourseOptions struct {
	Options     []string
	MinRequired int
	MinCredits  int
	restriction Restriction
}

func NewCourseOptions(options []string, minRequired, minCredits int, restriction Restriction) *CourseOptions {
	if minRequired <= 0 && minCredits <= 0 {
		minRequired = 1
	}
	return &CourseOptions{Options: options, MinRequired: minRequired, MinCredits: minCredits, restriction: restriction}
}

func (r *CourseOptions) Describe() string {
	var need []string
	if r.MinRequired > 0 {
		need = append(need, fmt.Sprintf("%d course(s)", r.MinRequired))
	}
	if r.MinCredits > 0 {
		need = append(need, fmt.Sprintf("%d credits", r.MinCredits))
	}
	return fmt.Sprintf("Take at least %s from: %s", strings.Join(need, " and "), strings.Join(r.Options, ", "))
}

func (r *CourseOptions) SatisfiedCredits(courses []*catalog.Course) int {
	return Credits(r.CompletedCourses(courses))
}

func (r *CourseOptions) CompletedCourses(courses []*catalog.Course) []*catalog.Course {
	options := codeSet(r.Options)
	return Unique(selectCourses(courses, func(c *catalog.Course) bool {
		_, ok := options[c.Code]
		return ok
	}))
}

func (r *CourseOptions) PossibleCourses(courses []*catalog.Course) []*catalog.Course {
	return applyExclusions(r.restriction, r.CompletedCourses(courses))
}

func (r *CourseOptions) IsMet(courses []*catalog.Course) bool {
	completed := r.CompletedCourses(courses)
	return len(completed) >= r.MinRequired && Credits(completed) >= r.MinCredits
}

func (r *CourseOptions) Restriction() Restriction { return r.restriction }
func (r *CourseOptions) Accept(v Visitor) error   { return v.VisitCourseOptions(r) }
func (r *CourseOptions) requirement()             {}

// CourseFilter accepts any course matching a subject, any of a set of tags
// and a level band, and needs MinCredits of them. Zero-valued criteria match
// everything.
type CourseFilter struct {
	Subject     string
	Tags        []string
	MinLevel    int
	MaxLevel    int
	MinCredits  int
	Note        string
	restriction Restriction
}

func NewCourseFilter(subject string, tags []string, minLevel, maxLevel, minCredits int, note string, restriction Restriction) *CourseFilter {
	return &CourseFilter{
		Subject:     subject,
		Tags:        tags,
		MinLevel:    minLevel,
		MaxLevel:    maxLevel,
		MinCredits:  minCredits,
		Note:        note,
		restriction: restriction,
	}
}

// Matches reports whether a single course passes the filter.
func (r *CourseFilter) Matches(course *catalog.Course) bool {
	if r.Subject != "" && course.Subject != r.Subject {
		return false
	}
	if len(r.Tags) > 0 {
		tagged := false
		for _, tag := range r.Tags {
			if course.HasTag(tag) {
				tagged = true
				break
			}
		}
		if !tagged {
			return false
		}
	}
	if r.MinLevel > 0 && course.Level < r.MinLevel {
		return false
	}
	if r.MaxLevel > 0 && course.Level > r.MaxLevel {
		return false
	}
	return true
}

func (r *CourseFilter) Describe() string {
	var parts []string
	if len(r.Tags) > 0 {
		parts = append(parts, "tagged with any of: "+strings.Join(r.Tags, ", "))
	}
	if r.Subject != "" {
		parts = append(parts, fmt.Sprintf("subject %s", r.Subject))
	}
	if r.MinLevel > 0 {
		parts = append(parts, fmt.Sprintf("%d-level or higher", r.MinLevel))
	}
	if r.MaxLevel > 0 {
		parts = append(parts, fmt.Sprintf("up to %d-level", r.MaxLevel))
	}
	if len(parts) == 0 {
		parts = append(parts, "any course")
	}
	description := fmt.Sprintf("Take at least %d credits from courses matching: %s", r.MinCredits, strings.Join(parts, ", "))
	if r.Note != "" {
		description += " (" + r.Note + ")"
	}
	return description
}

func (r *CourseFilter) SatisfiedCredits(courses []*catalog.Course) int {
	return Credits(r.CompletedCourses(courses))
}

func (r *CourseFilter) CompletedCourses(courses []*catalog.Course) []*catalog.Course {
	return Unique(selectCourses(courses, r.Matches))
}

func (r *CourseFilter) PossibleCourses(courses []*catalog.Course) []*catalog.Course {
	return applyExclusions(r.restriction, r.CompletedCourses(courses))
}

func (r *CourseFilter) IsMet(courses []*catalog.Course) bool {
	completed := r.CompletedCourses(courses)
	if r.MinCredits <= 0 {
		return len(completed) > 0
	}
	return Credits(completed) >= r.MinCredits
}

func (r *CourseFilter) Restriction() Restriction { return r.restriction }
func (r *CourseFilter) Accept(v Visitor) error   { return v.VisitCourseFilter(r) }
func (r *CourseFilter) requirement()             {}

type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// Compound combines sub-requirements. With Or the best single option counts;
// with And every option must be met and their courses pool together.
type Compound struct {
	Op          Operator
	Options     []Requirement
	restriction Restriction
}

func NewCompound(op Operator, options []Requirement, restriction Restriction) *Compound {
	if op != And {
		op = Or
	}
	return &Compound{Op: op, Options: options, restriction: restriction}
}

func (r *Compound) Describe() string {
	lead := "Choose one of the following"
	if r.Op == And {
		lead = "Complete all of the following"
	}
	lines := []string{lead + ":"}
	for _, option := range r.Options {
		lines = append(lines, "  - "+option.Describe())
	}
	return strings.Join(lines, "\n")
}

func (r *Compound) SatisfiedCredits(courses []*catalog.Course) int {
	return Credits(r.CompletedCourses(courses))
}

func (r *Compound) CompletedCourses(courses []*catalog.Course) []*catalog.Course {
	if r.Op == And {
		var all []*catalog.Course
		for _, option := range r.Options {
			all = append(all, option.CompletedCourses(courses)...)
		}
		return Unique(all)
	}

	var best []*catalog.Course
	bestCredits := 0
	for _, option := range r.Options {
		completed := option.CompletedCourses(courses)
		if credits := Credits(completed); credits > bestCredits {
			best, bestCredits = completed, credits
		}
	}
	return best
}

func (r *Compound) PossibleCourses(courses []*catalog.Course) []*catalog.Course {
	possible := make(map[string]struct{})
	for _, option := range r.Options {
		for _, course := range option.PossibleCourses(courses) {
			possible[course.Code] = struct{}{}
		}
	}
	selected := Unique(selectCourses(courses, func(c *catalog.Course) bool {
		_, ok := possible[c.Code]
		return ok
	}))
	return applyExclusions(r.restriction, selected)
}

func (r *Compound) IsMet(courses []*catalog.Course) bool {
	if len(r.Options) == 0 {
		return true
	}
	for _, option := range r.Options {
		met := option.IsMet(courses)
		if r.Op == And && !met {
			return false
		}
		if r.Op == Or && met {
			return true
		}
	}
	return r.Op == And
}

func (r *Compound) Restriction() Restriction { return r.restriction }
func (r *Compound) Accept(v Visitor) error   { return v.VisitCompound(r) }
func (r *Compound) requirement()             {}
