package requirement

import (
	"fmt"
	"strings"

	"github.com/finnjohnston/enrollment/catalog"
)

// Exclusion rejects courses by code, by catalog number, by number range or by
// level. When Subject is set the number and level conditions only apply to
// that subject.
type Exclusion struct {
	Codes     []string
	Numbers   []int
	MinNumber int
	MaxNumber int
	Levels    []int
	Subject   string
}

// Excludes reports whether a single course is rejected.
func (r *Exclusion) Excludes(course *catalog.Course) bool {
	for _, code := range r.Codes {
		if course.Code == code {
			return true
		}
	}
	if r.Subject != "" && course.Subject != r.Subject {
		return false
	}
	if number, ok := catalog.NumericPart(course.Number); ok {
		for _, n := range r.Numbers {
			if n == number {
				return true
			}
		}
		if r.MaxNumber > 0 && number >= r.MinNumber && number <= r.MaxNumber {
			return true
		}
	}
	for _, level := range r.Levels {
		if course.Level == level {
			return true
		}
	}
	return false
}

// Filter returns the courses that are not excluded.
func (r *Exclusion) Filter(courses []*catalog.Course) []*catalog.Course {
	return selectCourses(courses, func(c *catalog.Course) bool { return !r.Excludes(c) })
}

func (r *Exclusion) SatisfiedBy(courses []*catalog.Course) bool {
	for _, course := range courses {
		if r.Excludes(course) {
			return false
		}
	}
	return true
}

func (r *Exclusion) Describe() string {
	var parts []string
	if len(r.Codes) > 0 {
		parts = append(parts, "course(s) "+strings.Join(r.Codes, ", "))
	}
	if len(r.Numbers) > 0 {
		parts = append(parts, "number(s) "+joinInts(r.Numbers))
	}
	if r.MaxNumber > 0 {
		parts = append(parts, fmt.Sprintf("numbers %d to %d", r.MinNumber, r.MaxNumber))
	}
	if len(r.Levels) > 0 {
		parts = append(parts, "level(s) "+joinInts(r.Levels))
	}
	description := "Excludes " + strings.Join(parts, "; ")
	if r.Subject != "" {
		description += fmt.Sprintf(" (subject %s)", r.Subject)
	}
	return description
}

func (r *Exclusion) Accept(v RestrictionVisitor) error { return v.VisitExclusion(r) }
func (r *Exclusion) restriction()                      {}

// CourseGroup caps the credits counted from a group of courses.
type CourseGroup struct {
	Courses    []string
	MaxCredits int
}

func (r *CourseGroup) SatisfiedBy(courses []*catalog.Course) bool {
	return creditsFrom(courses, r.Courses) <= r.MaxCredits
}

func (r *CourseGroup) Describe() string {
	return fmt.Sprintf("No more than %d credits may be counted from: %s", r.MaxCredits, strings.Join(r.Courses, ", "))
}

func (r *CourseGroup) Accept(v RestrictionVisitor) error { return v.VisitCourseGroup(r) }
func (r *CourseGroup) restriction()                      {}

// CreditLimit caps the credits earned from specific courses, typically
// repeatable ones.
type CreditLimit struct {
	Courses    []string
	MaxCredits int
}

func (r *CreditLimit) SatisfiedBy(courses []*catalog.Course) bool {
	return creditsFrom(courses, r.Courses) <= r.MaxCredits
}

func (r *CreditLimit) Describe() string {
	return fmt.Sprintf("No more than %d credits from: %s", r.MaxCredits, strings.Join(r.Courses, ", "))
}

func (r *CreditLimit) Accept(v RestrictionVisitor) error { return v.VisitCreditLimit(r) }
func (r *CreditLimit) restriction()                      {}

// Distribution requires a minimum number of credits from a list of courses.
type Distribution struct {
	Courses    []string
	MinCredits int
}

func (r *Distribution) SatisfiedBy(courses []*catalog.Course) bool {
	return creditsFrom(courses, r.Courses) >= r.MinCredits
}

func (r *Distribution) Describe() string {
	return fmt.Sprintf("At least %d credits from %s", r.MinCredits, strings.Join(r.Courses, ", "))
}

func (r *Distribution) Accept(v RestrictionVisitor) error { return v.VisitDistribution(r) }
func (r *Distribution) restriction()                      {}

// TagQuota requires a minimum number of credits from courses with a tag.
type TagQuota struct {
	Tag        string
	MinCredits int
}

func (r *TagQuota) SatisfiedBy(courses []*catalog.Course) bool {
	return Credits(selectCourses(courses, func(c *catalog.Course) bool { return c.HasTag(r.Tag) })) >= r.MinCredits
}

func (r *TagQuota) Describe() string {
	return fmt.Sprintf("At least %d credits with tag %s", r.MinCredits, r.Tag)
}

func (r *TagQuota) Accept(v RestrictionVisitor) error { return v.VisitTagQuota(r) }
func (r *TagQuota) restriction()                      {}

// SubjectQuota bounds the credits from one subject. A nil bound is not
// checked.
type SubjectQuota struct {
	Subject    string
	MinCredits *int
	MaxCredits *int
}

func (r *SubjectQuota) SatisfiedBy(courses []*catalog.Course) bool {
	total := Credits(selectCourses(courses, func(c *catalog.Course) bool { return c.Subject == r.Subject }))
	if r.MinCredits != nil && total < *r.MinCredits {
		return false
	}
	if r.MaxCredits != nil && total > *r.MaxCredits {
		return false
	}
	return true
}

func (r *SubjectQuota) Describe() string {
	var bounds []string
	if r.MinCredits != nil {
		bounds = append(bounds, fmt.Sprintf("at least %d", *r.MinCredits))
	}
	if r.MaxCredits != nil {
		bounds = append(bounds, fmt.Sprintf("no more than %d", *r.MaxCredits))
	}
	if len(bounds) == 0 {
		bounds = append(bounds, "any number of")
	}
	return fmt.Sprintf("%s credits in subject %s", strings.Join(bounds, " and "), r.Subject)
}

func (r *SubjectQuota) Accept(v RestrictionVisitor) error { return v.VisitSubjectQuota(r) }
func (r *SubjectQuota) restriction()                      {}

// LevelQuota requires MinCredits from courses whose level lies between
// MinLevel and MaxLevel inclusive. A zero MaxLevel leaves the band open.
type LevelQuota struct {
	MinLevel   int
	MaxLevel   int
	MinCredits int
}

func (r *LevelQuota) SatisfiedBy(courses []*catalog.Course) bool {
	return Credits(selectCourses(courses, func(c *catalog.Course) bool {
		return c.Level >= r.MinLevel && (r.MaxLevel == 0 || c.Level <= r.MaxLevel)
	})) >= r.MinCredits
}

func (r *LevelQuota) Describe() string {
	if r.MaxLevel == 0 {
		return fmt.Sprintf("At least %d credits at %d-level or higher", r.MinCredits, r.MinLevel)
	}
	return fmt.Sprintf("At least %d credits between %d-level and %d-level", r.MinCredits, r.MinLevel, r.MaxLevel)
}

func (r *LevelQuota) Accept(v RestrictionVisitor) error { return v.VisitLevelQuota(r) }
func (r *LevelQuota) restriction()                      {}

// Group is satisfied when every member restriction is.
type Group struct {
	Restrictions []Restriction
	Description  string
}

func (r *Group) SatisfiedBy(courses []*catalog.Course) bool {
	for _, member := range r.Restrictions {
		if !member.SatisfiedBy(courses) {
			return false
		}
	}
	return true
}

func (r *Group) Describe() string {
	if r.Description != "" {
		return r.Description
	}
	return strings.Join(r.DescribeAll(), "; ")
}

// DescribeAll describes each member.
func (r *Group) DescribeAll() []string {
	descriptions := make([]string, 0, len(r.Restrictions))
	for _, member := range r.Restrictions {
		descriptions = append(descriptions, member.Describe())
	}
	return descriptions
}

func (r *Group) Accept(v RestrictionVisitor) error { return v.VisitGroup(r) }
func (r *Group) restriction()                      {}

// RestrictionResult is the evaluation of one restriction.
type RestrictionResult struct {
	Description string `json:"description"`
	Satisfied   bool   `json:"satisfied"`
}

// Evaluate checks every member of a restriction. Groups are flattened one
// level so each member reports separately.
func Evaluate(r Restriction, courses []*catalog.Course) []RestrictionResult {
	if r == nil {
		return nil
	}
	members := []Restriction{r}
	if group, ok := r.(*Group); ok {
		members = group.Restrictions
	}
	results := make([]RestrictionResult, 0, len(members))
	for _, member := range members {
		results = append(results, RestrictionResult{Description: member.Describe(), Satisfied: member.SatisfiedBy(courses)})
	}
	return results
}

// exclusions collects every Exclusion reachable from a restriction.
type exclusions struct {
	found []*Exclusion
}

func (e *exclusions) VisitExclusion(r *Exclusion) error {
	e.found = append(e.found, r)
	return nil
}

func (e *exclusions) VisitGroup(r *Group) error {
	for _, member := range r.Restrictions {
		if err := member.Accept(e); err != nil {
			return err
		}
	}
	return nil
}

func (e *exclusions) VisitCourseGroup(*CourseGroup) error   { return nil }
func (e *exclusions) VisitCreditLimit(*CreditLimit) error   { return nil }
func (e *exclusions) VisitDistribution(*Distribution) error { return nil }
func (e *exclusions) VisitTagQuota(*TagQuota) error         { return nil }
func (e *exclusions) VisitSubjectQuota(*SubjectQuota) error { return nil }
func (e *exclusions) VisitLevelQuota(*LevelQuota) error     { return nil }

func applyExclusions(r Restriction, courses []*catalog.Course) []*catalog.Course {
	if r == nil {
		return courses
	}
	collector := &exclusions{}
	_ = r.Accept(collector)
	for _, exclusion := range collector.found {
		courses = exclusion.Filter(courses)
	}
	return courses
}

func creditsFrom(courses []*catalog.Course, codes []string) int {
	listed := codeSet(codes)
	return Credits(selectCourses(courses, func(c *catalog.Course) bool {
		_, ok := listed[c.Code]
		return ok
	}))
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
