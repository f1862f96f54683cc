package requirement

import (
	"fmt"
	"strings"

	"github.com/finnjohnston/enrollment/catalog"
)

// Category is a named, credit-bounded section of a program.
type Category struct {
	Name         string
	MinCredits   int
	Requirements []Requirement
	Restrictions *Group
	Notes        string
	Tags         []string
}

// CategoryProgress reports how far a set of courses gets a category.
type CategoryProgress struct {
	Category        string              `json:"category"`
	RequiredCredits int                 `json:"required_credits"`
	EarnedCredits   int                 `json:"earned_credits"`
	Complete        bool                `json:"complete"`
	Restrictions    []RestrictionResult `json:"restrictions,omitempty"`
	Notes           string              `json:"notes,omitempty"`
}

// CountedCourses returns the given courses that count toward any of the
// category's requirements, each code once.
func (c *Category) CountedCourses(courses []*catalog.Course) []*catalog.Course {
	var counted []*catalog.Course
	for _, requirement := range c.Requirements {
		counted = append(counted, requirement.CompletedCourses(courses)...)
	}
	return Unique(counted)
}

// EarnedCredits sums the credits of CountedCourses.
func (c *Category) EarnedCredits(courses []*catalog.Course) int {
	return Credits(c.CountedCourses(courses))
}

// RestrictionsSatisfied reports whether the category-level restrictions hold.
func (c *Category) RestrictionsSatisfied(courses []*catalog.Course) bool {
	return c.Restrictions == nil || c.Restrictions.SatisfiedBy(courses)
}

// IsComplete reports whether the courses earn MinCredits, counting each code
// once, and satisfy every restriction.
func (c *Category) IsComplete(courses []*catalog.Course) bool {
	return c.EarnedCredits(courses) >= c.MinCredits && c.RestrictionsSatisfied(courses)
}

func (c *Category) Progress(courses []*catalog.Course) CategoryProgress {
	progress := CategoryProgress{
		Category:        c.Name,
		RequiredCredits: c.MinCredits,
		EarnedCredits:   c.EarnedCredits(courses),
		Notes:           c.Notes,
	}
	if c.Restrictions != nil {
		progress.Restrictions = Evaluate(c.Restrictions, courses)
	}
	progress.Complete = progress.EarnedCredits >= c.MinCredits && c.RestrictionsSatisfied(courses)
	return progress
}

// Accepts reports whether course could count toward at least one of the
// category's requirements.
func (c *Category) Accepts(course *catalog.Course) bool {
	for _, requirement := range c.Requirements {
		if len(requirement.PossibleCourses([]*catalog.Course{course})) > 0 {
			return true
		}
	}
	return false
}

// IsCore reports whether the category holds required coursework: it is
// tagged core or required, or its name says so.
func (c *Category) IsCore() bool {
	for _, tag := range c.Tags {
		if strings.EqualFold(tag, "core") || strings.EqualFold(tag, "required") {
			return true
		}
	}
	return strings.Contains(c.Name, "Core") || strings.Contains(c.Name, "Required")
}

func (c *Category) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (c *Category) Describe() string {
	lines := []string{
		"Category: " + c.Name,
		fmt.Sprintf("Minimum Credits: %d", c.MinCredits),
	}
	for _, requirement := range c.Requirements {
		lines = append(lines, "  - "+requirement.Describe())
	}
	if c.Restrictions != nil && len(c.Restrictions.Restrictions) > 0 {
		lines = append(lines, "Restrictions:")
		for _, description := range c.Restrictions.DescribeAll() {
			lines = append(lines, "  - "+description)
		}
	}
	if c.Notes != "" {
		lines = append(lines, "Notes: "+c.Notes)
	}
	return strings.Join(lines, "\n")
}

type Type string

const (
	Major Type = "major"
	Minor Type = "minor"
)

// Program is a major or minor: an ordered list of categories plus a total
// credit bound.
type Program struct {
	Name         string
	Type         Type
	TotalCredits int
	School       string
	Categories   []*Category
	Notes        string
}

type ProgramProgress struct {
	Program       string             `json:"program"`
	Type          Type               `json:"type"`
	TotalRequired int                `json:"total_required"`
	TotalEarned   int                `json:"total_earned"`
	Complete      bool               `json:"complete"`
	Categories    []CategoryProgress `json:"categories"`
}

// Category looks a category up by name.
func (p *Program) Category(name string) (*Category, bool) {
	for _, category := range p.Categories {
		if category.Name == name {
			return category, true
		}
	}
	return nil, false
}

// RequiredCredits sums the category minimums.
func (p *Program) RequiredCredits() int {
	total := 0
	for _, category := range p.Categories {
		total += category.MinCredits
	}
	return total
}

// IsValid reports whether the category minimums fit in TotalCredits.
func (p *Program) IsValid() bool {
	return p.RequiredCredits() <= p.TotalCredits
}

// Progress evaluates each category against the courses assigned to it,
// keyed by category name.
func (p *Program) Progress(assigned map[string][]*catalog.Course) ProgramProgress {
	progress := ProgramProgress{
		Program:       p.Name,
		Type:          p.Type,
		TotalRequired: p.TotalCredits,
		Complete:      true,
	}
	for _, category := range p.Categories {
		categoryProgress := category.Progress(assigned[category.Name])
		progress.Categories = append(progress.Categories, categoryProgress)
		progress.TotalEarned += categoryProgress.EarnedCredits
		if !categoryProgress.Complete {
			progress.Complete = false
		}
	}
	if progress.TotalEarned < p.TotalCredits {
		progress.Complete = false
	}
	return progress
}

// ProgressFrom evaluates every category against the same course list.
func (p *Program) ProgressFrom(courses []*catalog.Course) ProgramProgress {
	assigned := make(map[string][]*catalog.Course, len(p.Categories))
	for _, category := range p.Categories {
		assigned[category.Name] = courses
	}
	return p.Progress(assigned)
}

func (p *Program) Describe() string {
	lines := []string{
		fmt.Sprintf("%s (%s)", p.Name, p.Type),
		fmt.Sprintf("Total Credits Required: %d", p.TotalCredits),
		"",
	}
	for _, category := range p.Categories {
		lines = append(lines, category.Describe(), "")
	}
	if p.Notes != "" {
		lines = append(lines, "Notes: "+p.Notes)
	}
	return strings.Join(lines, "\n")
}

// Courses returns every course of the catalog that could count toward the
// category, in catalog order.
func (c *Category) Courses(cat *catalog.Catalog) []*catalog.Course {
	var possible []*catalog.Course
	for _, requirement := range c.Requirements {
		possible = append(possible, requirement.PossibleCourses(cat.All())...)
	}
	return Unique(possible)
}
