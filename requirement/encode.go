package requirement

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/finnjohnston/enrollment/catalog"
)

// Encode converts a Program back into its configuration form.
func Encode(program *Program) (ProgramSpec, error) {
	spec := ProgramSpec{
		Name:         program.Name,
		Type:         string(program.Type),
		TotalCredits: program.TotalCredits,
		School:       program.School,
		Notes:        program.Notes,
	}
	for _, category := range program.Categories {
		categorySpec := CategorySpec{
			Category:   category.Name,
			MinCredits: category.MinCredits,
			Notes:      category.Notes,
			Tags:       category.Tags,
		}
		for _, requirement := range category.Requirements {
			requirementSpec, err := encodeRequirement(requirement)
			if err != nil {
				return ProgramSpec{}, fmt.Errorf("category %q: %w", category.Name, err)
			}
			categorySpec.Requirements = append(categorySpec.Requirements, requirementSpec)
		}
		if category.Restrictions != nil {
			restrictionSpec, err := encodeRestriction(category.Restrictions)
			if err != nil {
				return ProgramSpec{}, fmt.Errorf("category %q: %w", category.Name, err)
			}
			categorySpec.Restrictions = &restrictionSpec
		}
		spec.Categories = append(spec.Categories, categorySpec)
	}
	return spec, nil
}

type requirementEncoder struct {
	spec RequirementSpec
}

func encodeRequirement(r Requirement) (RequirementSpec, error) {
	encoder := &requirementEncoder{}
	if err := r.Accept(encoder); err != nil {
		return RequirementSpec{}, err
	}
	if restriction := r.Restriction(); restriction != nil {
		restrictionSpec, err := encodeRestriction(restriction)
		if err != nil {
			return RequirementSpec{}, err
		}
		encoder.spec.Restrictions = &restrictionSpec
	}
	return encoder.spec, nil
}

func (e *requirementEncoder) VisitCourseList(r *CourseList) error {
	e.spec = RequirementSpec{Type: "course_list", Courses: r.Courses}
	return nil
}

func (e *requirementEncoder) VisitCourseOptions(r *CourseOptions) error {
	options, err := json.Marshal(r.Options)
	if err != nil {
		return err
	}
	e.spec = RequirementSpec{Type: "course_options", Options: options, MinRequired: r.MinRequired, MinCredits: r.MinCredits}
	return nil
}

func (e *requirementEncoder) VisitCourseFilter(r *CourseFilter) error {
	e.spec = RequirementSpec{
		Type:       "course_filter",
		Subject:    r.Subject,
		Tags:       r.Tags,
		MinLevel:   r.MinLevel,
		MaxLevel:   r.MaxLevel,
		MinCredits: r.MinCredits,
		Note:       r.Note,
	}
	return nil
}

func (e *requirementEncoder) VisitCompound(r *Compound) error {
	options := make([]RequirementSpec, 0, len(r.Options))
	for _, option := range r.Options {
		optionSpec, err := encodeRequirement(option)
		if err != nil {
			return err
		}
		options = append(options, optionSpec)
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return err
	}
	e.spec = RequirementSpec{Type: "compound", Op: string(r.Op), Options: raw}
	return nil
}

type restrictionEncoder struct {
	spec RestrictionSpec
}

func encodeRestriction(r Restriction) (RestrictionSpec, error) {
	encoder := &restrictionEncoder{}
	if err := r.Accept(encoder); err != nil {
		return RestrictionSpec{}, err
	}
	return encoder.spec, nil
}

func (e *restrictionEncoder) VisitExclusion(r *Exclusion) error {
	e.spec = RestrictionSpec{
		Type:                "exclusion",
		ExcludedCourseCodes: r.Codes,
		ExcludedNumbers:     r.Numbers,
		MinNumber:           r.MinNumber,
		MaxNumber:           r.MaxNumber,
		ExcludedLevels:      r.Levels,
		Subject:             r.Subject,
	}
	return nil
}

func (e *restrictionEncoder) VisitCourseGroup(r *CourseGroup) error {
	e.spec = RestrictionSpec{Type: "course_group", Courses: r.Courses, MaxCredits: intPtr(r.MaxCredits)}
	return nil
}

func (e *restrictionEncoder) VisitCreditLimit(r *CreditLimit) error {
	e.spec = RestrictionSpec{Type: "credit_limit", Courses: r.Courses, MaxCredits: intPtr(r.MaxCredits)}
	return nil
}

func (e *restrictionEncoder) VisitDistribution(r *Distribution) error {
	e.spec = RestrictionSpec{Type: "distribution", Courses: r.Courses, MinCredits: intPtr(r.MinCredits)}
	return nil
}

func (e *restrictionEncoder) VisitTagQuota(r *TagQuota) error {
	e.spec = RestrictionSpec{Type: "tag_quota", Tag: r.Tag, MinCredits: intPtr(r.MinCredits)}
	return nil
}

func (e *restrictionEncoder) VisitSubjectQuota(r *SubjectQuota) error {
	e.spec = RestrictionSpec{Type: "subject_quota", Subject: r.Subject, MinCredits: r.MinCredits, MaxCredits: r.MaxCredits}
	return nil
}

func (e *restrictionEncoder) VisitLevelQuota(r *LevelQuota) error {
	e.spec = RestrictionSpec{Type: "level_quota", MinLevel: r.MinLevel, MaxLevel: r.MaxLevel, MinCredits: intPtr(r.MinCredits)}
	return nil
}

func (e *restrictionEncoder) VisitGroup(r *Group) error {
	spec := RestrictionSpec{Type: "group", Description: r.Description}
	for _, member := range r.Restrictions {
		memberSpec, err := encodeRestriction(member)
		if err != nil {
			return err
		}
		spec.Restrictions = append(spec.Restrictions, memberSpec)
	}
	e.spec = spec
	return nil
}

func intPtr(v int) *int {
	return &v
}

// referenceCollector gathers the explicit course codes a requirement tree
// names. Filters name none.
type referenceCollector struct {
	codes map[string]struct{}
}

func (c *referenceCollector) add(codes []string) {
	for _, code := range codes {
		c.codes[code] = struct{}{}
	}
}

func (c *referenceCollector) VisitCourseList(r *CourseList) error {
	c.add(r.Courses)
	return nil
}

func (c *referenceCollector) VisitCourseOptions(r *CourseOptions) error {
	c.add(r.Options)
	return nil
}

func (c *referenceCollector) VisitCourseFilter(*CourseFilter) error { return nil }

func (c *referenceCollector) VisitCompound(r *Compound) error {
	for _, option := range r.Options {
		if err := option.Accept(c); err != nil {
			return err
		}
	}
	return nil
}

// ReferencedCourses returns every course code a program names explicitly.
func ReferencedCourses(program *Program) []string {
	collector := &referenceCollector{codes: make(map[string]struct{})}
	for _, category := range program.Categories {
		for _, requirement := range category.Requirements {
			_ = requirement.Accept(collector)
		}
	}
	codes := make([]string, 0, len(collector.codes))
	for code := range collector.codes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return catalog.SortKey(codes[i]) < catalog.SortKey(codes[j]) })
	return codes
}

// UnknownCourses returns, per program, the referenced codes the catalog does
// not contain.
func UnknownCourses(programs []*Program, cat *catalog.Catalog) map[string][]string {
	unknown := make(map[string][]string)
	for _, program := range programs {
		for _, code := range ReferencedCourses(program) {
			if _, ok := cat.Get(code); !ok {
				unknown[program.Name] = append(unknown[program.Name], code)
			}
		}
	}
	return unknown
}

// NamedCourses returns the course codes a single requirement names
// explicitly, in catalog order. Filters name none.
func NamedCourses(r Requirement) []string {
	collector := &referenceCollector{codes: make(map[string]struct{})}
	_ = r.Accept(collector)
	codes := make([]string, 0, len(collector.codes))
	for code := range collector.codes {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return catalog.SortKey(codes[i]) < catalog.SortKey(codes[j]) })
	return codes
}
