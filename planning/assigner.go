// Package planning ties the catalog, eligibility and requirement models
// together into a student's plan: course assignments, unmet requirements,
// semester recommendations and term progression.
package planning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/policy"
	"github.com/finnjohnston/enrollment/requirement"
)

// Outcome reports whether an assignment was recorded. A rejection is a normal
// result; Reason says which check failed.
type Outcome struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func rejected(format string, args ...any) Outcome {
	return Outcome{Reason: fmt.Sprintf(format, args...)}
}

// Err converts a rejection into an ErrAssignmentRejected error.
func (o Outcome) Err() error {
	if o.Accepted {
		return nil
	}
	return errs.Rejected("%s", o.Reason)
}

// Assigner places courses into program categories. It is not safe for
// concurrent use; Plan serializes access to it.
type Assigner struct {
	programs    []*requirement.Program
	courses     *catalog.Catalog
	engine      *policy.Engine
	assignments policy.Assignments
}

// NewAssigner creates an empty assigner. A nil engine skips policy checks.
func NewAssigner(programs []*requirement.Program, courses *catalog.Catalog, engine *policy.Engine) *Assigner {
	return &Assigner{
		programs:    programs,
		courses:     courses,
		engine:      engine,
		assignments: make(policy.Assignments),
	}
}

func (a *Assigner) program(name string) (*requirement.Program, error) {
	for _, program := range a.programs {
		if program.Name == name {
			return program, nil
		}
	}
	return nil, errs.NotFound("program %q", name)
}

// Assign places code in category of program. The course must not already
// count toward that program, it must fit one of the category's requirements
// and the resulting assignments must pass every applicable policy.
func (a *Assigner) Assign(code, programName, categoryName string) (Outcome, error) {
	course, err := a.courses.Lookup(code)
	if err != nil {
		return Outcome{}, err
	}
	program, err := a.program(programName)
	if err != nil {
		return Outcome{}, err
	}
	category, ok := program.Category(categoryName)
	if !ok {
		return Outcome{}, errs.NotFound("category %q in program %q", categoryName, programName)
	}
	code = course.Code

	if existing := a.assignments.In(code, program.Name); len(existing) > 0 {
		return rejected("%s already counts toward %s in %s", code, existing[0], program.Name), nil
	}
	if !category.Accepts(course) {
		return rejected("%s does not satisfy any requirement in %s", code, category.Name), nil
	}

	prospective := a.assignments.Clone()
	prospective[code] = append(prospective[code], policy.Placement{Program: program.Name, Category: category.Name})
	if a.engine != nil {
		result := a.engine.Validate(a.involved(code, program), prospective)
		if !result.IsValid {
			return rejected("%s", strings.Join(result.Errors, "; ")), nil
		}
	}
	a.assignments = prospective
	return Outcome{Accepted: true}, nil
}

// involved returns the target program followed by every other program the
// course already counts toward.
func (a *Assigner) involved(code string, target *requirement.Program) []*requirement.Program {
	programs := []*requirement.Program{target}
	for _, program := range a.programs {
		if program != target && len(a.assignments.In(code, program.Name)) > 0 {
			programs = append(programs, program)
		}
	}
	return programs
}

// AssignToCategory assigns code to the first program that has a category
// with the given name.
func (a *Assigner) AssignToCategory(code, categoryName string) (Outcome, error) {
	for _, program := range a.programs {
		if _, ok := program.Category(categoryName); ok {
			return a.Assign(code, program.Name, categoryName)
		}
	}
	return Outcome{}, errs.NotFound("category %q", categoryName)
}

// Unassign removes code from programName, or from every program when
// programName is empty. It reports whether anything was removed.
func (a *Assigner) Unassign(code, programName string) bool {
	code = normalize(code)
	placements, ok := a.assignments[code]
	if !ok {
		return false
	}
	var kept []policy.Placement
	for _, placement := range placements {
		if programName != "" && placement.Program != programName {
			kept = append(kept, placement)
		}
	}
	if len(kept) == 0 {
		delete(a.assignments, code)
	} else {
		a.assignments[code] = kept
	}
	return len(kept) < len(placements)
}

// IsAssigned reports whether code counts toward programName, or toward any
// program when programName is empty.
func (a *Assigner) IsAssigned(code, programName string) bool {
	code = normalize(code)
	if programName == "" {
		return len(a.assignments[code]) > 0
	}
	return len(a.assignments.In(code, programName)) > 0
}

// Assignments returns a copy of the current assignments.
func (a *Assigner) Assignments() policy.Assignments {
	return a.assignments.Clone()
}

// Replace installs previously validated assignments, as when restoring a
// saved plan.
func (a *Assigner) Replace(assignments policy.Assignments) {
	a.assignments = assignments.Clone()
}

// Summary groups assigned codes by program and category.
func (a *Assigner) Summary() map[string]map[string][]string {
	summary := make(map[string]map[string][]string)
	for code, placements := range a.assignments {
		for _, placement := range placements {
			if summary[placement.Program] == nil {
				summary[placement.Program] = make(map[string][]string)
			}
			summary[placement.Program][placement.Category] = append(summary[placement.Program][placement.Category], code)
		}
	}
	for _, categories := range summary {
		for _, codes := range categories {
			sort.Slice(codes, func(i, j int) bool { return catalog.SortKey(codes[i]) < catalog.SortKey(codes[j]) })
		}
	}
	return summary
}

// Assigned returns the courses placed in a program's category, in catalog
// order.
func (a *Assigner) Assigned(programName, categoryName string) []*catalog.Course {
	return assignedCourses(a.courses.All(), a.assignments, programName, categoryName)
}

func assignedCourses(courses []*catalog.Course, assignments policy.Assignments, programName, categoryName string) []*catalog.Course {
	var assigned []*catalog.Course
	for _, course := range courses {
		for _, category := range assignments.In(course.Code, programName) {
			if category == categoryName {
				assigned = append(assigned, course)
				break
			}
		}
	}
	return assigned
}

func normalize(code string) string {
	if normalized, err := catalog.NormalizeCode(code); err == nil {
		return normalized
	}
	return code
}
