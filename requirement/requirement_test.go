package requirement

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func course(t *testing.T, code string, credits int, tags ...string) *catalog.Course {
	t.Helper()
	axle := make([]any, len(tags))
	for i, tag := range tags {
		axle[i] = tag
	}
	c, err := catalog.NewCourse(catalog.Record{CourseCode: code, Credits: credits, Axle: axle})
	require.NoError(t, err)
	return c
}

func codesOf(courses []*catalog.Course) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.Code
	}
	return out
}

func TestCourseList(t *testing.T) {
	r := NewCourseList([]string{"CS 1101", "CS 2201"}, nil)
	cs1101, cs2201, math := course(t, "CS 1101", 3), course(t, "CS 2201", 3), course(t, "MATH 1300", 4)

	assert.False(t, r.IsMet([]*catalog.Course{cs1101, math}))
	assert.True(t, r.IsMet([]*catalog.Course{cs1101, cs2201, math}))
	assert.Equal(t, 3, r.SatisfiedCredits([]*catalog.Course{cs1101, cs1101, math}))
	assert.Equal(t, []string{"CS 1101", "CS 2201"}, codesOf(r.PossibleCourses([]*catalog.Course{math, cs1101, cs2201})))
	assert.Equal(t, "Must complete: CS 1101, CS 2201", r.Describe())
}

func TestCourseOptions(t *testing.T) {
	a, b, c := course(t, "A 1000", 3), course(t, "B 1000", 3), course(t, "C 1000", 3)

	one := NewCourseOptions([]string{"A 1000", "B 1000"}, 0, 0, nil)
	assert.Equal(t, 1, one.MinRequired)
	assert.False(t, one.IsMet([]*catalog.Course{c}))
	assert.True(t, one.IsMet([]*catalog.Course{b}))

	two := NewCourseOptions([]string{"A 1000", "B 1000", "C 1000"}, 2, 0, nil)
	assert.False(t, two.IsMet([]*catalog.Course{a, a}))
	assert.True(t, two.IsMet([]*catalog.Course{a, c}))

	credits := NewCourseOptions([]string{"A 1000", "B 1000"}, 0, 6, nil)
	assert.Equal(t, 0, credits.MinRequired)
	assert.False(t, credits.IsMet([]*catalog.Course{a}))
	assert.True(t, credits.IsMet([]*catalog.Course{a, b}))
}

func TestCourseFilter(t *testing.T) {
	mns := course(t, "MATH 3100", 3, "MNS")
	low := course(t, "MATH 1300", 4, "MNS")
	other := course(t, "HIST 3100", 3, "HCA")

	r := NewCourseFilter("MATH", []string{"MNS", "SBS"}, 2000, 4000, 6, "upper level", nil)
	assert.True(t, r.Matches(mns))
	assert.False(t, r.Matches(low))
	assert.False(t, r.Matches(other))
	assert.Equal(t, 3, r.SatisfiedCredits([]*catalog.Course{mns, low, other}))
	assert.False(t, r.IsMet([]*catalog.Course{mns}))
	assert.Contains(t, r.Describe(), "upper level")

	anything := NewCourseFilter("", nil, 0, 0, 0, "", nil)
	assert.True(t, anything.Matches(other))
	assert.True(t, anything.IsMet([]*catalog.Course{other}))
	assert.False(t, anything.IsMet(nil))
}

func TestCompound(t *testing.T) {
	a, b, c := course(t, "A 1000", 3), course(t, "B 1000", 4), course(t, "C 1000", 3)
	left := NewCourseList([]string{"A 1000"}, nil)
	right := NewCourseList([]string{"B 1000", "C 1000"}, nil)

	or := NewCompound("or", []Requirement{left, right}, nil)
	assert.Equal(t, Or, or.Op)
	assert.True(t, or.IsMet([]*catalog.Course{a}))
	assert.False(t, or.IsMet([]*catalog.Course{b}))
	// The best branch counts.
	assert.Equal(t, 4, or.SatisfiedCredits([]*catalog.Course{a, b}))
	assert.Equal(t, []string{"A 1000", "B 1000", "C 1000"}, codesOf(or.PossibleCourses([]*catalog.Course{a, b, c})))

	and := NewCompound(And, []Requirement{left, right}, nil)
	assert.False(t, and.IsMet([]*catalog.Course{a, b}))
	assert.True(t, and.IsMet([]*catalog.Course{a, b, c}))
	assert.Equal(t, 10, and.SatisfiedCredits([]*catalog.Course{a, b, c, a}))
}

func TestExclusionFiltersPossibleCourses(t *testing.T) {
	courses := []*catalog.Course{
		course(t, "MATH 1300", 4),
		course(t, "MATH 2300", 3),
		course(t, "MATH 3890", 3),
		course(t, "CS 3890", 3),
	}
	exclusion := &Exclusion{Codes: []string{"MATH 1300"}, MinNumber: 3800, MaxNumber: 3899, Subject: "MATH"}
	r := NewCourseFilter("", nil, 0, 0, 6, "", &Group{Restrictions: []Restriction{exclusion}})

	assert.Equal(t, []string{"MATH 2300", "CS 3890"}, codesOf(r.PossibleCourses(courses)))
	assert.False(t, exclusion.SatisfiedBy(courses))
	assert.True(t, exclusion.SatisfiedBy(courses[1:2]))
	assert.True(t, (&Exclusion{Levels: []int{1000}}).Excludes(courses[0]))
	assert.True(t, (&Exclusion{Numbers: []int{2300}}).Excludes(courses[1]))
}

func TestRestrictions(t *testing.T) {
	a := course(t, "MATH 3100", 3, "MNS")
	b := course(t, "MATH 1300", 4)
	c := course(t, "CS 3251", 3)
	courses := []*catalog.Course{a, b, c}
	three, four := 3, 4

	tests := []struct {
		name        string
		restriction Restriction
		want        bool
	}{
		{"course group within cap", &CourseGroup{Courses: []string{"MATH 3100", "CS 3251"}, MaxCredits: 6}, true},
		{"course group over cap", &CourseGroup{Courses: []string{"MATH 3100", "MATH 1300"}, MaxCredits: 6}, false},
		{"credit limit", &CreditLimit{Courses: []string{"MATH 1300"}, MaxCredits: 3}, false},
		{"distribution met", &Distribution{Courses: []string{"CS 3251"}, MinCredits: 3}, true},
		{"distribution short", &Distribution{Courses: []string{"CS 3251"}, MinCredits: 6}, false},
		{"tag quota", &TagQuota{Tag: "MNS", MinCredits: 3}, true},
		{"subject min", &SubjectQuota{Subject: "MATH", MinCredits: &four}, true},
		{"subject max", &SubjectQuota{Subject: "MATH", MaxCredits: &three}, false},
		{"level quota open band", &LevelQuota{MinLevel: 3000, MinCredits: 6}, true},
		{"level quota closed band", &LevelQuota{MinLevel: 1000, MaxLevel: 1000, MinCredits: 6}, false},
		{"group all", &Group{Restrictions: []Restriction{&TagQuota{Tag: "MNS", MinCredits: 3}, &LevelQuota{MinLevel: 3000, MinCredits: 6}}}, true},
		{"group one fails", &Group{Restrictions: []Restriction{&TagQuota{Tag: "MNS", MinCredits: 9}, &LevelQuota{MinLevel: 3000, MinCredits: 6}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.restriction.SatisfiedBy(courses))
			assert.NotEmpty(t, tt.restriction.Describe())
		})
	}
}

func TestCategoryCountsEachCourseOnce(t *testing.T) {
	a := course(t, "MATH 3100", 3)
	category := &Category{
		Name:       "Electives",
		MinCredits: 6,
		Requirements: []Requirement{
			NewCourseOptions([]string{"MATH 3100"}, 1, 0, nil),
			NewCourseFilter("MATH", nil, 3000, 0, 3, "", nil),
		},
	}

	assert.Equal(t, 3, category.EarnedCredits([]*catalog.Course{a}))
	assert.False(t, category.IsComplete([]*catalog.Course{a}))

	b := course(t, "MATH 3200", 3)
	assert.True(t, category.IsComplete([]*catalog.Course{a, b}))
	assert.True(t, category.Accepts(b))
	assert.False(t, category.Accepts(course(t, "MATH 1300", 4)))
}

func TestCategoryRestrictionsBlockCompletion(t *testing.T) {
	category := &Category{
		Name:         "Depth",
		MinCredits:   3,
		Requirements: []Requirement{NewCourseFilter("", nil, 0, 0, 3, "", nil)},
		Restrictions: &Group{Restrictions: []Restriction{&LevelQuota{MinLevel: 3000, MinCredits: 3}}},
	}
	low := []*catalog.Course{course(t, "MATH 1300", 4)}

	progress := category.Progress(low)
	assert.Equal(t, 4, progress.EarnedCredits)
	assert.False(t, progress.Complete)
	require.Len(t, progress.Restrictions, 1)
	assert.False(t, progress.Restrictions[0].Satisfied)
}

func TestCategoryIsCore(t *testing.T) {
	assert.True(t, (&Category{Name: "Mathematics Core"}).IsCore())
	assert.True(t, (&Category{Name: "Required Courses"}).IsCore())
	assert.True(t, (&Category{Name: "Foundations", Tags: []string{"core"}}).IsCore())
	assert.False(t, (&Category{Name: "Electives"}).IsCore())
}

func TestProgramProgress(t *testing.T) {
	a, b := course(t, "A 1000", 3), course(t, "B 1000", 3)
	program := &Program{
		Name:         "Minor X",
		Type:         Minor,
		TotalCredits: 6,
		Categories: []*Category{
			{Name: "Core", MinCredits: 3, Requirements: []Requirement{NewCourseOptions([]string{"A 1000", "B 1000"}, 1, 0, nil)}},
			{Name: "Elective", MinCredits: 3, Requirements: []Requirement{NewCourseFilter("B", nil, 0, 0, 3, "", nil)}},
		},
	}
	assert.True(t, program.IsValid())
	assert.Equal(t, 6, program.RequiredCredits())

	progress := program.Progress(map[string][]*catalog.Course{"Core": {a}})
	assert.False(t, progress.Complete)
	assert.Equal(t, 3, progress.TotalEarned)

	progress = program.Progress(map[string][]*catalog.Course{"Core": {a}, "Elective": {b}})
	assert.True(t, progress.Complete)
	assert.Equal(t, 6, progress.TotalEarned)

	_, ok := program.Category("Elective")
	assert.True(t, ok)
	_, ok = program.Category("Nope")
	assert.False(t, ok)

	program.TotalCredits = 3
	assert.False(t, program.IsValid())
}

const programsYAML = `
- name: Computer Science
  type: major
  school: SoE
  total_credits: 9
  categories:
    - category: Computer Science Core
      min_credits: 6
      tags: core
      requirements:
        - type: course_list
          courses: [cs1101, "CS 2201"]
    - category: Electives
      min_credits: 3
      requirements:
        - type: compound
          op: or
          options:
            - type: course_options
              options: [MATH 2300, MATH 2400]
              min_required: 1
            - type: course_filter
              subject: cs
              min_level: 3000
              min_credits: 3
              restrictions:
                type: exclusion
                excluded_course_codes: [CS 3860]
      restrictions:
        type: group
        restrictions:
          - type: level_quota
            min_level: 2000
            min_credits: 3
          - type: subject_quota
            subject: math
            max_credits: 3
`

func TestLoadPrograms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "programs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(programsYAML), 0o644))

	programs, err := LoadPrograms(path)
	require.NoError(t, err)
	require.Len(t, programs, 1)

	program := programs[0]
	assert.Equal(t, Major, program.Type)
	assert.Equal(t, "SoE", program.School)

	core, ok := program.Category("Computer Science Core")
	require.True(t, ok)
	assert.True(t, core.IsCore())
	list, ok := core.Requirements[0].(*CourseList)
	require.True(t, ok)
	assert.Equal(t, []string{"CS 1101", "CS 2201"}, list.Courses)

	electives, ok := program.Category("Electives")
	require.True(t, ok)
	compound, ok := electives.Requirements[0].(*Compound)
	require.True(t, ok)
	assert.Equal(t, Or, compound.Op)
	require.Len(t, compound.Options, 2)
	require.NotNil(t, electives.Restrictions)
	assert.Len(t, electives.Restrictions.Restrictions, 2)

	filter := compound.Options[1].(*CourseFilter)
	assert.Equal(t, "CS", filter.Subject)
	courses := []*catalog.Course{course(t, "CS 3860", 3), course(t, "CS 3251", 3)}
	assert.Equal(t, []string{"CS 3251"}, codesOf(filter.PossibleCourses(courses)))

	assert.Equal(t, []string{"CS 1101", "CS 2201", "MATH 2300", "MATH 2400"}, ReferencedCourses(program))
}

func TestEncodeRebuildsSameProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "programs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(programsYAML), 0o644))
	programs, err := LoadPrograms(path)
	require.NoError(t, err)

	spec, err := Encode(programs[0])
	require.NoError(t, err)
	rebuilt, err := BuildProgram(spec)
	require.NoError(t, err)
	assert.Equal(t, programs[0].Describe(), rebuilt.Describe())
}

func TestBuildProgramRejectsMalformedConfiguration(t *testing.T) {
	valid := func() ProgramSpec {
		return ProgramSpec{Name: "P", Type: "major", TotalCredits: 3, Categories: []CategorySpec{{
			Category:     "C",
			MinCredits:   3,
			Requirements: []RequirementSpec{{Type: "course_list", Courses: []string{"CS 1101"}}},
		}}}
	}
	_, err := BuildProgram(valid())
	require.NoError(t, err)

	tests := map[string]func(*ProgramSpec){
		"unknown requirement type": func(s *ProgramSpec) { s.Categories[0].Requirements[0].Type = "course_magic" },
		"unknown restriction type": func(s *ProgramSpec) {
			s.Categories[0].Restrictions = &RestrictionSpec{Type: "quota_of_doom"}
		},
		"bad program type":     func(s *ProgramSpec) { s.Type = "certificate" },
		"missing name":         func(s *ProgramSpec) { s.Name = "" },
		"missing category":     func(s *ProgramSpec) { s.Categories[0].Category = "" },
		"duplicate category":   func(s *ProgramSpec) { s.Categories = append(s.Categories, s.Categories[0]) },
		"slash in category":    func(s *ProgramSpec) { s.Categories[0].Category = "Core / Electives" },
		"bad course code":      func(s *ProgramSpec) { s.Categories[0].Requirements[0].Courses = []string{"???"} },
		"empty course list":    func(s *ProgramSpec) { s.Categories[0].Requirements[0].Courses = nil },
		"negative threshold":   func(s *ProgramSpec) { s.Categories[0].Requirements[0].MinCredits = -1 },
		"compound bad options": func(s *ProgramSpec) { s.Categories[0].Requirements[0] = RequirementSpec{Type: "compound", Options: []byte(`"x"`)} },
		"quota missing credits": func(s *ProgramSpec) {
			s.Categories[0].Restrictions = &RestrictionSpec{Type: "tag_quota", Tag: "MNS"}
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			spec := valid()
			mutate(&spec)
			_, err := BuildProgram(spec)
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}

func TestUnknownCourses(t *testing.T) {
	cat, err := catalog.FromRecords([]catalog.Record{{CourseCode: "CS 1101"}})
	require.NoError(t, err)
	program := &Program{Name: "P", Categories: []*Category{{
		Name:         "C",
		Requirements: []Requirement{NewCourseList([]string{"CS 1101", "CS 2201"}, nil)},
	}}}
	assert.Equal(t, map[string][]string{"P": {"CS 2201"}}, UnknownCourses([]*Program{program}, cat))
}
