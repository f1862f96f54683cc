package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/requirement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func program(name string, kind requirement.Type, school string, categories ...*requirement.Category) *requirement.Program {
	return &requirement.Program{Name: name, Type: kind, School: school, TotalCredits: 120, Categories: categories}
}

func category(name string, courses []string, tags ...string) *requirement.Category {
	return &requirement.Category{
		Name:         name,
		MinCredits:   3,
		Requirements: []requirement.Requirement{requirement.NewCourseOptions(courses, 1, 0, nil)},
		Tags:         tags,
	}
}

// Computer Science (SoE major) and Mathematics (A&S minor) both list
// MATH 2300 in a core and an elective category.
func overlappingPrograms() (*requirement.Program, *requirement.Program) {
	cs := program("Computer Science", requirement.Major, "School of Engineering",
		category("Foundations", []string{"CS 1101", "MATH 2300"}, "core"),
		category("Electives", []string{"CS 3251", "MATH 2300"}),
	)
	math := program("Mathematics", requirement.Minor, "College of Arts and Science",
		category("Math Core", []string{"MATH 2300", "MATH 2400"}),
		category("Math Electives", []string{"MATH 2300", "MATH 3100"}),
	)
	return cs, math
}

func overlapPolicy(condition string) Policy {
	return Policy{
		ProgramTypes: []string{"SoE Major", "A&S Minor"},
		Rules: []Rule{
			{Type: RuleNoDoubleCount},
			{Type: RuleCrossProgramOverlap, Params: Params{"condition": condition}},
		},
	}
}

func TestClassify(t *testing.T) {
	engine, err := NewEngine(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "SoE Major", engine.Classify(program("CS", requirement.Major, "School of Engineering")))
	assert.Equal(t, "A&S Minor", engine.Classify(program("Math", requirement.Minor, "College of Arts and Science")))
	assert.Equal(t, "Blair Major", engine.Classify(program("Music", requirement.Major, "Blair")))
	assert.Equal(t, "minor", engine.Classify(program("Art", requirement.Minor, "")))

	custom, err := NewEngine(nil, nil, WithSchools(map[string]string{"Blair": "BSM"}))
	require.NoError(t, err)
	assert.Equal(t, "BSM Major", custom.Classify(program("Music", requirement.Major, "Blair")))
}

func TestApplicableMatchesBySubset(t *testing.T) {
	both := Policy{Name: "both", ProgramTypes: []string{"SoE Major", "A&S Minor"}}
	soe := Policy{Name: "soe", ProgramTypes: []string{"SoE Major"}}
	everyone := Policy{Name: "everyone"}
	engine, err := NewEngine([]Policy{both, soe, everyone}, nil)
	require.NoError(t, err)

	cs, math := overlappingPrograms()
	names := func(policies []Policy) []string {
		var out []string
		for _, p := range policies {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Equal(t, []string{"both", "soe", "everyone"}, names(engine.Applicable([]*requirement.Program{cs, math})))
	assert.Equal(t, []string{"soe", "everyone"}, names(engine.Applicable([]*requirement.Program{cs})))
	assert.Equal(t, []string{"everyone"}, names(engine.Applicable([]*requirement.Program{math})))
}

func TestNoDoubleCountWithinProgram(t *testing.T) {
	cs, math := overlappingPrograms()
	engine, err := NewEngine([]Policy{overlapPolicy("")}, nil)
	require.NoError(t, err)
	programs := []*requirement.Program{cs, math}

	result := engine.Validate(programs, Assignments{
		"MATH 2300": {{Program: "Computer Science", Category: "Foundations"}, {Program: "Computer Science", Category: "Electives"}},
	})
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "MATH 2300")
	assert.Contains(t, result.Errors[0], "Computer Science")

	result = engine.Validate(programs, Assignments{
		"MATH 2300": {{Program: "Computer Science", Category: "Foundations"}, {Program: "Mathematics", Category: "Math Electives"}},
	})
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestCrossProgramOverlapRequiresCoreCategories(t *testing.T) {
	cs, math := overlappingPrograms()
	engine, err := NewEngine([]Policy{overlapPolicy(ConditionRequiredOnly)}, nil)
	require.NoError(t, err)
	programs := []*requirement.Program{cs, math}

	tests := map[string]struct {
		csCategory, mathCategory string
		valid                    bool
	}{
		"both core":         {"Foundations", "Math Core", true},
		"non-core in major": {"Electives", "Math Core", false},
		"non-core in minor": {"Foundations", "Math Electives", false},
		"non-core in both":  {"Electives", "Math Electives", false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			result := engine.Validate(programs, Assignments{
				"MATH 2300": {
					{Program: "Computer Science", Category: tc.csCategory},
					{Program: "Mathematics", Category: tc.mathCategory},
				},
			})
			assert.Equal(t, tc.valid, result.IsValid)
			if tc.valid {
				assert.Empty(t, result.Errors)
			} else {
				assert.NotEmpty(t, result.Errors)
			}
		})
	}

	t.Run("unshared course", func(t *testing.T) {
		result := engine.Validate(programs, Assignments{
			"CS 3251": {{Program: "Computer Science", Category: "Electives"}},
		})
		assert.True(t, result.IsValid)
	})
}

func TestCrossProgramOverlapMustSatisfyBoth(t *testing.T) {
	var courses []*catalog.Course
	for _, code := range []string{"CS 1101", "CS 3251", "MATH 2300", "MATH 2400", "MATH 3100"} {
		c, err := catalog.NewCourse(catalog.Record{CourseCode: code, Credits: 3})
		require.NoError(t, err)
		courses = append(courses, c)
	}
	cat, err := catalog.New(courses)
	require.NoError(t, err)

	cs, math := overlappingPrograms()
	programs := []*requirement.Program{cs, math}
	engine, err := NewEngine([]Policy{overlapPolicy(ConditionMustSatisfyBoth)}, nil, WithCourses(cat))
	require.NoError(t, err)

	result := engine.Validate(programs, Assignments{
		"MATH 2300": {{Program: "Computer Science", Category: "Electives"}, {Program: "Mathematics", Category: "Math Core"}},
	})
	assert.True(t, result.IsValid)

	result = engine.Validate(programs, Assignments{
		"CS 3251": {{Program: "Computer Science", Category: "Electives"}, {Program: "Mathematics", Category: "Math Core"}},
	})
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "CS 3251")
}

func TestAdvisoryRulesOnlyWarn(t *testing.T) {
	cs, math := overlappingPrograms()
	engine, err := NewEngine([]Policy{{
		Rules: []Rule{{Type: RuleMaxSharedCourses, Params: Params{"limit": float64(1)}}},
	}}, nil)
	require.NoError(t, err)

	assignments := Assignments{
		"MATH 2300": {{Program: "Computer Science", Category: "Foundations"}, {Program: "Mathematics", Category: "Math Core"}},
		"MATH 2400": {{Program: "Computer Science", Category: "Electives"}, {Program: "Mathematics", Category: "Math Core"}},
	}
	result := engine.Validate([]*requirement.Program{cs, math}, assignments)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "share 2 courses")

	delete(assignments, "MATH 2400")
	result = engine.Validate([]*requirement.Program{cs, math}, assignments)
	assert.Empty(t, result.Warnings)
}

func TestNewEngineRejectsUnknownRule(t *testing.T) {
	_, err := NewEngine([]Policy{{Rules: []Rule{{Type: "no_mondays"}}}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
	assert.Contains(t, err.Error(), "no_mondays")
}

func TestRegistriesAreIndependent(t *testing.T) {
	registry := NewRegistry()
	called := 0
	require.NoError(t, registry.Register("no_mondays", func(in Input, params Params) []string {
		called++
		return []string{"no classes on " + params.String("day")}
	}))

	err := registry.Register("no_mondays", NoDoubleCountWithinProgram)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
	assert.Equal(t, []string{"no_mondays"}, registry.Names())

	_, _, ok := DefaultRegistry().Lookup("no_mondays")
	assert.False(t, ok)
	assert.Equal(t, []string{RuleCrossProgramOverlap, RuleMaxSharedCourses, RuleNoDoubleCount}, DefaultRegistry().Names())

	engine, err := NewEngine([]Policy{{Rules: []Rule{{Type: "no_mondays", Params: Params{"day": "Monday"}}}}}, registry)
	require.NoError(t, err)
	result := engine.Validate(nil, Assignments{})
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"no classes on Monday"}, result.Errors)
	assert.Equal(t, 1, called)
}

const policiesYAML = `
- name: engineering with arts minor
  program_types: [SoE Major, A&S Minor]
  rules:
    - type: no_double_count_within_program
    - type: allow_cross_program_overlap
      condition: required_courses_only
    - type: max_shared_courses
      limit: 2
`

const policiesJSON = `[
  {"program_types": ["SoE Major"], "rules": [{"type": "no_double_count_within_program"}]}
]`

func TestLoadPolicies(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "policy.yaml")
	jsonPath := filepath.Join(dir, "policy.json")
	require.NoError(t, os.WriteFile(yamlPath, []byte(policiesYAML), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(policiesJSON), 0o644))

	policies, err := LoadPolicies(yamlPath)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, []string{"SoE Major", "A&S Minor"}, policies[0].ProgramTypes)
	require.Len(t, policies[0].Rules, 3)
	assert.Equal(t, RuleCrossProgramOverlap, policies[0].Rules[1].Type)
	assert.Equal(t, ConditionRequiredOnly, policies[0].Rules[1].Params.String("condition"))
	limit, ok := policies[0].Rules[2].Params.Int("limit")
	assert.True(t, ok)
	assert.Equal(t, 2, limit)

	policies, err = LoadPolicies(jsonPath)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Empty(t, policies[0].Rules[0].Params)

	_, err = LoadPolicies(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDecodePoliciesRejectsMalformedInput(t *testing.T) {
	_, err := DecodePolicies("policy.json", []byte(`[{"program_types": ["SoE Major"], "rules": [{"condition": "x"}]}]`))
	assert.True(t, errors.Is(err, errs.ErrConfiguration))

	_, err = DecodePolicies("policy.json", []byte(`{"program_types": 3}`))
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
}

func TestRuleMarshalsFlat(t *testing.T) {
	data, err := Rule{Type: RuleMaxSharedCourses, Params: Params{"limit": 2}}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "max_shared_courses", "limit": 2}`, string(data))
}
