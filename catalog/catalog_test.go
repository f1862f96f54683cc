package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/finnjohnston/enrollment/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"MATH 1200", "MATH 1200"},
		{"math1200", "MATH 1200"},
		{"  Math   1200 ", "MATH 1200"},
		{"CS 3251W", "CS 3251W"},
		{"A&S 1000", "A&S 1000"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeCode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "   ", "1200", "MATH", "MATH-1200"} {
		_, err := NormalizeCode(bad)
		assert.ErrorIs(t, err, errs.ErrInvalidInput, "code %q", bad)
	}
}

func TestLevelAndSortKey(t *testing.T) {
	assert.Equal(t, 1000, LevelOf("1200"))
	assert.Equal(t, 3000, LevelOf("3251W"))
	assert.Equal(t, 0, LevelOf(""))

	assert.Less(t, SortKey("MATH 210"), SortKey("MATH 1200"))
	assert.Less(t, SortKey("CS 9999"), SortKey("MATH 1000"))
	assert.Less(t, SortKey("CS 3251"), SortKey("CS 3251W"))
}

func TestNormalizeRequisites(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Requisites
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"empty list", []any{}, nil},
		{"single code", "math1200", Requisites{{"MATH 1200"}}},
		{"flat or list", []any{"MATH 1200", "MATH 1201"}, Requisites{{"MATH 1200", "MATH 1201"}}},
		{"string slice", []string{"MATH 1200", "MATH 1201"}, Requisites{{"MATH 1200", "MATH 1201"}}},
		{
			"nested and of ors",
			[]any{[]any{"MATH 1200", "MATH 1201"}, "CS 1101"},
			Requisites{{"MATH 1200", "MATH 1201"}, {"CS 1101"}},
		},
		{
			"explicit and",
			map[string]any{"and": []any{"CS 1101", map[string]any{"or": []any{"MATH 1200", "MATH 1201"}}}},
			Requisites{{"CS 1101"}, {"MATH 1200", "MATH 1201"}},
		},
		{
			"or of ands distributes",
			map[string]any{"or": []any{
				map[string]any{"and": []any{"A 1000", "B 1000"}},
				"C 1000",
			}},
			Requisites{{"A 1000", "C 1000"}, {"B 1000", "C 1000"}},
		},
		{"expression", "MATH 1200 & (MATH 1300 || MATH 1301)", Requisites{{"MATH 1200"}, {"MATH 1300", "MATH 1301"}}},
		{"duplicates collapse", []any{"CS 1101", "cs 1101"}, Requisites{{"CS 1101"}}},
		{
			"list of expressions is an or",
			[]any{"A 1000 & B 1000", "C 1000"},
			Requisites{{"A 1000", "C 1000"}, {"B 1000", "C 1000"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRequisites(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRequisitesMalformed(t *testing.T) {
	for name, raw := range map[string]any{
		"number":           42,
		"bad code":         "not a course",
		"unknown operator": map[string]any{"xor": []any{"A 1000"}},
		"two keys":         map[string]any{"and": []any{"A 1000"}, "or": []any{"B 1000"}},
		"operand not list": map[string]any{"and": "A 1000"},
		"unbalanced":       "(A 1000 & B 1000",
		"dangling":         "A 1000 &",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeRequisites(raw)
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
}

func TestRequisitesHelpers(t *testing.T) {
	r := Requisites{{"MATH 1300", "MATH 1200"}, {"CS 1101"}, {"MATH 1200"}}
	assert.Equal(t, []string{"CS 1101", "MATH 1200", "MATH 1300"}, r.Courses())
	assert.Equal(t, "(MATH 1300 | MATH 1200) & CS 1101 & MATH 1200", r.String())
	assert.True(t, Requisites(nil).Empty())
}

func TestNewCourse(t *testing.T) {
	course, err := NewCourse(Record{
		CourseCode:    "cs3251",
		Title:         " Intermediate Software Design ",
		SubjectCode:   "CS",
		Credits:       3,
		Axle:          []any{"MNS", "HCA"},
		Prerequisites: "CS 2201",
	})
	require.NoError(t, err)

	assert.Equal(t, "CS 3251", course.Code)
	assert.Equal(t, "CS", course.Subject)
	assert.Equal(t, "3251", course.Number)
	assert.Equal(t, 3000, course.Level)
	assert.Equal(t, "Intermediate Software Design", course.Title)
	assert.True(t, course.HasTag("MNS"))
	assert.False(t, course.HasTag("SBS"))
	assert.Equal(t, Requisites{{"CS 2201"}}, course.Prerequisites)
	assert.True(t, course.Corequisites.Empty())
}

func TestNewCourseRejects(t *testing.T) {
	for name, record := range map[string]Record{
		"empty code":       {},
		"negative credits": {CourseCode: "CS 1101", Credits: -1},
		"negative level":   {CourseCode: "CS 1101", Level: -1000},
		"subject mismatch": {CourseCode: "CS 1101", SubjectCode: "MATH"},
		"bad requisites":   {CourseCode: "CS 1101", Prerequisites: 7},
		"bad axle":         {CourseCode: "CS 1101", Axle: 3},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewCourse(record)
			assert.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
}

func TestCatalogIndexes(t *testing.T) {
	cat, err := FromRecords([]Record{
		{CourseCode: "MATH 1300", Credits: 4, Prerequisites: "MATH 1200"},
		{CourseCode: "MATH 1200", Credits: 4, Axle: "MNS"},
		{CourseCode: "CS 2201", Credits: 3},
		{CourseCode: "CS 1101", Credits: 3, Axle: "MNS"},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, cat.Len())
	assert.Equal(t, "CS 1101", cat.All()[0].Code)
	assert.Equal(t, []string{"CS", "MATH"}, cat.Subjects())
	assert.Equal(t, []int{1000, 2000}, cat.Levels())
	assert.Len(t, cat.BySubject("MATH"), 2)
	assert.Len(t, cat.ByLevel(1000, ""), 3)
	assert.Len(t, cat.ByLevel(1000, "CS"), 1)
	assert.Len(t, cat.ByTag("MNS"), 2)

	course, ok := cat.Get("math1300")
	require.True(t, ok)
	assert.Equal(t, "MATH 1300", course.Code)

	_, err = cat.Lookup("PHYS 1601")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.Len(t, cat.Courses([]string{"CS 1101", "NOPE 1000", "CS 2201"}), 2)
}

func TestCatalogRejectsDuplicates(t *testing.T) {
	_, err := FromRecords([]Record{{CourseCode: "CS 1101"}, {CourseCode: "cs1101"}})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
- course_code: MATH 1200
  credits: 4
- course_code: MATH 1300
  credits: 4
  prerequisites:
    or:
      - MATH 1200
      - MATH 1201
`), 0o644))

	cat, err := Load(context.Background(), FileSource{Path: yamlPath}, nil)
	require.NoError(t, err)
	course, err := cat.Lookup("MATH 1300")
	require.NoError(t, err)
	assert.Equal(t, Requisites{{"MATH 1200", "MATH 1201"}}, course.Prerequisites)

	jsonPath := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"course_code":"CS 1101","credits":3,"corequisites":[["CS 1100"]]}]`), 0o644))
	cat, err = Load(context.Background(), FileSource{Path: jsonPath}, nil)
	require.NoError(t, err)
	course, err = cat.Lookup("CS 1101")
	require.NoError(t, err)
	assert.Equal(t, Requisites{{"CS 1100"}}, course.Corequisites)

	_, err = Load(context.Background(), FileSource{Path: filepath.Join(dir, "missing.json")}, nil)
	assert.Error(t, err)
}
