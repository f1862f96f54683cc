package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/finnjohnston/enrollment/config"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, storeDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.DatabaseEnv, "")

	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args,
		"--catalog", "../testdata/catalog.json",
		"--programs", "../testdata/programs.json",
		"--policies", "../testdata/policies.yaml",
		"--store", storeDir,
		"--log-level", "error",
	))
	err := cmd.Execute()
	return out.String(), err
}

func TestGraphRequisites(t *testing.T) {
	out, err := execute(t, t.TempDir(), "graph", "requisites", "cs3281", "--dependents")
	require.NoError(t, err)
	assert.Contains(t, out, "CS 3281: Principles of Operating Systems I")
	assert.Contains(t, out, "prerequisites: (CS 3251) AND (CS 2231 OR EECE 2123)")
	assert.Contains(t, out, "unlocks: none")

	_, err = execute(t, t.TempDir(), "graph", "requisites", "CS 9999")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGraphPaths(t *testing.T) {
	out, err := execute(t, t.TempDir(), "graph", "paths", "MATH 3100", "--shortest")
	require.NoError(t, err)
	assert.Contains(t, out, "MATH 1301")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "-> MATH 3100"), out)

	out, err = execute(t, t.TempDir(), "graph", "between", "CS 1101", "CS 3281")
	require.NoError(t, err)
	assert.Equal(t, "CS 1101 -> CS 2201 -> CS 2231 -> CS 3281\n", out)
}

func TestGraphBetweenAll(t *testing.T) {
	out, err := execute(t, t.TempDir(), "graph", "between", "CS 1101", "CS 3281", "--all")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "CS 1101 -> CS 2201 -> CS 2231 -> CS 3281")
	assert.Contains(t, lines, "CS 1101 -> CS 2201 -> CS 3251 -> CS 3281")

	out, err = execute(t, t.TempDir(), "graph", "between", "CS 3281", "CS 1101", "--all")
	require.NoError(t, err)
	assert.Equal(t, "CS 3281 does not lead to CS 1101\n", out)
}

func TestAlternatives(t *testing.T) {
	out, err := execute(t, t.TempDir(), "alternatives", "math2300", "--program", "Mathematics", "--completed", "MATH 1300")
	require.NoError(t, err)
	assert.Contains(t, out, `"course": "MATH 2300"`)
	assert.Contains(t, out, `"Mathematics / Calculus"`)
	assert.Contains(t, out, `"Mathematics / Upper Division"`)
	assert.Contains(t, out, `"MATH 1301"`)
	assert.Contains(t, out, `"MATH 1200"`)
	assert.NotContains(t, out, `"MATH 2410"`)
}

func TestUnlocked(t *testing.T) {
	out, err := execute(t, t.TempDir(), "unlocked", "--program", "Computer Science", "--completed", "CS 1101")
	require.NoError(t, err)
	assert.Contains(t, out, `"Computer Science / Mathematics"`)
	assert.NotContains(t, out, `"Computer Science / Science"`)
	assert.NotContains(t, out, `"Computer Science / Computer Science Core"`)
}

func TestGraphStats(t *testing.T) {
	out, err := execute(t, t.TempDir(), "graph", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"nodes": 22`)
	assert.Contains(t, out, `"bottlenecks"`)
}

func TestEligible(t *testing.T) {
	out, err := execute(t, t.TempDir(), "eligible", "CS 2201", "CS 3251", "--completed", "CS 1101")
	require.NoError(t, err)
	assert.Contains(t, out, "CS 2201: eligible")
	assert.Contains(t, out, "CS 3251: not eligible")

	out, err = execute(t, t.TempDir(), "eligible", "--completed", "MATH 1300")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "MATH 1301")
	assert.Contains(t, lines, "CS 2212")
	assert.NotContains(t, lines, "MATH 1300")
	assert.NotContains(t, lines, "CS 2201")

	_, err = execute(t, t.TempDir(), "eligible", "--completed", "bogus")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRecommend(t *testing.T) {
	out, err := execute(t, t.TempDir(), "recommend", "--program", "mathematics", "--completed", "MATH 1300")
	require.NoError(t, err)
	assert.Contains(t, out, `"Mathematics / Calculus"`)
	assert.Contains(t, out, `"MATH 1301"`)
	assert.Contains(t, out, `"MATH 1200"`)
	assert.NotContains(t, out, `"MATH 2300"`)

	_, err = execute(t, t.TempDir(), "recommend", "--program", "Underwater Basket Weaving")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPlanLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "plan", "new", "--program", "Computer Science,Mathematics", "--semester", "Fall 2025")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = execute(t, dir, "plan", "list")
	require.NoError(t, err)
	assert.Equal(t, id+"\n", out)

	_, err = execute(t, dir, "plan", "complete", id, "CS 1101", "math1300")
	require.NoError(t, err)

	out, err = execute(t, dir, "plan", "assign", id, "MATH 1300", "Mathematics", "Calculus")
	require.NoError(t, err)
	assert.Contains(t, out, "Assigned MATH 1300 to Mathematics / Calculus")

	_, err = execute(t, dir, "plan", "assign", id, "MATH 1300", "computer science", "Mathematics")
	assert.ErrorIs(t, err, errs.ErrAssignmentRejected, "a non-core category cannot share with the minor")

	_, err = execute(t, dir, "plan", "assign", id, "CS 2201", "Computer Science", "Computer Science Core")
	assert.ErrorIs(t, err, errs.ErrAssignmentRejected, "only completed courses can be assigned")

	out, err = execute(t, dir, "plan", "enroll", id, "CS 2201")
	require.NoError(t, err)
	assert.Contains(t, out, "Enrolled in CS 2201 for Fall 2025")

	_, err = execute(t, dir, "plan", "enroll", id, "MATH 3100")
	assert.Error(t, err)

	out, err = execute(t, dir, "plan", "recommend", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"Computer Science / Computer Science Core"`)
	assert.Contains(t, out, `"CS 2212"`)

	out, err = execute(t, dir, "plan", "advance", id)
	require.NoError(t, err)
	assert.Equal(t, "Spring 2026\n", out)

	out, err = execute(t, dir, "plan", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"season": "Spring"`)
	assert.Contains(t, out, `"CS 2201"`)
	assert.Contains(t, out, `"Calculus"`)

	out, err = execute(t, dir, "plan", "validate", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"is_valid": true`)

	_, err = execute(t, dir, "plan", "delete", id)
	require.NoError(t, err)
	_, err = execute(t, dir, "plan", "show", id)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPlanNewRejectsBadSemester(t *testing.T) {
	_, err := execute(t, t.TempDir(), "plan", "new", "--program", "Mathematics", "--semester", "Winter 2025")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestImportNeedsDatabase(t *testing.T) {
	_, err := execute(t, t.TempDir(), "import")
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestPlanSchedule(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "plan", "new", "--program", "Mathematics", "--semester", "Fall 2025")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	out, err = execute(t, dir, "plan", "schedule", "show", id)
	require.NoError(t, err)
	assert.Equal(t, "nothing planned\n", out)

	_, err = execute(t, dir, "plan", "schedule", "add", id, "Spring 2026", "MATH 1300")
	require.NoError(t, err)
	out, err = execute(t, dir, "plan", "schedule", "show", id)
	require.NoError(t, err)
	assert.Equal(t, "Spring 2026: MATH 1300\n", out)

	_, err = execute(t, dir, "plan", "schedule", "add", id, "Spring 2024", "MATH 1200")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = execute(t, dir, "plan", "schedule", "remove", id, "Spring 2026", "MATH 1300")
	require.NoError(t, err)

	draft := "Fall 2025: MATH 1200, MATH 1300\nSpring 2026: MATH 1301\nFall 2026: MATH 2300\n"
	out, err = execute(t, dir, "plan", "schedule", "draft", id)
	require.NoError(t, err)
	assert.Equal(t, draft, out)
	out, err = execute(t, dir, "plan", "schedule", "show", id)
	require.NoError(t, err)
	assert.Equal(t, "nothing planned\n", out, "a draft is not saved without --apply")

	_, err = execute(t, dir, "plan", "schedule", "draft", id, "--apply")
	require.NoError(t, err)
	out, err = execute(t, dir, "plan", "schedule", "show", id)
	require.NoError(t, err)
	assert.Equal(t, draft, out)

	_, err = execute(t, dir, "plan", "schedule", "clear", id, "Fall 2026")
	require.NoError(t, err)
	out, err = execute(t, dir, "plan", "schedule", "show", id)
	require.NoError(t, err)
	assert.Equal(t, "Fall 2025: MATH 1200, MATH 1300\nSpring 2026: MATH 1301\n", out)
}
