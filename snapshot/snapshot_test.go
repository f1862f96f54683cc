package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	mu      sync.Mutex
	records []catalog.Record
	err     error
}

func (s *staticSource) Records(ctx context.Context) ([]catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records, s.err
}

func (s *staticSource) set(records []catalog.Record, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records, s.err = records, err
}

func TestReloadSwapsSnapshot(t *testing.T) {
	source := &staticSource{records: []catalog.Record{
		{CourseCode: "MATH 1200", Credits: 4},
		{CourseCode: "MATH 1300", Credits: 4, Prerequisites: "MATH 1200"},
	}}
	holder := NewHolder(source, graph.EligibilityOptions{}, nil)
	assert.Nil(t, holder.Current())

	var seen []uint64
	holder.OnReload(func(s *Snapshot) { seen = append(seen, s.Version) })

	first, err := holder.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Version)
	assert.Same(t, first, holder.Current())
	assert.Equal(t, []string{"MATH 1200"}, first.Graph.Prerequisites("MATH 1300"))

	source.set([]catalog.Record{{CourseCode: "MATH 1200", Credits: 4}}, nil)
	second, err := holder.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Version)
	assert.False(t, second.Graph.Has("MATH 1300"))
	assert.True(t, first.Graph.Has("MATH 1300"), "old snapshot is untouched")

	source.set(nil, errors.New("database unavailable"))
	_, err = holder.Reload(context.Background())
	assert.Error(t, err)
	assert.Same(t, second, holder.Current())
	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestHolderGetFollowsReloads(t *testing.T) {
	source := &staticSource{records: []catalog.Record{{CourseCode: "MATH 1200", Credits: 4}}}
	holder := NewHolder(source, graph.EligibilityOptions{}, nil)

	_, ok := holder.Get("MATH 1200")
	assert.False(t, ok, "nothing loaded yet")

	_, err := holder.Reload(context.Background())
	require.NoError(t, err)
	course, ok := holder.Get("MATH 1200")
	require.True(t, ok)
	assert.Equal(t, 4, course.Credits)

	source.set([]catalog.Record{{CourseCode: "MATH 1200", Credits: 3}, {CourseCode: "MATH 1300", Credits: 4}}, nil)
	_, err = holder.Reload(context.Background())
	require.NoError(t, err)
	course, ok = holder.Get("MATH 1200")
	require.True(t, ok)
	assert.Equal(t, 3, course.Credits)
	_, ok = holder.Get("MATH 1300")
	assert.True(t, ok)
}

func TestReloadRejectsInvalidCatalog(t *testing.T) {
	source := &staticSource{records: []catalog.Record{{CourseCode: "MATH 1200"}, {CourseCode: "math1200"}}}
	holder := NewHolder(source, graph.EligibilityOptions{}, nil)
	_, err := holder.Reload(context.Background())
	assert.Error(t, err)
	assert.Nil(t, holder.Current())
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"course_code": "CS 1101", "credits": 3}]`), 0o644))

	holder := NewHolder(catalog.FileSource{Path: path}, graph.EligibilityOptions{}, nil)
	_, err := holder.Reload(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- holder.Watch(ctx, []string{path}, 20*time.Millisecond) }()

	require.Eventually(t, func() bool {
		data := `[{"course_code": "CS 1101", "credits": 3}, {"course_code": "CS 2201", "credits": 3, "prerequisites": "CS 1101"}]`
		_ = os.WriteFile(path, []byte(data), 0o644)
		current := holder.Current()
		return current.Version > 1 && current.Graph.Has("CS 2201")
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
