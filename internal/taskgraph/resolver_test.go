package taskgraph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func deadline(t time.Time) *time.Time { return &t }

func TestResolver_Order(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	t.Run("prerequisites precede dependents", func(t *testing.T) {
		t.Parallel()
		r, err := NewResolver([]Task{
			{ID: "deploy", Awaiting: []TaskID{"build", "review"}},
			{ID: "build"},
			{ID: "review", Awaiting: []TaskID{"build"}},
		})
		require.NoError(t, err)

		order, err := r.Order()
		require.NoError(t, err)
		require.Equal(t, []TaskID{"build", "review", "deploy"}, order)
	})

	t.Run("deadline breaks ties among unordered tasks", func(t *testing.T) {
		t.Parallel()
		r, err := NewResolver([]Task{
			{ID: "later", Deadline: deadline(anchor.Add(48 * time.Hour))},
			{ID: "none"},
			{ID: "soon", Deadline: deadline(anchor.Add(2 * time.Hour))},
		})
		require.NoError(t, err)

		order, err := r.Order()
		require.NoError(t, err)
		require.Equal(t, []TaskID{"soon", "later", "none"}, order)
	})

	t.Run("deadline-free tasks keep input order", func(t *testing.T) {
		t.Parallel()
		r, err := NewResolver([]Task{{ID: "b"}, {ID: "a"}, {ID: "c"}})
		require.NoError(t, err)

		order, err := r.Order()
		require.NoError(t, err)
		require.Equal(t, []TaskID{"b", "a", "c"}, order)
	})

	t.Run("duplicate and self edges are tolerated", func(t *testing.T) {
		t.Parallel()
		r, err := NewResolver([]Task{
			{ID: "a"},
			{ID: "b", Awaiting: []TaskID{"a", "a", "b"}},
		})
		require.NoError(t, err)

		order, err := r.Order()
		require.NoError(t, err)
		require.Equal(t, []TaskID{"a", "b"}, order)
	})

	t.Run("cycle aborts and names its members", func(t *testing.T) {
		t.Parallel()
		r, err := NewResolver([]Task{
			{ID: "standalone"},
			{ID: "a", Awaiting: []TaskID{"c"}},
			{ID: "b", Awaiting: []TaskID{"a"}},
			{ID: "c", Awaiting: []TaskID{"b"}},
		})
		require.NoError(t, err)

		_, err = r.Order()
		var cyclic *CyclicDependencyError
		require.ErrorAs(t, err, &cyclic)
		require.ElementsMatch(t, []TaskID{"a", "b", "c"}, cyclic.Cycle)
		require.Contains(t, err.Error(), "cyclic dependency")
	})

	t.Run("unknown prerequisite fails indexing", func(t *testing.T) {
		t.Parallel()
		_, err := NewResolver([]Task{{ID: "a", Awaiting: []TaskID{"ghost"}}})
		var unknown *UnknownTaskError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, TaskID("a"), unknown.Task)
		require.Equal(t, TaskID("ghost"), unknown.Missing)
	})
}

func TestResolver_Task(t *testing.T) {
	t.Parallel()

	r, err := NewResolver([]Task{{ID: "a", Title: "first"}})
	require.NoError(t, err)

	got, ok := r.Task("a")
	require.True(t, ok)
	require.Equal(t, "first", got.Title)

	_, ok = r.Task("missing")
	require.False(t, ok)
}
