package container

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/arnegard/ssaforge/internal/testing/require"
)

func TestOrderedMapInsertGetOrder(t *testing.T) {
	m := NewOrderedMap[int, string]()
	keys := []int{50, 10, 90, 30, 70, 20, 60, 40, 80, 5, 15, 100, 1}
	for _, k := range keys {
		m.Insert(k, "v")
	}
	require.Equal(t, len(keys), m.Len())

	var got []int
	m.All(func(k int, _ string) bool {
		got = append(got, k)
		return true
	})
	sorted := append([]int(nil), keys...)
	sort.Ints(sorted)
	require.Equal(t, sorted, got)
}

func TestOrderedMapOverwriteAndRemove(t *testing.T) {
	m := NewOrderedMap[int, int]()
	m.Insert(1, 100)
	m.Insert(1, 200)
	v, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, 200, v)
	require.Equal(t, 1, m.Len())

	require.True(t, m.Remove(1))
	_, ok = m.Get(1)
	require.False(t, ok)
	require.False(t, m.Remove(1))
}

func TestOrderedMapRange(t *testing.T) {
	m := NewOrderedMap[int, int]()
	for i := 0; i < 50; i++ {
		m.Insert(i, i*i)
	}
	var got []int
	m.Range(10, 20, func(k, v int) bool {
		got = append(got, k)
		return true
	})
	var want []int
	for i := 10; i < 20; i++ {
		want = append(want, i)
	}
	require.Equal(t, want, got)
}

func TestOrderedMapRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := NewOrderedMap[int, int]()
	ref := map[int]int{}
	for i := 0; i < 2000; i++ {
		k := rng.Intn(500)
		v := rng.Int()
		m.Insert(k, v)
		ref[k] = v
	}
	require.Equal(t, len(ref), m.Len())
	for k, v := range ref {
		got, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet[string]()
	s.Insert("b")
	s.Insert("a")
	s.Insert("c")
	require.Equal(t, 3, s.Len())
	require.True(t, s.Contains("a"))

	var got []string
	s.All(func(k string) bool {
		got = append(got, k)
		return true
	})
	require.Equal(t, []string{"a", "b", "c"}, got)

	s.BulkClear([]string{"a", "c"})
	require.Equal(t, 1, s.Len())
	require.False(t, s.Contains("a"))
	require.True(t, s.Contains("b"))
}
