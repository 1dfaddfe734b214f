package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffEntriesAreLexicographicallyOrdered(t *testing.T) {
	d := NewDiff()
	d.Set([]byte("b"), []byte("2"))
	d.Set([]byte("a"), []byte("1"))
	d.Set([]byte("c"), []byte("3"))

	entries := d.Entries()
	require.Len(t, entries, 3)
	want := []string{"a", "b", "c"}
	for i, w := range want {
		require.Equal(t, w, string(entries[i].Key))
	}
}

func TestDiffDeleteShadowsEarlierSet(t *testing.T) {
	d := NewDiff()
	d.Set([]byte("k"), []byte("v"))
	d.Delete([]byte("k"))

	op, ok := d.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, OpDelete, op.Kind)
}

func TestDiffMergeLetsOtherWin(t *testing.T) {
	d := NewDiff()
	d.Set([]byte("k"), []byte("old"))

	other := NewDiff()
	other.Set([]byte("k"), []byte("new"))
	d.Merge(other)

	op, ok := d.Get([]byte("k"))
	require.True(t, ok)
	require.Equal(t, "new", string(op.Value))
}

func TestEqualDetectsDivergence(t *testing.T) {
	a := NewDiff()
	a.Set([]byte("k"), []byte("v"))
	b := NewDiff()
	b.Set([]byte("k"), []byte("v"))
	require.True(t, Equal(a, b))

	b.Set([]byte("k"), []byte("v2"))
	require.False(t, Equal(a, b))
}
