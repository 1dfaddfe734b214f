package state

import (
	"testing"

	"github.com/aurora-is-near/engine-standalone/storage"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/require"
)

func newTestView() *View {
	return New(storage.Wrap(memorydb.New()), 1, 0, nil)
}

func TestViewPutShadowsStoreUntilCommitted(t *testing.T) {
	v := newTestView()
	v.Put([]byte("k"), []byte("v"))

	got, err := v.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, "v", string(got))

	has, err := v.store.Has([]byte("k"))
	require.NoError(t, err)
	require.False(t, has, "underlying store must not observe an uncommitted write")
}

func TestViewDeleteShadowsStoredValue(t *testing.T) {
	store := storage.Wrap(memorydb.New())
	require.NoError(t, store.Put([]byte("k"), []byte("v")))

	v := New(store, 1, 0, nil)
	v.Delete([]byte("k"))

	got, err := v.Get([]byte("k"))
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestViewNextPromiseResult(t *testing.T) {
	v := New(storage.Wrap(memorydb.New()), 1, 0, [][]byte{[]byte("r0"), nil, []byte("r2")})

	r, ok := v.NextPromiseResult()
	require.True(t, ok)
	require.Equal(t, "r0", string(r))

	r, ok = v.NextPromiseResult()
	require.False(t, ok)
	require.Nil(t, r)

	r, ok = v.NextPromiseResult()
	require.True(t, ok)
	require.Equal(t, "r2", string(r))

	_, ok = v.NextPromiseResult()
	require.False(t, ok, "want false once promise results are exhausted")
}
