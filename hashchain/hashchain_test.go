package hashchain

import (
	"math/big"
	"testing"

	"github.com/aurora-is-near/engine-standalone/state"
	"github.com/aurora-is-near/engine-standalone/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/require"
)

func newTestView() *state.View {
	return state.New(storage.Wrap(memorydb.New()), 1, 0, nil)
}

func TestAddBlockTxIsDeterministic(t *testing.T) {
	mk := func() *State {
		return &State{ChainID: big.NewInt(1313161554), EngineAccount: []byte("aurora")}
	}

	a, b := mk(), mk()
	var bloom Bloom
	bloom.AddLog(common.Address{1}, nil)

	require.NoError(t, a.AddBlockTx(1, "submit", []byte("in"), []byte("out"), bloom))
	require.NoError(t, b.AddBlockTx(1, "submit", []byte("in"), []byte("out"), bloom))
	require.Equal(t, a.CurrentAccumulator, b.CurrentAccumulator,
		"identical (method, input, output, bloom) tuples must fold to the same accumulator")
}

func TestAddBlockTxRejectsPastHeight(t *testing.T) {
	s := &State{ChainID: big.NewInt(1), EngineAccount: []byte("aurora"), CurrentBlockHeight: 5}
	require.ErrorIs(t, s.AddBlockTx(4, "submit", nil, nil, Bloom{}), ErrBlockHeightInThePast)
}

func TestMoveToBlockRollsForwardAcrossEmptyBlocks(t *testing.T) {
	direct := &State{ChainID: big.NewInt(1), EngineAccount: []byte("aurora")}
	direct.MoveToBlock(5)

	stepwise := &State{ChainID: big.NewInt(1), EngineAccount: []byte("aurora")}
	stepwise.MoveToBlock(1)
	stepwise.MoveToBlock(2)
	stepwise.MoveToBlock(3)
	stepwise.MoveToBlock(4)
	stepwise.MoveToBlock(5)

	require.Equal(t, direct.PreviousBlockHashchain, stepwise.PreviousBlockHashchain,
		"rolling forward across empty blocks one at a time must match jumping straight there")
}

func TestStartSeedsThenRollsForwardToCurrentHeight(t *testing.T) {
	var seed [32]byte
	copy(seed[:], []byte("seed-hash"))

	s := Start(big.NewInt(1), []byte("aurora"), 10, seed, 15)
	require.EqualValues(t, 15, s.CurrentBlockHeight)

	fresh := Start(big.NewInt(1), []byte("aurora"), 10, seed, 10)
	require.EqualValues(t, 11, fresh.CurrentBlockHeight, "want seed height + 1 when current == seed height")
	require.Equal(t, seed, fresh.PreviousBlockHashchain,
		"a seed with nothing to roll forward across keeps the seed hashchain verbatim")
}

func TestLoadReturnsErrNotFoundBeforeStartHashchain(t *testing.T) {
	v := newTestView()
	_, err := Load(v)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	v := newTestView()
	var seed [32]byte
	copy(seed[:], []byte("seed"))
	s := Start(big.NewInt(1313161554), []byte("aurora"), 0, seed, 0)
	require.NoError(t, s.AddBlockTx(1, "submit", []byte("in"), []byte("out"), Bloom{}))
	require.NoError(t, Save(v, s))

	got, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, s.CurrentAccumulator, got.CurrentAccumulator)
	require.Zero(t, got.ChainID.Cmp(s.ChainID))
}
