package hashchain

import (
	"errors"
	"math/big"

	"github.com/aurora-is-near/engine-standalone/storage"
	auroraState "github.com/aurora-is-near/engine-standalone/state"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
)

// ErrNotFound is returned when no hashchain state has been initialized yet
// (i.e. `start_hashchain` has never run). The engine is explicitly allowed
// to operate without a hashchain until that point (§9).
var ErrNotFound = errors.New("hashchain: not found")

// ErrBlockHeightInThePast is returned by AddBlockTx when asked to fold a
// transaction into a height strictly below the chain's current open block.
var ErrBlockHeightInThePast = errors.New("hashchain: block height in the past")

// State is the per-engine hashchain record (§3, §4.3).
type State struct {
	ChainID                *big.Int
	EngineAccount          []byte
	CurrentBlockHeight     uint64
	PreviousBlockHashchain [32]byte
	CurrentAccumulator     [32]byte
}

type rlpState struct {
	ChainID                *big.Int
	EngineAccount          []byte
	CurrentBlockHeight     uint64
	PreviousBlockHashchain []byte
	CurrentAccumulator     []byte
}

func (s *State) encode() ([]byte, error) {
	return rlp.EncodeToBytes(&rlpState{
		ChainID:                s.ChainID,
		EngineAccount:          s.EngineAccount,
		CurrentBlockHeight:     s.CurrentBlockHeight,
		PreviousBlockHashchain: s.PreviousBlockHashchain[:],
		CurrentAccumulator:     s.CurrentAccumulator[:],
	})
}

func decode(data []byte) (*State, error) {
	var w rlpState
	if err := rlp.DecodeBytes(data, &w); err != nil {
		return nil, err
	}
	s := &State{ChainID: w.ChainID, EngineAccount: w.EngineAccount, CurrentBlockHeight: w.CurrentBlockHeight}
	copy(s.PreviousBlockHashchain[:], w.PreviousBlockHashchain)
	copy(s.CurrentAccumulator[:], w.CurrentAccumulator)
	return s, nil
}

// Load reads the hashchain state through v, returning ErrNotFound if absent.
func Load(v *auroraState.View) (*State, error) {
	raw, err := v.Get(storage.HashchainStateKey())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	return decode(raw)
}

// Save stages the hashchain state write into v's diff.
func Save(v *auroraState.View, s *State) error {
	raw, err := s.encode()
	if err != nil {
		return err
	}
	v.Put(storage.HashchainStateKey(), raw)
	return nil
}

// blockDigest computes keccak(chain_id || engine_account || height || prev || acc),
// the digest closing out a block (§4.3, move_to_block).
func blockDigest(chainID *big.Int, engineAccount []byte, height uint64, prev, acc [32]byte) [32]byte {
	var heightBuf [8]byte
	putUint64BE(heightBuf[:], height)
	data := make([]byte, 0, 32+len(engineAccount)+8+32+32)
	data = append(data, padChainID(chainID)...)
	data = append(data, engineAccount...)
	data = append(data, heightBuf[:]...)
	data = append(data, prev[:]...)
	data = append(data, acc[:]...)
	var out [32]byte
	copy(out[:], crypto.Keccak256(data))
	return out
}

func padChainID(id *big.Int) []byte {
	var out [32]byte
	id.FillBytes(out[:])
	return out[:]
}

func putUint64BE(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// MoveToBlock closes the currently-open block and rolls forward across every
// empty block up to, but not including, newHeight (§4.3).
func (s *State) MoveToBlock(newHeight uint64) {
	digest := blockDigest(s.ChainID, s.EngineAccount, s.CurrentBlockHeight, s.PreviousBlockHashchain, s.CurrentAccumulator)
	s.PreviousBlockHashchain = digest

	for h := s.CurrentBlockHeight + 1; h < newHeight; h++ {
		var zero [32]byte
		s.PreviousBlockHashchain = blockDigest(s.ChainID, s.EngineAccount, h, s.PreviousBlockHashchain, zero)
	}

	s.CurrentAccumulator = [32]byte{}
	s.CurrentBlockHeight = newHeight
}

// AddBlockTx folds one transaction tuple into the hashchain (§4.3).
func (s *State) AddBlockTx(height uint64, method string, input, output []byte, bloom Bloom) error {
	if height < s.CurrentBlockHeight {
		return ErrBlockHeightInThePast
	}
	if height > s.CurrentBlockHeight {
		s.MoveToBlock(height)
	}

	data := make([]byte, 0, len(method)+len(input)+len(output)+BloomBytes)
	data = append(data, []byte(method)...)
	data = append(data, input...)
	data = append(data, output...)
	data = append(data, bloom[:]...)
	txHash := crypto.Keccak256(data)

	acc := crypto.Keccak256(append(append([]byte{}, s.CurrentAccumulator[:]...), txHash...))
	copy(s.CurrentAccumulator[:], acc)

	log.Debug("hashchain: folded transaction", "height", height, "method", method)
	return nil
}

// Start initializes the hashchain at (seedHeight+1, seedHashchain, 0), then
// rolls forward to currentRuntimeHeight (§4.3, start_hashchain).
func Start(chainID *big.Int, engineAccount []byte, seedHeight uint64, seedHashchain [32]byte, currentRuntimeHeight uint64) *State {
	s := &State{
		ChainID:                chainID,
		EngineAccount:          engineAccount,
		CurrentBlockHeight:     seedHeight + 1,
		PreviousBlockHashchain: seedHashchain,
	}
	if currentRuntimeHeight > s.CurrentBlockHeight {
		s.MoveToBlock(currentRuntimeHeight)
	}
	return s
}
