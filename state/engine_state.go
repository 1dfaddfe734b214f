package state

import (
	"math/big"

	"github.com/aurora-is-near/engine-standalone/storage"
	"github.com/ethereum/go-ethereum/rlp"
)

// AccountID is an upstream-chain account identifier (e.g. "relay.aurora").
// It is kept as a plain string rather than a fixed-width type because the
// upstream chain's account namespace is variable-length ASCII, unlike an EVM
// address.
type AccountID = string

// EIP1559Params holds the subset of fee-market parameters the engine needs
// to reason about base fee evolution across blocks.
type EIP1559Params struct {
	BaseFeePerGas   *big.Int
	ElasticityMultiplier uint64
	BaseFeeMaxChangeDenominator uint64
}

// rlpEIP1559Params is the wire-shape used for RLP encoding; *big.Int encodes
// fine directly, kept as a separate type only for documentation purposes.
type rlpEIP1559Params struct {
	BaseFeePerGas               *big.Int
	ElasticityMultiplier        uint64
	BaseFeeMaxChangeDenominator uint64
}

// EngineState is the single administrative record (§3) modified only by
// admin transaction kinds.
type EngineState struct {
	ChainID           *big.Int
	Owner             AccountID
	BridgeProver      AccountID
	UpgradeDelayBlocks uint64
	Paused            bool
	KeyManager        *AccountID
	FeeParams         EIP1559Params
}

type rlpEngineState struct {
	ChainID            *big.Int
	Owner              string
	BridgeProver       string
	UpgradeDelayBlocks uint64
	Paused             bool
	HasKeyManager      bool
	KeyManager         string
	FeeParams          rlpEIP1559Params
}

// Encode serializes the engine state deterministically via RLP, the
// encoding the teacher's stack uses for every other chain-state record.
func (e *EngineState) Encode() ([]byte, error) {
	w := rlpEngineState{
		ChainID:            e.ChainID,
		Owner:              e.Owner,
		BridgeProver:       e.BridgeProver,
		UpgradeDelayBlocks: e.UpgradeDelayBlocks,
		Paused:             e.Paused,
		FeeParams: rlpEIP1559Params{
			BaseFeePerGas:               e.FeeParams.BaseFeePerGas,
			ElasticityMultiplier:        e.FeeParams.ElasticityMultiplier,
			BaseFeeMaxChangeDenominator: e.FeeParams.BaseFeeMaxChangeDenominator,
		},
	}
	if e.KeyManager != nil {
		w.HasKeyManager = true
		w.KeyManager = *e.KeyManager
	}
	return rlp.EncodeToBytes(&w)
}

// DecodeEngineState parses bytes produced by Encode.
func DecodeEngineState(data []byte) (*EngineState, error) {
	var w rlpEngineState
	if err := rlp.DecodeBytes(data, &w); err != nil {
		return nil, err
	}
	e := &EngineState{
		ChainID:            w.ChainID,
		Owner:              w.Owner,
		BridgeProver:       w.BridgeProver,
		UpgradeDelayBlocks: w.UpgradeDelayBlocks,
		Paused:             w.Paused,
		FeeParams: EIP1559Params{
			BaseFeePerGas:               w.FeeParams.BaseFeePerGas,
			ElasticityMultiplier:        w.FeeParams.ElasticityMultiplier,
			BaseFeeMaxChangeDenominator: w.FeeParams.BaseFeeMaxChangeDenominator,
		},
	}
	if w.HasKeyManager {
		km := w.KeyManager
		e.KeyManager = &km
	}
	return e, nil
}

// LoadEngineState reads and decodes the engine state through a View, or
// returns (nil, ErrEngineStateNotFound) if it has never been written.
func LoadEngineState(v *View) (*EngineState, error) {
	raw, err := v.Get(storage.EngineStateKey())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrEngineStateNotFound
	}
	return DecodeEngineState(raw)
}

// SaveEngineState stages the engine state write into the view's diff.
func SaveEngineState(v *View, e *EngineState) error {
	raw, err := e.Encode()
	if err != nil {
		return err
	}
	v.Put(storage.EngineStateKey(), raw)
	return nil
}

// LoadPrecompileMask reads the independently-paused precompile bitmask.
func LoadPrecompileMask(v *View) (uint64, error) {
	raw, err := v.Get(storage.PausedMaskKey())
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	var mask uint64
	if err := rlp.DecodeBytes(raw, &mask); err != nil {
		return 0, err
	}
	return mask, nil
}

// SavePrecompileMask stages the precompile pause bitmask write.
func SavePrecompileMask(v *View, mask uint64) error {
	raw, err := rlp.EncodeToBytes(mask)
	if err != nil {
		return err
	}
	v.Put(storage.PausedMaskKey(), raw)
	return nil
}
