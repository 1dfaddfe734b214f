// Package vm is the EVM façade contract (§4.4): a black-box boundary the
// replay core calls through without caring which concrete interpreter sits
// behind it, generalized from the teacher's build-tag-selected
// Go-EVM/REVM TxExecutor seam into a single pluggable Interpreter.
package vm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Env is the per-transaction execution environment (§3): read-only context
// a handler may consult but never mutate.
type Env struct {
	Signer          string
	Caller          string
	CurrentAccount  string
	BlockHeight     uint64
	BlockTimestamp  uint64
	AttachedDeposit *big.Int
	RandomSeed      [32]byte
	PrepaidGas      uint64
}

// Address is re-exported for callers that only need the EVM address type
// without importing go-ethereum/common directly.
type Address = common.Address

// Hash is re-exported for the same reason.
type Hash = common.Hash
