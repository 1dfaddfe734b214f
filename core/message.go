// Package core implements the replay driver and transaction dispatcher
// (§4.1-§4.2 of spec.md): the message types consumed from the upstream
// chain, the ~30-variant closed transaction-kind sum type, and the error
// taxonomy that every handler reports through.
package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Message is the closed sum type consumed by Consume: either a Block or a
// Transaction. Modeled as an interface with an unexported marker method
// rather than a tagged struct, matching how the teacher's own core package
// distinguishes its system-call messages (ProcessBeaconBlockRoot,
// ProcessParentBlockHash, ...) by constructing distinct *Message values for
// distinct call sites rather than branching on a flag field.
type Message interface {
	isMessage()
}

// BlockMetadata carries the attributes a Block message supplies beyond its
// hash and height (§3).
type BlockMetadata struct {
	Timestamp  uint64
	RandomSeed [32]byte
}

// BlockMessage announces a new block header (§3, §4.1). Block(hash, height,
// metadata) is created exactly once per hash; it is immutable thereafter.
type BlockMessage struct {
	Hash     common.Hash
	Height   uint64
	Metadata BlockMetadata
}

func (BlockMessage) isMessage() {}

// TransactionMessage carries one upstream transaction to replay (§3).
type TransactionMessage struct {
	NearReceiptID   [32]byte
	BlockHash       common.Hash
	Position        uint16
	Signer          string
	Caller          string
	AttachedDeposit *big.Int
	Kind            TransactionKind
	Succeeded       bool
	PromiseResults  [][]byte
}

func (*TransactionMessage) isMessage() {}
