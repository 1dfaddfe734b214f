// Package hashchain implements the per-block rolling digest (§4.3) and the
// log bloom filter it folds into every transaction tuple.
package hashchain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// BloomBytes is the width of the log bloom filter: 2048 bits.
const BloomBytes = 256

// Bloom is the 2048-bit Bloom filter accumulated over the addresses and
// topics touched by a transaction's logs. Note this bit-indexing scheme is
// specific to this engine (three 11-bit windows carved out of the first six
// bytes of keccak(x)) and is not go-ethereum's standard bloom9 layout, even
// though it reuses go-ethereum's keccak implementation.
type Bloom [BloomBytes]byte

// Add folds a single 32-byte input (a padded address or a log topic) into
// the filter.
func (b *Bloom) Add(x common.Hash) {
	h := crypto.Keccak256(x[:])
	for i := 0; i < 3; i++ {
		idx := (uint16(h[2*i])<<8 | uint16(h[2*i+1])) & 0x07FF // low 11 bits, mod 2048
		byteIdx := idx / 8
		bitIdx := idx % 8
		b[byteIdx] |= 1 << bitIdx
	}
}

// AddLog folds one log's address and topics into the filter.
func (b *Bloom) AddLog(address common.Address, topics []common.Hash) {
	var padded common.Hash
	copy(padded[12:], address.Bytes())
	b.Add(padded)
	for _, t := range topics {
		b.Add(t)
	}
}

// Or returns the bitwise OR of a set of per-log blooms, i.e. the
// transaction-level bloom (§4.3: "Transaction bloom is the bitwise OR over
// all logs").
func Or(blooms ...Bloom) Bloom {
	var out Bloom
	for _, bl := range blooms {
		for i := range out {
			out[i] |= bl[i]
		}
	}
	return out
}

// Bytes returns the filter as a flat byte slice.
func (b Bloom) Bytes() []byte {
	out := make([]byte, BloomBytes)
	copy(out, b[:])
	return out
}
