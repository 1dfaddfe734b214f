package core

import (
	"github.com/aurora-is-near/engine-standalone/storage"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// blockRecord is the persisted shape of a BlockMessage (§3: "Created exactly
// once by a Block message; immutable thereafter"). Block writes bypass the
// per-transaction diff/view machinery entirely: they are not transactions,
// have no conditional persistence rule, and are always committed directly.
type blockRecord struct {
	Height     uint64
	Timestamp  uint64
	RandomSeed []byte
}

// saveBlock writes a block record directly to the store, refusing to
// overwrite an existing hash (blocks are immutable once admitted).
func saveBlock(store storage.Store, msg BlockMessage) error {
	key := storage.BlockRecordKey(msg.Hash)
	exists, err := store.Has(key)
	if err != nil {
		return wrapErr(ErrKindIo, err)
	}
	if exists {
		return nil
	}
	raw, err := rlp.EncodeToBytes(&blockRecord{
		Height:     msg.Height,
		Timestamp:  msg.Metadata.Timestamp,
		RandomSeed: msg.Metadata.RandomSeed[:],
	})
	if err != nil {
		return wrapErr(ErrKindIo, err)
	}
	if err := store.Put(key, raw); err != nil {
		return wrapErr(ErrKindIo, err)
	}
	return nil
}

// loadBlock resolves a block hash to its height and metadata (§4.1 step 2).
func loadBlock(store storage.Store, hash common.Hash) (*BlockMessage, error) {
	raw, err := store.Get(storage.BlockRecordKey(hash))
	if err != nil {
		return nil, wrapErr(ErrKindIo, err)
	}
	if raw == nil {
		return nil, ErrBlockNotFound
	}
	var rec blockRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, wrapErr(ErrKindIo, err)
	}
	msg := &BlockMessage{Hash: hash, Height: rec.Height, Metadata: BlockMetadata{Timestamp: rec.Timestamp}}
	copy(msg.Metadata.RandomSeed[:], rec.RandomSeed)
	return msg, nil
}
