// Package storage defines the byte-map store contract that backs the
// replay core. The store itself is an external collaborator (§1 of the
// spec): this package only fixes the interface and the key-space layout
// that every other package in this module writes through.
package storage

import (
	"github.com/ethereum/go-ethereum/ethdb"
)

// Store is the byte-map contract the replay core requires of its
// persistence layer: get/put/delete over opaque keys, no range scans.
// It is satisfied directly by github.com/ethereum/go-ethereum/ethdb.KeyValueStore
// (and therefore by ethdb/memorydb.New() in tests), so the core never has to
// ship its own storage engine.
type Store interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
}

// kv adapts an ethdb.KeyValueStore to Store.
type kv struct {
	db ethdb.KeyValueStore
}

// Wrap adapts a go-ethereum key-value store to the Store contract used
// throughout this module.
func Wrap(db ethdb.KeyValueStore) Store {
	return kv{db: db}
}

func (k kv) Get(key []byte) ([]byte, error) {
	ok, err := k.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return k.db.Get(key)
}

func (k kv) Put(key []byte, value []byte) error { return k.db.Put(key, value) }

func (k kv) Delete(key []byte) error { return k.db.Delete(key) }

func (k kv) Has(key []byte) (bool, error) { return k.db.Has(key) }
