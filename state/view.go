// Package state implements the scoped, diff-capturing read/write handle
// (§4, "State-access view") that every dispatcher handler executes against,
// plus the engine-state record it guards.
package state

import (
	"bytes"

	"github.com/aurora-is-near/engine-standalone/storage"
)

// View is a short-lived, uniquely-owned handle over the byte-map store. It
// is created at the start of a transaction and discarded at the end; every
// mutation lands in its Diff, never in the underlying Store, so the driver
// alone decides whether the diff is ever committed (§4.1 persistence rule).
//
// Reads are served from the pending diff first, falling back to the
// underlying store. Get records every read that falls through to the store,
// so a caller can audit which stored values a replay read; Has lookups are
// not recorded.
type View struct {
	store    storage.Store
	diff     *Diff
	reads    map[string][]byte
	height   uint64
	position uint16
	promises [][]byte
	nextProm int
}

// New opens a view over store, scoped to (height, position), seeded with the
// lazy vector of promise results supplied upfront by the message.
func New(store storage.Store, height uint64, position uint16, promiseResults [][]byte) *View {
	return &View{
		store:    store,
		diff:     NewDiff(),
		reads:    make(map[string][]byte),
		height:   height,
		position: position,
		promises: promiseResults,
	}
}

// Height and Position report the view's scope.
func (v *View) Height() uint64    { return v.height }
func (v *View) Position() uint16  { return v.position }

// Get reads key, consulting the pending diff before falling back to the
// underlying store. A pending delete shadows the stored value.
func (v *View) Get(key []byte) ([]byte, error) {
	if op, ok := v.diff.Get(key); ok {
		switch op.Kind {
		case OpDelete:
			return nil, nil
		default:
			return op.Value, nil
		}
	}
	val, err := v.store.Get(key)
	if err != nil {
		return nil, err
	}
	v.reads[string(key)] = val
	return val, nil
}

// Has reports whether key currently resolves to a value (pending or stored).
func (v *View) Has(key []byte) (bool, error) {
	if op, ok := v.diff.Get(key); ok {
		return op.Kind == OpSet, nil
	}
	return v.store.Has(key)
}

// Put stages a write; it is not visible to the underlying store until the
// driver commits the view's diff.
func (v *View) Put(key, value []byte) {
	v.diff.Set(key, value)
}

// Delete stages a deletion.
func (v *View) Delete(key []byte) {
	v.diff.Delete(key)
}

// GetTransactionDiff returns the diff accumulated so far, ordered by raw key
// bytes (§4.5, §9).
func (v *View) GetTransactionDiff() *Diff {
	return v.diff
}

// Reads returns the keys Get read from the underlying store, with the
// values it saw, for determinism auditing.
func (v *View) Reads() map[string][]byte {
	return v.reads
}

// NextPromiseResult pops the next promise result in creation order. A
// missing index (upstream never supplied one) yields (nil, false) rather
// than an error: the original chain's promise scheduler can legitimately
// leave a slot empty.
func (v *View) NextPromiseResult() ([]byte, bool) {
	if v.nextProm >= len(v.promises) {
		return nil, false
	}
	res := v.promises[v.nextProm]
	v.nextProm++
	return res, res != nil
}

// Equal reports whether two diffs are byte-identical, used by determinism
// tests (§8, property 1).
func Equal(a, b *Diff) bool {
	ea, eb := a.Entries(), b.Entries()
	if len(ea) != len(eb) {
		return false
	}
	for i := range ea {
		if !bytes.Equal(ea[i].Key, eb[i].Key) || ea[i].Op.Kind != eb[i].Op.Kind || !bytes.Equal(ea[i].Op.Value, eb[i].Op.Value) {
			return false
		}
	}
	return true
}
