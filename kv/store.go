// Copyright 2026 The Parallelproof Authors
// This file is part of Parallelproof.
//
// Parallelproof is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Parallelproof is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Parallelproof. If not, see <http://www.gnu.org/licenses/>.

// Package kv is the core's view of its key/value storage: an ordered store
// with column families, prefix iteration, atomic write-batches, and named
// checkpoints. The concrete engine (kv/boltdb) is an implementation detail;
// every sub-component speaks only this interface.
package kv

import (
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/xhash"
)

// Tx is a read-only, point-in-time view of the store.
type Tx interface {
	Get(table string, key []byte) ([]byte, error)
	Has(table string, key []byte) (bool, error)
	// ForPrefix calls fn for every key in table starting with prefix, in
	// ascending key order, until fn returns false or an error.
	ForPrefix(table string, prefix []byte, fn func(k, v []byte) (bool, error)) error
}

// Op is one write in a WriteBatch. A nil Value means delete.
type Op struct {
	Table string
	Key   []byte
	Value []byte
}

// WriteBatch is a value object assembled by sub-components'
// apply_changes_to_batch and committed atomically by FinalState.
type WriteBatch struct {
	Ops []Op
}

// NewWriteBatch returns an empty batch.
func NewWriteBatch() *WriteBatch { return &WriteBatch{} }

// Put appends a set operation.
func (b *WriteBatch) Put(table string, key, value []byte) {
	b.Ops = append(b.Ops, Op{Table: table, Key: append([]byte(nil), key...), Value: append([]byte(nil), value...)})
}

// Delete appends a delete operation.
func (b *WriteBatch) Delete(table string, key []byte) {
	b.Ops = append(b.Ops, Op{Table: table, Key: append([]byte(nil), key...), Value: nil})
}

// Store is the KVStore contract the final-state core depends on.
type Store interface {
	// View runs fn against a consistent, point-in-time read snapshot.
	View(fn func(tx Tx) error) error

	// CommitBatch applies b atomically, tags the write with slot as the new
	// change-id, and recomputes the composed commitment hash either as a
	// commutative XOR fold (onlyXOR) or an order-sensitive Merkle fold.
	CommitBatch(b *WriteBatch, slot timeslot.Slot, onlyXOR bool) (xhash.Hash, error)

	// ChangeID returns the slot tagged by the most recent CommitBatch.
	ChangeID() (timeslot.Slot, bool, error)

	// SetChangeID forcibly sets the change-id without touching any table;
	// used by reset to rewind to the pre-genesis anchor.
	SetChangeID(slot timeslot.Slot) error

	// CommittedHash returns the most recently committed composed hash.
	CommittedHash() (xhash.Hash, error)

	// DeletePrefix removes every key in table starting with prefix.
	DeletePrefix(table string, prefix []byte) error

	// Checkpoint takes a named, consistent point-in-time backup.
	Checkpoint(name string) error

	// Close releases the underlying handle.
	Close() error
}
