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

// Package rollset is the ordered address->rolls map the spec requires for
// roll_counts: an address never appears with a zero roll count, and
// iteration order is deterministic (address byte order), which matters for
// commitment-hash determinism when the store folds an ordered scheme.
package rollset

import (
	"github.com/google/btree"

	"github.com/parallelproof/node/address"
)

type entry struct {
	addr  address.Address
	rolls uint64
}

func (e entry) Less(than btree.Item) bool {
	return address.Less(e.addr, than.(entry).addr)
}

// Set is an ordered address->rolls map with the zero-entry-removed invariant.
type Set struct {
	tree *btree.BTree
}

// New returns an empty Set.
func New() *Set {
	return &Set{tree: btree.New(32)}
}

// Clone returns a deep copy of s.
func (s *Set) Clone() *Set {
	out := New()
	s.tree.Ascend(func(i btree.Item) bool {
		out.tree.ReplaceOrInsert(i.(entry))
		return true
	})
	return out
}

// Get returns the roll count for addr, or 0 if absent.
func (s *Set) Get(addr address.Address) uint64 {
	item := s.tree.Get(entry{addr: addr})
	if item == nil {
		return 0
	}
	return item.(entry).rolls
}

// Set sets addr's roll count, or removes the entry entirely if rolls is 0.
func (s *Set) Set(addr address.Address, rolls uint64) {
	if rolls == 0 {
		s.tree.Delete(entry{addr: addr})
		return
	}
	s.tree.ReplaceOrInsert(entry{addr: addr, rolls: rolls})
}

// Len returns the number of tracked (non-zero) addresses.
func (s *Set) Len() int { return s.tree.Len() }

// Ascend calls fn for every entry in ascending address order, stopping early
// if fn returns false.
func (s *Set) Ascend(fn func(addr address.Address, rolls uint64) bool) {
	s.tree.Ascend(func(i btree.Item) bool {
		e := i.(entry)
		return fn(e.addr, e.rolls)
	})
}

// Total returns the sum of all tracked roll counts.
func (s *Set) Total() uint64 {
	var total uint64
	s.Ascend(func(_ address.Address, rolls uint64) bool {
		total += rolls
		return true
	})
	return total
}
