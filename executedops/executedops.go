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

// Package executedops is the dedup window of operation ids the core has
// already executed, used to reject replays. Its pruning policy is out of
// scope; this owns the executed_ops/ prefix and satisfies
// statechange.Component.
package executedops

import (
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/statechange"
)

// Set owns the executed_ops/ column family.
type Set struct {
	store kv.Store
}

// New returns an executed-ops set backed by store.
func New(store kv.Store) *Set { return &Set{store: store} }

// ApplyChangesToBatch implements statechange.Component.
func (s *Set) ApplyChangesToBatch(changes statechange.Changes, b *kv.WriteBatch) {
	for _, e := range changes {
		switch e.Kind {
		case statechange.Set:
			b.Put(kv.ExecutedOps, e.Key, e.Value)
		case statechange.Delete:
			b.Delete(kv.ExecutedOps, e.Key)
		}
	}
}

// Reset implements statechange.Component.
func (s *Set) Reset() error { return s.store.DeletePrefix(kv.ExecutedOps, nil) }

// IsKeyValueValid implements statechange.Component.
func (s *Set) IsKeyValueValid(key, value []byte) bool { return len(key) > 0 }

// Prefix implements statechange.Component.
func (s *Set) Prefix() string { return kv.ExecutedOps }

var _ statechange.Component = (*Set)(nil)
