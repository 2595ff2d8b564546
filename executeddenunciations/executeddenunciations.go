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

// Package executeddenunciations is the dedup window of denunciations the
// core has already processed. Its pruning policy is out of scope; this
// owns the executed_denunciations/ prefix and satisfies
// statechange.Component.
package executeddenunciations

import (
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/statechange"
)

// Set owns the executed_denunciations/ column family.
type Set struct {
	store kv.Store
}

// New returns an executed-denunciations set backed by store.
func New(store kv.Store) *Set { return &Set{store: store} }

// ApplyChangesToBatch implements statechange.Component.
func (s *Set) ApplyChangesToBatch(changes statechange.Changes, b *kv.WriteBatch) {
	for _, e := range changes {
		switch e.Kind {
		case statechange.Set:
			b.Put(kv.ExecutedDenunciations, e.Key, e.Value)
		case statechange.Delete:
			b.Delete(kv.ExecutedDenunciations, e.Key)
		}
	}
}

// Reset implements statechange.Component.
func (s *Set) Reset() error { return s.store.DeletePrefix(kv.ExecutedDenunciations, nil) }

// IsKeyValueValid implements statechange.Component.
func (s *Set) IsKeyValueValid(key, value []byte) bool { return len(key) > 0 }

// Prefix implements statechange.Component.
func (s *Set) Prefix() string { return kv.ExecutedDenunciations }

var _ statechange.Component = (*Set)(nil)
