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

// Package asyncpool is the core's view of the pending async-call queue.
// Its scheduling semantics are out of scope; this owns the async_pool/
// prefix and satisfies statechange.Component.
package asyncpool

import (
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/statechange"
)

// Pool owns the async_pool/ column family.
type Pool struct {
	store kv.Store
}

// New returns an async pool backed by store.
func New(store kv.Store) *Pool { return &Pool{store: store} }

// ApplyChangesToBatch implements statechange.Component.
func (p *Pool) ApplyChangesToBatch(changes statechange.Changes, b *kv.WriteBatch) {
	for _, e := range changes {
		switch e.Kind {
		case statechange.Set:
			b.Put(kv.AsyncPool, e.Key, e.Value)
		case statechange.Delete:
			b.Delete(kv.AsyncPool, e.Key)
		}
	}
}

// Reset implements statechange.Component.
func (p *Pool) Reset() error { return p.store.DeletePrefix(kv.AsyncPool, nil) }

// IsKeyValueValid implements statechange.Component.
func (p *Pool) IsKeyValueValid(key, value []byte) bool { return len(key) > 0 }

// Prefix implements statechange.Component.
func (p *Pool) Prefix() string { return kv.AsyncPool }

var _ statechange.Component = (*Pool)(nil)
