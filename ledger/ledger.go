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

// Package ledger is the core's view of account state: balances, bytecode,
// and smart-contract datastore entries. Its layout is explicitly out of
// scope (spec Non-goals); this is the thinnest component that owns the
// ledger/ prefix and satisfies statechange.Component.
package ledger

import (
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/statechange"
)

// View owns the ledger/ column family.
type View struct {
	store kv.Store
}

// New returns a ledger view backed by store.
func New(store kv.Store) *View { return &View{store: store} }

// ApplyChangesToBatch implements statechange.Component.
func (v *View) ApplyChangesToBatch(changes statechange.Changes, b *kv.WriteBatch) {
	for _, e := range changes {
		switch e.Kind {
		case statechange.Set:
			b.Put(kv.Ledger, e.Key, e.Value)
		case statechange.Delete:
			b.Delete(kv.Ledger, e.Key)
		}
	}
}

// Reset implements statechange.Component.
func (v *View) Reset() error { return v.store.DeletePrefix(kv.Ledger, nil) }

// IsKeyValueValid implements statechange.Component. The ledger's datastore
// layout is opaque; the only invariant the core can enforce is non-empty
// keys.
func (v *View) IsKeyValueValid(key, value []byte) bool { return len(key) > 0 }

// Prefix implements statechange.Component.
func (v *View) Prefix() string { return kv.Ledger }

var _ statechange.Component = (*View)(nil)
