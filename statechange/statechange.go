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

// Package statechange is the sum-typed Set|Delete change representation the
// opaque external components (ledger, async pool, executed-ops,
// executed-denunciations) consume. Their actual datastore layout is out of
// the core's scope; only the shape of a change is fixed here.
package statechange

import "github.com/parallelproof/node/kv"

// Kind tags an Entry as a set or a delete.
type Kind int

const (
	Set Kind = iota
	Delete
)

// Entry is one opaque key/value change.
type Entry struct {
	Key   []byte
	Kind  Kind
	Value []byte // meaningful only when Kind == Set
}

// Changes is a batch of opaque entries emitted for one component at one slot.
type Changes []Entry

// Component is the capability set every opaque external state component
// exposes to FinalState: apply a slot's changes into a write batch, wipe
// itself on reset, and validate a raw key/value pair read back from
// storage (used by is_db_valid).
type Component interface {
	ApplyChangesToBatch(changes Changes, b *kv.WriteBatch)
	Reset() error
	IsKeyValueValid(key, value []byte) bool
	Prefix() string
}
