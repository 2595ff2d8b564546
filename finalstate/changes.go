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

// Package finalstate composes every sub-component — ledger, async pool, PoS,
// executed-ops, executed-denunciations, and the MIP store — into the single
// unit that finalizes slots, snapshots, and restarts.
package finalstate

import (
	"github.com/parallelproof/node/pos"
	"github.com/parallelproof/node/statechange"
)

// Changes is one slot's full set of deltas, gathered by the execution layer
// and handed to Finalize as a unit.
type Changes struct {
	Ledger                statechange.Changes
	AsyncPool             statechange.Changes
	PoS                   *pos.Changes
	ExecutedOps           statechange.Changes
	ExecutedDenunciations statechange.Changes

	// ExecutionTrailHash is an opaque hash over the slot's execution trail,
	// folded into meta/execution_trail_hash alongside the composed
	// commitment hash. The core treats it as an uninterpreted byte string.
	ExecutionTrailHash []byte

	// MIPThresholdsMet carries the per-proposal on-chain vote threshold
	// signal the execution layer derives (e.g. from denunciation votes or
	// announced block versions) — the core has no way to compute this
	// itself, so it is supplied alongside the rest of a slot's changes.
	MIPThresholdsMet map[string]bool
}

// NewChanges returns an empty Changes ready to be populated for one slot.
func NewChanges() *Changes {
	return &Changes{
		PoS:              pos.NewChanges(),
		MIPThresholdsMet: map[string]bool{},
	}
}
