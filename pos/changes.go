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

// Package pos is the proof-of-stake final state: cycle history, rolls,
// production statistics, deferred credits, and selector feeding.
package pos

import (
	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/consensus/timeslot"
)

// ProductionStats is one address's cumulative success/failure counters
// within a cycle. Counters are overwritten with the new cumulative value
// computed by the caller, not incremented here.
type ProductionStats struct {
	Success uint64
	Failure uint64
}

// Changes is what execution emits per slot for the PoS final state.
type Changes struct {
	// SeedBits are appended, in order, to the current cycle's RNG seed.
	SeedBits []bool

	// RollChanges maps an address to its new absolute roll count; a zero
	// count removes the address from roll_counts.
	RollChanges map[address.Address]uint64

	// ProductionStats maps an address to its new cumulative stats for the
	// current cycle.
	ProductionStats map[address.Address]ProductionStats

	// DeferredCredits maps a target slot to the address/amount pairs to set
	// at that slot; a zero amount removes the entry.
	DeferredCredits map[timeslot.Slot]map[address.Address]uint64
}

// NewChanges returns an empty Changes with all maps initialized.
func NewChanges() *Changes {
	return &Changes{
		RollChanges:     map[address.Address]uint64{},
		ProductionStats: map[address.Address]ProductionStats{},
		DeferredCredits: map[timeslot.Slot]map[address.Address]uint64{},
	}
}
