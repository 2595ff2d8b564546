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

package selector

import (
	"encoding/binary"
	"fmt"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/xhash"
)

// Selection is one slot's draw result: the block producer plus its
// endorsers, in rank order.
type Selection struct {
	Producer  address.Address
	Endorsers []address.Address
}

// computeDraws deterministically draws a producer and endorsementCount
// endorsers for every slot in cycle, stake-weighted by rolls and mixed with
// seed.
func computeDraws(grid *timeslot.Grid, cycle uint64, rolls *rollset.Set, seed xhash.Hash, endorsementCount int) (map[timeslot.Slot]Selection, error) {
	total := rolls.Total()
	if total == 0 {
		return nil, fmt.Errorf("selector: cycle %d has no rolls to draw from", cycle)
	}

	first, err := grid.FirstOfCycle(cycle)
	if err != nil {
		return nil, fmt.Errorf("selector: cycle %d: %w", cycle, err)
	}
	last, err := grid.LastOfCycle(cycle)
	if err != nil {
		return nil, fmt.Errorf("selector: cycle %d: %w", cycle, err)
	}

	draws := make(map[timeslot.Slot]Selection, grid.SlotsPerCycle())
	slot := first
	for {
		draws[slot] = drawSlot(rolls, total, seed, slot, endorsementCount)
		if slot.Compare(last) == 0 {
			break
		}
		slot, err = grid.NextSlot(slot)
		if err != nil {
			return nil, fmt.Errorf("selector: cycle %d: %w", cycle, err)
		}
	}
	return draws, nil
}

func drawSlot(rolls *rollset.Set, total uint64, seed xhash.Hash, slot timeslot.Slot, endorsementCount int) Selection {
	endorsers := make([]address.Address, endorsementCount)
	for i := 0; i < endorsementCount; i++ {
		endorsers[i] = pick(rolls, total, seed, slot, uint64(i+1))
	}
	return Selection{
		Producer:  pick(rolls, total, seed, slot, 0),
		Endorsers: endorsers,
	}
}

// pick draws one address from rolls, weighted by stake, using
// H(seed ∥ varint(period) ∥ thread ∥ varint(rank)) as the source of
// randomness mapped onto the cumulative roll distribution.
func pick(rolls *rollset.Set, total uint64, seed xhash.Hash, slot timeslot.Slot, rank uint64) address.Address {
	h := xhash.H(seed[:], xhash.Varint(slot.Period), []byte{slot.Thread}, xhash.Varint(rank))
	target := binary.BigEndian.Uint64(h[:8]) % total

	var cumulative uint64
	var chosen address.Address
	rolls.Ascend(func(a address.Address, r uint64) bool {
		cumulative += r
		if cumulative > target {
			chosen = a
			return false
		}
		return true
	})
	return chosen
}
