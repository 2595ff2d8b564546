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

package pos

import (
	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/xhash"
)

// RollsForAddress returns addr's roll count at the back of history (the
// current cycle), or 0 if history is empty or addr holds no rolls.
func (p *PoSFinalState) RollsForAddress(addr address.Address) uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.history) == 0 {
		return 0
	}
	return p.history[len(p.history)-1].RollCounts.Get(addr)
}

// AddressActiveRolls returns addr's roll count at cycle's draw lookback
// (cycle-3), falling back to the initial rolls for cycle < 3.
func (p *PoSFinalState) AddressActiveRolls(addr address.Address, cycle uint64) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cycle < 3 {
		return p.initialRolls.Get(addr), nil
	}
	ci, err := p.cycleAt(cycle - 3)
	if err != nil {
		return 0, err
	}
	return ci.RollCounts.Get(addr), nil
}

// ProductionStatsFor returns addr's cumulative production stats for cycle.
func (p *PoSFinalState) ProductionStatsFor(addr address.Address, cycle uint64) (ProductionStats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ci, err := p.cycleAt(cycle)
	if err != nil {
		return ProductionStats{}, err
	}
	return ci.ProductionStats[addr], nil
}

// AllRollCounts returns a snapshot copy of cycle's full roll-count set.
func (p *PoSFinalState) AllRollCounts(cycle uint64) (*rollset.Set, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ci, err := p.cycleAt(cycle)
	if err != nil {
		return nil, err
	}
	return ci.RollCounts.Clone(), nil
}

// AllProductionStats returns a snapshot copy of cycle's full production
// stats map.
func (p *PoSFinalState) AllProductionStats(cycle uint64) (map[address.Address]ProductionStats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ci, err := p.cycleAt(cycle)
	if err != nil {
		return nil, err
	}
	out := make(map[address.Address]ProductionStats, len(ci.ProductionStats))
	for k, v := range ci.ProductionStats {
		out[k] = v
	}
	return out, nil
}

// CycleComplete reports whether cycle has been marked complete.
func (p *PoSFinalState) CycleComplete(cycle uint64) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ci, err := p.cycleAt(cycle)
	if err != nil {
		return false, err
	}
	return ci.Complete, nil
}

// RNGSeedLen returns the number of RNG seed bits accumulated so far for cycle.
func (p *PoSFinalState) RNGSeedLen(cycle uint64) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ci, err := p.cycleAt(cycle)
	if err != nil {
		return 0, err
	}
	return ci.RNGSeed.Len(), nil
}

// SnapshotHash returns cycle's live commitment-hash snapshot, if any has
// been fed yet.
func (p *PoSFinalState) SnapshotHash(cycle uint64) (xhash.Hash, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ci, err := p.cycleAt(cycle)
	if err != nil {
		return xhash.Hash{}, false, err
	}
	if ci.FinalStateHashSnapshot == nil {
		return xhash.Hash{}, false, nil
	}
	return *ci.FinalStateHashSnapshot, true, nil
}
