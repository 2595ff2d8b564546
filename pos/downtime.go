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

// This file exposes the low-level cycle-history primitives interpolate
// downtime builds on: FinalState drives the 5-step rebuild algorithm, PoS
// only knows how to pop, rebuild, push, and persist individual cycles.
package pos

import (
	"errors"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/xhash"
)

// ErrEmptyHistory is returned by PopBackCycle when history is empty.
var ErrEmptyHistory = errors.New("pos: popBack on empty cycle history")

// PopBackCycle removes and returns the most recent tracked cycle.
func (p *PoSFinalState) PopBackCycle() (*CycleInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.history) == 0 {
		return nil, ErrEmptyHistory
	}
	ci := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	return ci, nil
}

// RebuildCycle constructs a synthetic cycle for downtime interpolation:
// inherited roll counts and production stats, seedLen zero bits standing in
// for the entropy that would have been contributed by slots that were never
// actually executed, and the given completeness.
func (p *PoSFinalState) RebuildCycle(cycle uint64, rolls *rollset.Set, prodStats map[address.Address]ProductionStats, seedLen uint64, complete bool) *CycleInfo {
	ci := newCycleInfo(cycle, rolls)
	ci.ProductionStats = prodStats
	for i := uint64(0); i < seedLen; i++ {
		ci.RNGSeed.Append(false)
	}
	ci.Complete = complete
	return ci
}

// PushCycle appends ci to the back of history, then shrinks the front down
// to cycle_history_length.
func (p *PoSFinalState) PushCycle(ci *CycleInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, ci)
	if uint64(len(p.history)) > p.cycleHistoryLength {
		p.history = p.history[uint64(len(p.history))-p.cycleHistoryLength:]
	}
}

// WriteCycleToBatch emits every cycle_history subkey for ci into batch: used
// to persist a cycle rebuilt by interpolation, where no per-slot
// ApplyChangesToBatch calls occur.
func (p *PoSFinalState) WriteCycleToBatch(ci *CycleInfo, batch *kv.WriteBatch) {
	c := ci.Cycle
	completeByte := byte(0)
	if ci.Complete {
		completeByte = 1
	}
	batch.Put(kv.CycleHistory, kv.CycleSubkey(c, kv.CycleSubkeyComplete), []byte{completeByte})
	batch.Put(kv.CycleHistory, kv.CycleSubkey(c, kv.CycleSubkeyRNGSeed), ci.RNGSeed.Encode())
	ci.RollCounts.Ascend(func(a address.Address, rolls uint64) bool {
		batch.Put(kv.CycleHistory, kv.CycleRollKey(c, a.Bytes()), xhash.Varint(rolls))
		return true
	})
	for a, stats := range ci.ProductionStats {
		batch.Put(kv.CycleHistory, kv.CycleProdStatsKey(c, a.Bytes(), kv.ProdStatsFailure), xhash.Varint(stats.Failure))
		batch.Put(kv.CycleHistory, kv.CycleProdStatsKey(c, a.Bytes(), kv.ProdStatsSuccess), xhash.Varint(stats.Success))
	}
}

// CloneProductionStats returns a shallow copy of a cycle's production-stats
// map, for callers that need to carry it into a freshly rebuilt cycle
// without aliasing the original.
func CloneProductionStats(in map[address.Address]ProductionStats) map[address.Address]ProductionStats {
	out := make(map[address.Address]ProductionStats, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
