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
	"github.com/parallelproof/node/bitseq"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/xhash"
)

// CycleInfo is the tracked state of one PoS cycle: whether it is complete,
// its accumulated RNG seed, its commitment-hash snapshot (refreshed after
// every finalize in the cycle, so once the cycle is complete it holds the
// hash at its last slot), and the roll/production-stats state as of the
// latest slot finalized in this cycle.
type CycleInfo struct {
	Cycle                  uint64
	Complete               bool
	RNGSeed                *bitseq.Seq
	FinalStateHashSnapshot *xhash.Hash
	RollCounts             *rollset.Set
	ProductionStats        map[address.Address]ProductionStats
}

// newCycleInfo returns a fresh, incomplete cycle seeded with rolls (cloned
// from the previous cycle's end, or the initial rolls at genesis).
func newCycleInfo(cycle uint64, rolls *rollset.Set) *CycleInfo {
	return &CycleInfo{
		Cycle:           cycle,
		RNGSeed:         bitseq.New(),
		RollCounts:      rolls,
		ProductionStats: map[address.Address]ProductionStats{},
	}
}
