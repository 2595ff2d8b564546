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

package finalstate

import (
	"fmt"

	xmath "github.com/parallelproof/node/common/math"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/pos"
	"github.com/parallelproof/node/xhash"
)

// InterpolateDowntime recreates the history of finalize-like steps, without
// executing any slot, to move the state from the snapshot's current change-id
// to end = (last_start_period, T-1). It does not itself advance the
// change-id to any slot but end.
func (fs *FinalState) InterpolateDowntime(onlyUseXOR bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.lastStartPeriod == nil {
		return fmt.Errorf("%w: no last_start_period configured", ErrSnapshot)
	}
	current, ok, err := fs.store.ChangeID()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no change-id to interpolate from", ErrSnapshot)
	}
	end := timeslot.Slot{Period: *fs.lastStartPeriod, Thread: fs.grid.ThreadCount - 1}

	popped, err := fs.pos.PopBackCycle()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshot, err)
	}

	currentCycle := fs.grid.Cycle(current)
	endCycle := fs.grid.Cycle(end)

	var lastHash xhash.Hash
	haveHash := false

	if currentCycle == endCycle {
		seedLen := popped.RNGSeed.Len()
		slot := current
		for slot.Compare(end) != 0 {
			next, err := fs.grid.NextSlot(slot)
			if err != nil {
				return err
			}
			seedLen++
			slot = next
		}
		complete := fs.grid.IsLastOfCycle(end)
		rebuilt := fs.pos.RebuildCycle(currentCycle, popped.RollCounts.Clone(), pos.CloneProductionStats(popped.ProductionStats), 0, complete)
		rebuilt.RNGSeed = popped.RNGSeed
		for i := popped.RNGSeed.Len(); i < seedLen; i++ {
			rebuilt.RNGSeed.Append(false)
		}
		fs.pos.PushCycle(rebuilt)

		batch := kv.NewWriteBatch()
		fs.pos.WriteCycleToBatch(rebuilt, batch)
		hash, err := fs.store.CommitBatch(batch, end, onlyUseXOR)
		if err != nil {
			return err
		}
		lastHash, haveHash = hash, true

		if complete {
			if err := fs.pos.FeedCycleStateHash(currentCycle, hash); err != nil {
				return err
			}
			if dc, ok := xmath.SafeAdd(currentCycle, 2); ok {
				if err := fs.pos.FeedSelector(dc); err != nil {
					return err
				}
			}
		}
	} else {
		lastOfCurrent, err := fs.grid.LastOfCycle(currentCycle)
		if err != nil {
			return err
		}
		seedLenA := popped.RNGSeed.Len()
		slot := current
		for slot.Compare(lastOfCurrent) != 0 {
			next, err := fs.grid.NextSlot(slot)
			if err != nil {
				return err
			}
			seedLenA++
			slot = next
		}
		curRebuilt := fs.pos.RebuildCycle(currentCycle, popped.RollCounts.Clone(), pos.CloneProductionStats(popped.ProductionStats), 0, true)
		curRebuilt.RNGSeed = popped.RNGSeed
		for i := popped.RNGSeed.Len(); i < seedLenA; i++ {
			curRebuilt.RNGSeed.Append(false)
		}
		fs.pos.PushCycle(curRebuilt)

		batch := kv.NewWriteBatch()
		fs.pos.WriteCycleToBatch(curRebuilt, batch)
		hash, err := fs.store.CommitBatch(batch, lastOfCurrent, onlyUseXOR)
		if err != nil {
			return err
		}
		lastHash, haveHash = hash, true
		if err := fs.pos.FeedCycleStateHash(currentCycle, hash); err != nil {
			return err
		}
		if dc, ok := xmath.SafeAdd(currentCycle, 2); ok {
			if err := fs.pos.FeedSelector(dc); err != nil {
				return err
			}
		}

		inheritRolls := curRebuilt.RollCounts
		inheritStats := curRebuilt.ProductionStats
		slotsPerCycle := fs.grid.SlotsPerCycle()
		for cyc := currentCycle + 1; cyc < endCycle; cyc++ {
			lastOfCyc, err := fs.grid.LastOfCycle(cyc)
			if err != nil {
				return err
			}
			mid := fs.pos.RebuildCycle(cyc, inheritRolls.Clone(), pos.CloneProductionStats(inheritStats), slotsPerCycle, true)
			fs.pos.PushCycle(mid)

			b := kv.NewWriteBatch()
			fs.pos.WriteCycleToBatch(mid, b)
			hash, err := fs.store.CommitBatch(b, lastOfCyc, onlyUseXOR)
			if err != nil {
				return err
			}
			lastHash, haveHash = hash, true
			if err := fs.pos.FeedCycleStateHash(cyc, hash); err != nil {
				return err
			}
			if dc, ok := xmath.SafeAdd(cyc, 2); ok {
				if err := fs.pos.FeedSelector(dc); err != nil {
					return err
				}
			}
		}

		firstOfEndCycle, err := fs.grid.FirstOfCycle(endCycle)
		if err != nil {
			return err
		}
		seedLenC := uint64(0)
		slot = firstOfEndCycle
		for {
			seedLenC++
			if slot.Compare(end) == 0 {
				break
			}
			next, err := fs.grid.NextSlot(slot)
			if err != nil {
				return err
			}
			slot = next
		}
		endComplete := fs.grid.IsLastOfCycle(end)
		endRebuilt := fs.pos.RebuildCycle(endCycle, inheritRolls.Clone(), pos.CloneProductionStats(inheritStats), seedLenC, endComplete)
		fs.pos.PushCycle(endRebuilt)

		b := kv.NewWriteBatch()
		fs.pos.WriteCycleToBatch(endRebuilt, b)
		hash, err := fs.store.CommitBatch(b, end, onlyUseXOR)
		if err != nil {
			return err
		}
		lastHash, haveHash = hash, true
		if endComplete {
			if err := fs.pos.FeedCycleStateHash(endCycle, hash); err != nil {
				return err
			}
			if dc, ok := xmath.SafeAdd(endCycle, 2); ok {
				if err := fs.pos.FeedSelector(dc); err != nil {
					return err
				}
			}
		}
	}

	if haveHash {
		if err := fs.pos.FeedCycleStateHash(endCycle, lastHash); err != nil {
			return err
		}
	}
	return fs.store.SetChangeID(end)
}

