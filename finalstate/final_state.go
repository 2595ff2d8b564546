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
	"sync"

	"github.com/parallelproof/node/asyncpool"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/executeddenunciations"
	"github.com/parallelproof/node/executedops"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/ledger"
	"github.com/parallelproof/node/pos"
	"github.com/parallelproof/node/statechange"
	"github.com/parallelproof/node/versioning"
	"github.com/parallelproof/node/xhash"
)

// preGenesisAnchor is the sentinel change-id a fresh store starts from: it
// does not name a real predecessor of genesis under Grid.NextSlot's normal
// wraparound (NextSlot(0, T-1) computes (1, 0), skipping all of period 0).
// Finalize special-cases it below.
func preGenesisAnchor(grid *timeslot.Grid) timeslot.Slot {
	return timeslot.Slot{Period: 0, Thread: grid.ThreadCount - 1}
}

// FinalState composes every sub-component into the unit that finalizes
// slots, snapshots, and restarts.
type FinalState struct {
	mu sync.RWMutex

	store kv.Store
	grid  *timeslot.Grid

	ledger                *ledger.View
	asyncPool             *asyncpool.Pool
	pos                   *pos.PoSFinalState
	executedOps           *executedops.Set
	executedDenunciations *executeddenunciations.Set
	mipStore              *versioning.Store

	periodsBetweenBackups uint64

	lastSlotBeforeDowntime *timeslot.Slot
	lastStartPeriod        *uint64
}

// New initializes every sub-component against store. If reset, the
// change-id is rewound to the pre-genesis anchor and every sub-component is
// cleared; otherwise the MIP store is rehydrated from whatever is already
// persisted.
func New(store kv.Store, grid *timeslot.Grid, posState *pos.PoSFinalState, mipStore *versioning.Store, periodsBetweenBackups uint64, reset bool) (*FinalState, error) {
	fs := &FinalState{
		store:                 store,
		grid:                  grid,
		ledger:                ledger.New(store),
		asyncPool:             asyncpool.New(store),
		pos:                   posState,
		executedOps:           executedops.New(store),
		executedDenunciations: executeddenunciations.New(store),
		mipStore:              mipStore,
		periodsBetweenBackups: periodsBetweenBackups,
	}

	if reset {
		if err := fs.Reset(); err != nil {
			return nil, err
		}
		return fs, nil
	}

	err := store.View(func(tx kv.Tx) error {
		return mipStore.Rehydrate(tx)
	})
	if err != nil {
		return nil, fmt.Errorf("finalstate: rehydrate mip store: %w", err)
	}
	return fs, nil
}

// NewDerivedFromSnapshot builds a FinalState from a restored snapshot:
// change-id is preserved, MIP coherence over the downtime window is
// verified, and the gap between the snapshot and lastStartPeriod is filled
// in by InterpolateDowntime.
func NewDerivedFromSnapshot(store kv.Store, grid *timeslot.Grid, posState *pos.PoSFinalState, mipStore *versioning.Store, periodsBetweenBackups, lastStartPeriod uint64, onlyUseXOR bool) (*FinalState, error) {
	fs := &FinalState{
		store:                 store,
		grid:                  grid,
		ledger:                ledger.New(store),
		asyncPool:             asyncpool.New(store),
		pos:                   posState,
		executedOps:           executedops.New(store),
		executedDenunciations: executeddenunciations.New(store),
		mipStore:              mipStore,
		periodsBetweenBackups: periodsBetweenBackups,
		lastStartPeriod:       &lastStartPeriod,
	}

	if err := store.View(func(tx kv.Tx) error { return mipStore.Rehydrate(tx) }); err != nil {
		return nil, fmt.Errorf("finalstate: rehydrate mip store: %w", err)
	}

	snapshotSlot, ok, err := store.ChangeID()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no change-id in snapshot", ErrSnapshot)
	}

	shutdownStartSlot, err := grid.NextSlot(snapshotSlot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	shutdownStart, err := grid.SlotTimestamp(shutdownStartSlot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	shutdownEndSlot, err := grid.PrevSlot(timeslot.Slot{Period: lastStartPeriod, Thread: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	shutdownEnd, err := grid.SlotTimestamp(shutdownEndSlot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	if !mipStore.IsCoherentWithShutdownPeriod(shutdownStart, shutdownEnd) {
		return nil, fmt.Errorf("%w: a MIP locked in during the downtime window", ErrSnapshot)
	}

	lastSlot := snapshotSlot
	fs.lastSlotBeforeDowntime = &lastSlot

	if err := fs.pos.ComputeInitialDraws(); err != nil {
		return nil, fmt.Errorf("finalstate: compute initial draws: %w", err)
	}

	if err := fs.InterpolateDowntime(onlyUseXOR); err != nil {
		return nil, err
	}
	return fs, nil
}

// Finalize applies one slot's changes: assert continuity, assemble a fixed
// ordered batch, advance the MIP store and select its hash kind, commit,
// checkpoint if due, and feed the slot's committed hash back into PoS.
func (fs *FinalState) Finalize(slot timeslot.Slot, changes *Changes) (xhash.Hash, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	current, ok, err := fs.store.ChangeID()
	if err != nil {
		return xhash.Hash{}, err
	}
	if ok {
		want, err := fs.expectedNextSlot(current)
		if err != nil {
			return xhash.Hash{}, err
		}
		if slot.Compare(want) != 0 {
			return xhash.Hash{}, fmt.Errorf("%w: got %s, want %s", ErrInvalidSlot, slot, want)
		}
	}

	batch := kv.NewWriteBatch()
	fs.asyncPool.ApplyChangesToBatch(changes.AsyncPool, batch)
	if err := fs.pos.ApplyChangesToBatch(changes.PoS, slot, true, batch); err != nil {
		return xhash.Hash{}, fmt.Errorf("finalstate: pos: %w", err)
	}
	fs.ledger.ApplyChangesToBatch(changes.Ledger, batch)
	fs.executedOps.ApplyChangesToBatch(changes.ExecutedOps, batch)
	fs.executedDenunciations.ApplyChangesToBatch(changes.ExecutedDenunciations, batch)

	ts, err := fs.grid.SlotTimestamp(slot)
	if err != nil {
		return xhash.Hash{}, err
	}
	fs.mipStore.Advance(ts, changes.MIPThresholdsMet)
	fs.mipStore.Persist(batch)
	if len(changes.ExecutionTrailHash) > 0 {
		batch.Put(kv.Meta, []byte(kv.MetaKeyExecutionTrailHash), changes.ExecutionTrailHash)
	}

	onlyXOR := fs.mipStore.LatestComponentVersionAt(versioning.FinalStateHashKindComponent, ts) == 1

	hash, err := fs.store.CommitBatch(batch, slot, onlyXOR)
	if err != nil {
		return xhash.Hash{}, fmt.Errorf("finalstate: commit: %w", err)
	}

	if slot.Period%fs.periodsBetweenBackups == 0 && slot.Period != 0 && slot.Thread == 0 {
		if err := fs.store.Checkpoint(checkpointName(slot)); err != nil {
			return xhash.Hash{}, fmt.Errorf("finalstate: checkpoint: %w", err)
		}
	}

	if err := fs.pos.FeedCycleStateHash(fs.grid.Cycle(slot), hash); err != nil {
		return xhash.Hash{}, fmt.Errorf("finalstate: feed cycle state hash: %w", err)
	}

	return hash, nil
}

func checkpointName(slot timeslot.Slot) string {
	return fmt.Sprintf("backup-period-%d", slot.Period)
}

// expectedNextSlot computes what the next finalized slot must be, given the
// current change-id. The pre-genesis anchor is the one change-id value
// Grid.NextSlot cannot be applied to literally: it is owed genesis (0, 0),
// not NextSlot's normal wraparound successor. A finalized slot (0, T-1)
// carries the same change-id; it is told apart from the anchor by cycle 0
// already being tracked in PoS history.
func (fs *FinalState) expectedNextSlot(current timeslot.Slot) (timeslot.Slot, error) {
	if current.Compare(preGenesisAnchor(fs.grid)) == 0 {
		if _, err := fs.pos.CycleComplete(0); err != nil {
			return timeslot.Slot{Period: 0, Thread: 0}, nil
		}
	}
	return fs.grid.NextSlot(current)
}

// Reset clears every sub-component and rewinds the change-id to the
// pre-genesis anchor, the rollback path bootstrap drives.
func (fs *FinalState) Reset() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, c := range []statechange.Component{fs.ledger, fs.asyncPool, fs.executedOps, fs.executedDenunciations} {
		if err := c.Reset(); err != nil {
			return fmt.Errorf("finalstate: reset %s: %w", c.Prefix(), err)
		}
	}
	if err := fs.pos.Reset(); err != nil {
		return fmt.Errorf("finalstate: reset pos: %w", err)
	}
	if err := fs.store.SetChangeID(preGenesisAnchor(fs.grid)); err != nil {
		return fmt.Errorf("finalstate: reset change-id: %w", err)
	}
	return nil
}

// IsDBValid iterates every recognized column family and validates each
// key/value pair against its owning component's validator.
func (fs *FinalState) IsDBValid() error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	checks := []struct {
		table string
		valid func(k, v []byte) bool
	}{
		{kv.CycleHistory, pos.IsCycleHistoryKeyValueValid},
		{kv.DeferredCredits, pos.IsDeferredCreditKeyValueValid},
		{kv.Ledger, fs.ledger.IsKeyValueValid},
		{kv.AsyncPool, fs.asyncPool.IsKeyValueValid},
		{kv.ExecutedOps, fs.executedOps.IsKeyValueValid},
		{kv.ExecutedDenunciations, fs.executedDenunciations.IsKeyValueValid},
		{kv.MIPStore, func(k, v []byte) bool { return len(v) == 18 }},
	}

	return fs.store.View(func(tx kv.Tx) error {
		for _, c := range checks {
			check := c
			err := tx.ForPrefix(check.table, nil, func(k, v []byte) (bool, error) {
				if !check.valid(k, v) {
					return false, fmt.Errorf("finalstate: invalid key/value in %s at key %x", check.table, k)
				}
				return true, nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
