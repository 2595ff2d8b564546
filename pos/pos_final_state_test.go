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

package pos_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/kv/boltdb"
	"github.com/parallelproof/node/pos"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/xhash"
)

type fakeSelector struct {
	fed   map[uint64]*rollset.Set
	seeds map[uint64]xhash.Hash
}

func newFakeSelector() *fakeSelector {
	return &fakeSelector{fed: map[uint64]*rollset.Set{}, seeds: map[uint64]xhash.Hash{}}
}

func (f *fakeSelector) FeedCycle(cycle uint64, rolls *rollset.Set, seed xhash.Hash) error {
	f.fed[cycle] = rolls
	f.seeds[cycle] = seed
	return nil
}

func (f *fakeSelector) WaitForDraws(cycle uint64) error { return nil }

func newTestGrid(t *testing.T) *timeslot.Grid {
	t.Helper()
	g, err := timeslot.NewGrid(2, 2000, 10000, 3)
	require.NoError(t, err)
	return g
}

func newTestStore(t *testing.T) kv.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := boltdb.Open(filepath.Join(dir, "state.bolt"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func addr(b byte) address.Address {
	var a address.Address
	a[0] = b
	return a
}

// finalizeSlot runs the PoSFinalState half of the finalize protocol: assemble
// a batch, commit it, then feed the resulting hash back as the current
// cycle's live snapshot, mirroring what FinalState.finalize does each slot.
func finalizeSlot(t *testing.T, p *pos.PoSFinalState, store kv.Store, grid *timeslot.Grid, slot timeslot.Slot, changes *pos.Changes) xhash.Hash {
	t.Helper()
	batch := kv.NewWriteBatch()
	require.NoError(t, p.ApplyChangesToBatch(changes, slot, true, batch))
	hash, err := store.CommitBatch(batch, slot, true)
	require.NoError(t, err)
	require.NoError(t, p.FeedCycleStateHash(grid.Cycle(slot), hash))
	return hash
}

// TestCycleZeroLifecycle covers scenario C: finalizing the complete slot
// sequence (0,0)..(2,1) with a single roll set at (0,0) completes cycle 0,
// snapshots its hash, and feeds the selector for cycle 2.
func TestCycleZeroLifecycle(t *testing.T) {
	grid := newTestGrid(t)
	store := newTestStore(t)
	selector := newFakeSelector()

	p, err := pos.New(store, grid, 5, rollset.New(), "", xhash.H([]byte("")), selector)
	require.NoError(t, err)

	addrA := addr(1)
	var lastHash xhash.Hash
	slot := timeslot.Slot{Period: 0, Thread: 0}
	for i := 0; i < 6; i++ {
		changes := pos.NewChanges()
		changes.SeedBits = []bool{true}
		if i == 0 {
			changes.RollChanges[addrA] = 1
		}
		lastHash = finalizeSlot(t, p, store, grid, slot, changes)

		if i < 5 {
			slot, err = grid.NextSlot(slot)
			require.NoError(t, err)
		}
	}

	complete, err := p.CycleComplete(0)
	require.NoError(t, err)
	require.True(t, complete)

	seedLen, err := p.RNGSeedLen(0)
	require.NoError(t, err)
	require.Equal(t, uint64(6), seedLen)

	rolls, err := p.AllRollCounts(0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), rolls.Get(addrA))
	require.Equal(t, 1, rolls.Len())

	snap, ok, err := p.SnapshotHash(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, lastHash, snap)

	require.Contains(t, selector.fed, uint64(2))
}

// TestRollRemovedOnZero covers scenario D: after cycle 0 completes as in
// TestCycleZeroLifecycle, finalizing (3,0) with roll_changes={A:0} leaves
// cycle 1 incomplete and without A in its roll counts.
func TestRollRemovedOnZero(t *testing.T) {
	grid := newTestGrid(t)
	store := newTestStore(t)
	selector := newFakeSelector()

	p, err := pos.New(store, grid, 5, rollset.New(), "", xhash.H([]byte("")), selector)
	require.NoError(t, err)

	addrA := addr(1)
	slot := timeslot.Slot{Period: 0, Thread: 0}
	for i := 0; i < 6; i++ {
		changes := pos.NewChanges()
		changes.SeedBits = []bool{true}
		if i == 0 {
			changes.RollChanges[addrA] = 1
		}
		finalizeSlot(t, p, store, grid, slot, changes)
		if i < 5 {
			slot, err = grid.NextSlot(slot)
			require.NoError(t, err)
		}
	}

	changes := pos.NewChanges()
	changes.SeedBits = []bool{true}
	changes.RollChanges[addrA] = 0
	slot, err = grid.NextSlot(slot)
	require.NoError(t, err)
	finalizeSlot(t, p, store, grid, slot, changes)

	complete, err := p.CycleComplete(1)
	require.NoError(t, err)
	require.False(t, complete)

	rolls, err := p.AllRollCounts(1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), rolls.Get(addrA))
	require.Equal(t, 0, rolls.Len())
}

// TestCycleHistoryWindowSlides checks invariant 2: history never grows past
// cycle_history_length, and stays contiguous.
func TestCycleHistoryWindowSlides(t *testing.T) {
	grid := newTestGrid(t)
	store := newTestStore(t)
	selector := newFakeSelector()

	p, err := pos.New(store, grid, 2, rollset.New(), "", xhash.H([]byte("")), selector)
	require.NoError(t, err)

	slot := timeslot.Slot{Period: 0, Thread: 0}
	for cycle := uint64(0); cycle < 5; cycle++ {
		for i := 0; i < 6; i++ {
			changes := pos.NewChanges()
			changes.SeedBits = []bool{true}
			finalizeSlot(t, p, store, grid, slot, changes)
			if cycle == 4 && i == 5 {
				break
			}
			slot, err = grid.NextSlot(slot)
			require.NoError(t, err)
		}
	}

	_, err = p.CycleComplete(4)
	require.NoError(t, err)
	_, err = p.CycleComplete(3)
	require.NoError(t, err)
	_, err = p.CycleComplete(2)
	require.Error(t, err)
	var unavailable *pos.ErrCycleUnavailable
	require.ErrorAs(t, err, &unavailable)
}

// TestFeedSelectorBootstrap covers scenario F: with an empty initial seed
// string and the hash of "" as the initial ledger hash, the bootstrap seed
// for draw cycle 0 is H(H("")).
func TestFeedSelectorBootstrap(t *testing.T) {
	grid := newTestGrid(t)
	store := newTestStore(t)
	selector := newFakeSelector()

	p, err := pos.New(store, grid, 5, rollset.New(), "", xhash.H([]byte("")), selector)
	require.NoError(t, err)

	require.NoError(t, p.FeedSelector(0))
	require.Contains(t, selector.fed, uint64(0))
	emptyHash := xhash.H([]byte(""))
	require.Equal(t, xhash.H(emptyHash[:]), selector.seeds[0])
}

// TestFeedSelectorUnavailable covers the CycleUnavailable error path for a
// lookback beyond any tracked cycle.
func TestFeedSelectorUnavailable(t *testing.T) {
	grid := newTestGrid(t)
	store := newTestStore(t)
	selector := newFakeSelector()

	p, err := pos.New(store, grid, 5, rollset.New(), "", xhash.H([]byte("")), selector)
	require.NoError(t, err)

	err = p.FeedSelector(10)
	require.Error(t, err)
	var unavailable *pos.ErrCycleUnavailable
	require.ErrorAs(t, err, &unavailable)
}
