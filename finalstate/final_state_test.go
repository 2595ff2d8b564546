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

package finalstate_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/finalstate"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/kv/boltdb"
	"github.com/parallelproof/node/pos"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/versioning"
	"github.com/parallelproof/node/xhash"
)

type fakeSelector struct {
	fed map[uint64]bool
}

func newFakeSelector() *fakeSelector { return &fakeSelector{fed: map[uint64]bool{}} }

func (f *fakeSelector) FeedCycle(cycle uint64, rolls *rollset.Set, seed xhash.Hash) error {
	f.fed[cycle] = true
	return nil
}

func (f *fakeSelector) WaitForDraws(cycle uint64) error { return nil }

func addr(b byte) address.Address {
	var a address.Address
	a[0] = b
	return a
}

func newHarness(t *testing.T) (*finalstate.FinalState, *pos.PoSFinalState, kv.Store, *timeslot.Grid) {
	t.Helper()
	grid, err := timeslot.NewGrid(2, 2000, 10000, 3)
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := boltdb.Open(filepath.Join(dir, "state.bolt"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	posState, err := pos.New(store, grid, 10, rollset.New(), "", xhash.H([]byte("")), newFakeSelector())
	require.NoError(t, err)

	mipStore := versioning.NewStore(nil)
	fs, err := finalstate.New(store, grid, posState, mipStore, 100, true)
	require.NoError(t, err)

	return fs, posState, store, grid
}

func finalizeThrough(t *testing.T, fs *finalstate.FinalState, grid *timeslot.Grid, from, to timeslot.Slot) {
	t.Helper()
	slot := from
	for {
		changes := finalstate.NewChanges()
		changes.PoS.SeedBits = []bool{true}
		_, err := fs.Finalize(slot, changes)
		require.NoError(t, err)
		if slot.Compare(to) == 0 {
			return
		}
		next, err := grid.NextSlot(slot)
		require.NoError(t, err)
		slot = next
	}
}

// TestFinalizeRejectsNonSuccessorSlot covers step 1 of finalize: the slot
// must be the change-id's immediate successor.
func TestFinalizeRejectsNonSuccessorSlot(t *testing.T) {
	fs, _, _, _ := newHarness(t)

	changes := finalstate.NewChanges()
	changes.PoS.SeedBits = []bool{true}
	_, err := fs.Finalize(timeslot.Slot{Period: 1, Thread: 0}, changes)
	require.ErrorIs(t, err, finalstate.ErrInvalidSlot)
}

// TestFinalizeLifecycle finalizes an entire cycle and checks the composed
// hash is fed back into the PoS cycle snapshot.
func TestFinalizeLifecycle(t *testing.T) {
	fs, posState, _, grid := newHarness(t)

	slot := timeslot.Slot{Period: 0, Thread: 0}
	var lastHash xhash.Hash
	for i := 0; i < 6; i++ {
		changes := finalstate.NewChanges()
		changes.PoS.SeedBits = []bool{true}
		if i == 0 {
			changes.PoS.RollChanges[addr(1)] = 5
		}
		hash, err := fs.Finalize(slot, changes)
		require.NoError(t, err)
		lastHash = hash
		if i < 5 {
			next, err := grid.NextSlot(slot)
			require.NoError(t, err)
			slot = next
		}
	}

	complete, err := posState.CycleComplete(0)
	require.NoError(t, err)
	require.True(t, complete)

	snap, ok, err := posState.SnapshotHash(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, lastHash, snap)
}

// TestResetRewindsToAnchor covers the rollback path: after finalizing, Reset
// clears every sub-component and rewinds the change-id so the next Finalize
// must start again at genesis.
func TestResetRewindsToAnchor(t *testing.T) {
	fs, _, store, grid := newHarness(t)

	finalizeThrough(t, fs, grid, timeslot.Slot{Period: 0, Thread: 0}, timeslot.Slot{Period: 0, Thread: 1})
	require.NoError(t, fs.Reset())

	changeID, ok, err := store.ChangeID()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, timeslot.Slot{Period: 0, Thread: grid.ThreadCount - 1}, changeID)

	changes := finalstate.NewChanges()
	changes.PoS.SeedBits = []bool{true}
	_, err = fs.Finalize(timeslot.Slot{Period: 0, Thread: 0}, changes)
	require.NoError(t, err)
}

// TestIsDBValidAcceptsFinalizedState covers is_db_valid against a database
// that has actually been through a handful of finalizes.
func TestIsDBValidAcceptsFinalizedState(t *testing.T) {
	fs, _, _, grid := newHarness(t)
	finalizeThrough(t, fs, grid, timeslot.Slot{Period: 0, Thread: 0}, timeslot.Slot{Period: 1, Thread: 1})
	require.NoError(t, fs.IsDBValid())
}

// TestNewDerivedFromSnapshotInterpolatesAcrossCycles covers scenario E: a
// node restarts from a snapshot taken mid-cycle, with last_start_period
// landing in a later cycle than the snapshot's own — the multi-cycle branch
// of interpolate_downtime (steps 3a/3b/3c).
func TestNewDerivedFromSnapshotInterpolatesAcrossCycles(t *testing.T) {
	grid, err := timeslot.NewGrid(2, 2000, 10000, 3)
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := boltdb.Open(filepath.Join(dir, "state.bolt"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	posState, err := pos.New(store, grid, 10, rollset.New(), "", xhash.H([]byte("")), newFakeSelector())
	require.NoError(t, err)
	mipStore := versioning.NewStore(nil)
	fs, err := finalstate.New(store, grid, posState, mipStore, 100, true)
	require.NoError(t, err)

	// Finalize cycle 0 (periods 0-2) entirely, then two slots into cycle 1
	// (period 3), mimicking a snapshot taken mid-cycle.
	finalizeThrough(t, fs, grid, timeslot.Slot{Period: 0, Thread: 0}, timeslot.Slot{Period: 3, Thread: 1})

	snapshotSlot, ok, err := store.ChangeID()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, timeslot.Slot{Period: 3, Thread: 1}, snapshotSlot)

	// Restart with last_start_period landing in cycle 2 (periods 6-8).
	fs2, err := finalstate.NewDerivedFromSnapshot(store, grid, posState, mipStore, 100, 7, true)
	require.NoError(t, err)
	require.NotNil(t, fs2)

	changeID, ok, err := store.ChangeID()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, timeslot.Slot{Period: 7, Thread: 1}, changeID)

	complete, err := posState.CycleComplete(1)
	require.NoError(t, err)
	require.True(t, complete, "cycle 1's tail should have been completed by interpolation")

	complete, err = posState.CycleComplete(2)
	require.NoError(t, err)
	require.False(t, complete, "cycle 2 should stop short of complete at the interpolated end slot")
}
