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

package boltdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/kv"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "state.bolt"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCommitBatchXORIsOrderIndependent(t *testing.T) {
	s1 := openTestStore(t)
	s2 := openTestStore(t)

	b1 := kv.NewWriteBatch()
	b1.Put(kv.Ledger, []byte("a"), []byte("1"))
	b1.Put(kv.Ledger, []byte("b"), []byte("2"))

	b2 := kv.NewWriteBatch()
	b2.Put(kv.Ledger, []byte("b"), []byte("2"))
	b2.Put(kv.Ledger, []byte("a"), []byte("1"))

	h1, err := s1.CommitBatch(b1, timeslot.Slot{Period: 0, Thread: 0}, true)
	require.NoError(t, err)
	h2, err := s2.CommitBatch(b2, timeslot.Slot{Period: 0, Thread: 0}, true)
	require.NoError(t, err)

	require.Equal(t, h1, h2)
}

func TestDeletePrefixAndForPrefix(t *testing.T) {
	s := openTestStore(t)

	b := kv.NewWriteBatch()
	b.Put(kv.CycleHistory, kv.CycleKey(0), []byte("cycle0"))
	b.Put(kv.CycleHistory, kv.CycleKey(1), []byte("cycle1"))
	_, err := s.CommitBatch(b, timeslot.Slot{Period: 0, Thread: 0}, true)
	require.NoError(t, err)

	var seen int
	err = s.View(func(tx kv.Tx) error {
		return tx.ForPrefix(kv.CycleHistory, kv.CycleKey(0), func(k, v []byte) (bool, error) {
			seen++
			return true, nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, 1, seen)

	require.NoError(t, s.DeletePrefix(kv.CycleHistory, kv.CycleKey(0)))
	err = s.View(func(tx kv.Tx) error {
		has, err := tx.Has(kv.CycleHistory, kv.CycleKey(0))
		require.NoError(t, err)
		require.False(t, has)
		has, err = tx.Has(kv.CycleHistory, kv.CycleKey(1))
		require.NoError(t, err)
		require.True(t, has)
		return nil
	})
	require.NoError(t, err)
}

func TestChangeIDRoundTrip(t *testing.T) {
	s := openTestStore(t)

	b := kv.NewWriteBatch()
	b.Put(kv.Ledger, []byte("k"), []byte("v"))
	_, err := s.CommitBatch(b, timeslot.Slot{Period: 7, Thread: 1}, true)
	require.NoError(t, err)

	slot, ok, err := s.ChangeID()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, timeslot.Slot{Period: 7, Thread: 1}, slot)
}
