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

package bootstrap_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelproof/node/bootstrap"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/kv/boltdb"
)

func TestExportIngestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcStore, err := boltdb.Open(filepath.Join(dir, "src.bolt"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srcStore.Close() })

	slot := timeslot.Slot{Period: 3, Thread: 1}
	batch := kv.NewWriteBatch()
	batch.Put(kv.Ledger, []byte("addr-1"), []byte("balance-100"))
	batch.Put(kv.MIPStore, []byte("FinalStateHashKind"), []byte("state"))
	_, err = srcStore.CommitBatch(batch, slot, true)
	require.NoError(t, err)

	snap, err := bootstrap.Export(srcStore, kv.ColumnFamilies)
	require.NoError(t, err)
	require.Equal(t, slot, snap.LastSlot)

	var buf bytes.Buffer
	_, err = snap.WriteTo(&buf)
	require.NoError(t, err)

	roundTripped, err := bootstrap.ReadSnapshot(&buf)
	require.NoError(t, err)
	require.Equal(t, snap.LastSlot, roundTripped.LastSlot)
	require.Equal(t, snap.CommittedHash, roundTripped.CommittedHash)
	require.Equal(t, len(snap.Pages), len(roundTripped.Pages))

	dstStore, err := boltdb.Open(filepath.Join(dir, "dst.bolt"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dstStore.Close() })

	require.NoError(t, bootstrap.Ingest(dstStore, roundTripped, true))

	got, err := dstStore.CommittedHash()
	require.NoError(t, err)
	require.Equal(t, snap.CommittedHash, got)
}

func TestReadSnapshotRejectsVersionMismatch(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0xFF)
	_, err := bootstrap.ReadSnapshot(&buf)
	require.ErrorIs(t, err, bootstrap.ErrVersionMismatch)
}

func TestIngestRejectsHashMismatch(t *testing.T) {
	dir := t.TempDir()
	store, err := boltdb.Open(filepath.Join(dir, "state.bolt"), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	snap := &bootstrap.Snapshot{
		Version:       bootstrap.WireVersion,
		LastSlot:      timeslot.Slot{Period: 0, Thread: 0},
		CommittedHash: [32]byte{0xAA},
		Pages:         []bootstrap.Page{{Table: kv.Ledger, Pairs: []bootstrap.KV{{Key: []byte("a"), Value: []byte("b")}}}},
	}
	err = bootstrap.Ingest(store, snap, true)
	require.ErrorIs(t, err, bootstrap.ErrHashMismatch)
}
