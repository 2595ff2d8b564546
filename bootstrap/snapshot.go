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

// Package bootstrap implements the versioned wire form a joining node
// receives the final state over, per spec.md §6: paged KV contents, the MIP
// store, the last finalized slot, and the composed commitment hash the
// receiver must recompute and compare after ingest.
package bootstrap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/xhash"
)

// WireVersion is the bootstrap wire format's version tag. Bumping it is a
// breaking change: a receiver must reject any other version outright.
const WireVersion uint8 = 1

// ErrVersionMismatch is returned when a snapshot's wire version does not
// match WireVersion.
var ErrVersionMismatch = errors.New("bootstrap: unsupported snapshot wire version")

// ErrHashMismatch is returned when the recomputed commitment hash does not
// match the hash carried in the snapshot trailer.
var ErrHashMismatch = errors.New("bootstrap: recomputed commitment hash does not match snapshot")

// Page is one page of raw final-state KV contents: a table name plus a run
// of key/value pairs.
type Page struct {
	Table string
	Pairs []KV
}

// KV is one key/value pair within a Page.
type KV struct {
	Key   []byte
	Value []byte
}

// Snapshot is the in-memory form of a bootstrap transfer.
type Snapshot struct {
	Version      uint8
	LastSlot     timeslot.Slot
	MIPStoreRaw  []byte
	Pages        []Page
	CommittedHash xhash.Hash
}

// WriteTo serializes snap to w in the bootstrap wire form: a small fixed
// header (version, last slot, committed hash, MIP store length + bytes),
// then a page count, then each page as a length-prefixed table name, a pair
// count, and that many length-prefixed key/value pairs.
func (snap *Snapshot) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64

	n, err := writeUint8(bw, snap.Version)
	written += n
	if err != nil {
		return written, err
	}
	n, err = writeUint64(bw, snap.LastSlot.Period)
	written += n
	if err != nil {
		return written, err
	}
	n, err = writeUint8(bw, snap.LastSlot.Thread)
	written += n
	if err != nil {
		return written, err
	}
	n, err = bw.Write(snap.CommittedHash[:])
	written += int64(n)
	if err != nil {
		return written, err
	}
	n, err = writeBytes(bw, snap.MIPStoreRaw)
	written += n
	if err != nil {
		return written, err
	}

	n, err = writeUint32(bw, uint32(len(snap.Pages)))
	written += n
	if err != nil {
		return written, err
	}
	for _, p := range snap.Pages {
		n, err = writeBytes(bw, []byte(p.Table))
		written += n
		if err != nil {
			return written, err
		}
		n, err = writeUint32(bw, uint32(len(p.Pairs)))
		written += n
		if err != nil {
			return written, err
		}
		for _, kvp := range p.Pairs {
			n, err = writeBytes(bw, kvp.Key)
			written += n
			if err != nil {
				return written, err
			}
			n, err = writeBytes(bw, kvp.Value)
			written += n
			if err != nil {
				return written, err
			}
		}
	}

	return written, bw.Flush()
}

// ReadSnapshot deserializes a Snapshot from r, rejecting anything whose wire
// version does not match WireVersion.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)
	snap := &Snapshot{}

	version, err := readUint8(br)
	if err != nil {
		return nil, err
	}
	if version != WireVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, version, WireVersion)
	}
	snap.Version = version

	period, err := readUint64(br)
	if err != nil {
		return nil, err
	}
	thread, err := readUint8(br)
	if err != nil {
		return nil, err
	}
	snap.LastSlot = timeslot.Slot{Period: period, Thread: thread}

	if _, err := io.ReadFull(br, snap.CommittedHash[:]); err != nil {
		return nil, errors.Wrap(err, "bootstrap: read committed hash")
	}

	snap.MIPStoreRaw, err = readBytes(br)
	if err != nil {
		return nil, err
	}

	pageCount, err := readUint32(br)
	if err != nil {
		return nil, err
	}
	snap.Pages = make([]Page, 0, pageCount)
	for i := uint32(0); i < pageCount; i++ {
		tableRaw, err := readBytes(br)
		if err != nil {
			return nil, err
		}
		pairCount, err := readUint32(br)
		if err != nil {
			return nil, err
		}
		page := Page{Table: string(tableRaw), Pairs: make([]KV, 0, pairCount)}
		for j := uint32(0); j < pairCount; j++ {
			key, err := readBytes(br)
			if err != nil {
				return nil, err
			}
			val, err := readBytes(br)
			if err != nil {
				return nil, err
			}
			page.Pairs = append(page.Pairs, KV{Key: key, Value: val})
		}
		snap.Pages = append(snap.Pages, page)
	}

	return snap, nil
}

// Export reads every recognized table out of store into a Snapshot,
// tagged with store's current change-id and committed hash. The kv.Meta
// table is skipped even if listed: the snapshot header already carries the
// change-id and hash, and Ingest's recomputed hash covers only the pages.
func Export(store kv.Store, tables []string) (*Snapshot, error) {
	slot, ok, err := store.ChangeID()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("bootstrap: store has no change-id to export from")
	}
	hash, err := store.CommittedHash()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Version: WireVersion, LastSlot: slot, CommittedHash: hash}
	err = store.View(func(tx kv.Tx) error {
		for _, table := range tables {
			if table == kv.Meta {
				continue
			}
			page := Page{Table: table}
			ferr := tx.ForPrefix(table, nil, func(k, v []byte) (bool, error) {
				page.Pairs = append(page.Pairs, KV{
					Key:   append([]byte(nil), k...),
					Value: append([]byte(nil), v...),
				})
				return true, nil
			})
			if ferr != nil {
				return ferr
			}
			snap.Pages = append(snap.Pages, page)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Ingest applies snap's pages into store as a single atomic batch tagged
// with snap.LastSlot, then recomputes the composed hash and compares it
// against snap.CommittedHash, aborting the bootstrap on mismatch per
// spec.md §6.
func Ingest(store kv.Store, snap *Snapshot, onlyUseXOR bool) error {
	batch := kv.NewWriteBatch()
	for _, page := range snap.Pages {
		for _, kvp := range page.Pairs {
			batch.Put(page.Table, kvp.Key, kvp.Value)
		}
	}

	got, err := store.CommitBatch(batch, snap.LastSlot, onlyUseXOR)
	if err != nil {
		return errors.Wrap(err, "bootstrap: ingest commit")
	}
	if got != snap.CommittedHash {
		return fmt.Errorf("%w: got %x, want %x", ErrHashMismatch, got, snap.CommittedHash)
	}
	return nil
}

func writeUint8(w io.Writer, v uint8) (int64, error) {
	n, err := w.Write([]byte{v})
	return int64(n), err
}

func readUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func writeUint32(w io.Writer, v uint32) (int64, error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	n, err := w.Write(b[:])
	return int64(n), err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeUint64(w io.Writer, v uint64) (int64, error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	n, err := w.Write(b[:])
	return int64(n), err
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func writeBytes(w io.Writer, b []byte) (int64, error) {
	n, err := writeUint32(w, uint32(len(b)))
	if err != nil {
		return n, err
	}
	m, err := w.Write(b)
	return n + int64(m), err
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
