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

// Package boltdb is the concrete KVStore: column families as bbolt buckets,
// atomic batches as a single bbolt transaction, point-in-time reads as
// bbolt's native MVCC snapshot isolation, and named checkpoints as
// bbolt.Tx.CopyFile backups.
package boltdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/xhash"
)

// Store is a bbolt-backed kv.Store.
type Store struct {
	db      *bolt.DB
	backups string
}

// Open opens (creating if absent) a bbolt database at path and ensures every
// column family bucket exists. backupsDir is where named checkpoints land.
func Open(path, backupsDir string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltdb: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, cf := range kv.ColumnFamilies {
			if _, err := tx.CreateBucketIfNotExists([]byte(cf)); err != nil {
				return fmt.Errorf("boltdb: create bucket %s: %w", cf, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, backups: backupsDir}, nil
}

// View implements kv.Store.
func (s *Store) View(fn func(kv.Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&readTx{tx: tx})
	})
}

// CommitBatch implements kv.Store.
func (s *Store) CommitBatch(b *kv.WriteBatch, slot timeslot.Slot, onlyXOR bool) (xhash.Hash, error) {
	var newHash xhash.Hash
	err := s.db.Update(func(tx *bolt.Tx) error {
		prevHash, err := readHash(tx)
		if err != nil {
			return err
		}

		if onlyXOR {
			newHash = prevHash
			for _, op := range b.Ops {
				if err := applyOp(tx, op); err != nil {
					return err
				}
				newHash = xhash.XOR(newHash, tableKey(op.Table, op.Key), op.Value)
			}
		} else {
			ordered := append([]kv.Op(nil), b.Ops...)
			sortOps(ordered)
			acc := prevHash
			for _, op := range ordered {
				if err := applyOp(tx, op); err != nil {
					return err
				}
				acc = xhash.H(acc[:], tableKey(op.Table, op.Key), op.Value)
			}
			newHash = acc
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(kv.Meta))
		if err != nil {
			return err
		}
		if err := meta.Put([]byte(kv.MetaKeyHash), newHash[:]); err != nil {
			return err
		}
		return meta.Put([]byte(kv.MetaKeyChangeID), encodeSlot(slot))
	})
	if err != nil {
		return xhash.Hash{}, fmt.Errorf("boltdb: commit batch at slot %s: %w", slot, err)
	}
	return newHash, nil
}

func applyOp(tx *bolt.Tx, op kv.Op) error {
	bucket := tx.Bucket([]byte(op.Table))
	if bucket == nil {
		return fmt.Errorf("boltdb: unknown column family %q", op.Table)
	}
	if op.Value == nil {
		return bucket.Delete(op.Key)
	}
	return bucket.Put(op.Key, op.Value)
}

func tableKey(table string, key []byte) []byte {
	return append([]byte(table+"/"), key...)
}

func sortOps(ops []kv.Op) {
	less := func(i, j int) bool {
		if ops[i].Table != ops[j].Table {
			return ops[i].Table < ops[j].Table
		}
		return bytes.Compare(ops[i].Key, ops[j].Key) < 0
	}
	// insertion sort: batches per finalize are small (a handful of
	// sub-component writes), and this keeps the ordering deterministic
	// without pulling in sort.Slice's reflection overhead on a hot path.
	for i := 1; i < len(ops); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			ops[j], ops[j-1] = ops[j-1], ops[j]
		}
	}
}

func readHash(tx *bolt.Tx) (xhash.Hash, error) {
	meta := tx.Bucket([]byte(kv.Meta))
	if meta == nil {
		return xhash.Hash{}, nil
	}
	v := meta.Get([]byte(kv.MetaKeyHash))
	var h xhash.Hash
	copy(h[:], v)
	return h, nil
}

// ChangeID implements kv.Store.
func (s *Store) ChangeID() (timeslot.Slot, bool, error) {
	var slot timeslot.Slot
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(kv.Meta))
		if meta == nil {
			return nil
		}
		v := meta.Get([]byte(kv.MetaKeyChangeID))
		if v == nil {
			return nil
		}
		var err error
		slot, err = decodeSlot(v)
		ok = err == nil
		return err
	})
	return slot, ok, err
}

// SetChangeID implements kv.Store.
func (s *Store) SetChangeID(slot timeslot.Slot) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists([]byte(kv.Meta))
		if err != nil {
			return err
		}
		return meta.Put([]byte(kv.MetaKeyChangeID), encodeSlot(slot))
	})
}

// CommittedHash implements kv.Store.
func (s *Store) CommittedHash() (xhash.Hash, error) {
	var h xhash.Hash
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		h, err = readHash(tx)
		return err
	})
	return h, err
}

// DeletePrefix implements kv.Store.
func (s *Store) DeletePrefix(table string, prefix []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(table))
		if bucket == nil {
			return fmt.Errorf("boltdb: unknown column family %q", table)
		}
		c := bucket.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Checkpoint implements kv.Store.
func (s *Store) Checkpoint(name string) error {
	path := filepath.Join(s.backups, name+".bolt")
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(path, 0o600)
	})
}

// Close implements kv.Store.
func (s *Store) Close() error { return s.db.Close() }

func encodeSlot(s timeslot.Slot) []byte {
	buf := make([]byte, 9)
	binary.BigEndian.PutUint64(buf[:8], s.Period)
	buf[8] = s.Thread
	return buf
}

func decodeSlot(b []byte) (timeslot.Slot, error) {
	if len(b) != 9 {
		return timeslot.Slot{}, fmt.Errorf("boltdb: malformed change-id (%d bytes)", len(b))
	}
	return timeslot.Slot{Period: binary.BigEndian.Uint64(b[:8]), Thread: b[8]}, nil
}

type readTx struct {
	tx *bolt.Tx
}

func (r *readTx) Get(table string, key []byte) ([]byte, error) {
	bucket := r.tx.Bucket([]byte(table))
	if bucket == nil {
		return nil, fmt.Errorf("boltdb: unknown column family %q", table)
	}
	v := bucket.Get(key)
	if v == nil {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (r *readTx) Has(table string, key []byte) (bool, error) {
	v, err := r.Get(table, key)
	return v != nil, err
}

func (r *readTx) ForPrefix(table string, prefix []byte, fn func(k, v []byte) (bool, error)) error {
	bucket := r.tx.Bucket([]byte(table))
	if bucket == nil {
		return fmt.Errorf("boltdb: unknown column family %q", table)
	}
	c := bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		cont, err := fn(k, v)
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return nil
}
