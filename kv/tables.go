// Copyright 2021 The Erigon Authors
// (original work)
// Copyright 2026 The Parallelproof Authors
// (modifications)
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

package kv

import "encoding/binary"

// DBSchemaVersion versions the on-disk layout below.
// 1.0 - initial column-family layout: cycle_history, deferred_credits,
//        ledger, async_pool, executed_ops, executed_denunciations, mip_store.
var DBSchemaVersion = [3]uint32{1, 0, 0}

// Column families (bbolt buckets). Keys within a family are lexicographically
// ordered; families are independent prefix namespaces, not key prefixes
// within one bucket, so two families can never collide on key bytes.
const (
	// CycleHistory holds one entry per tracked PoS cycle.
	// key - cycle (8-byte big-endian) + subkey (see subkey consts below)
	CycleHistory = "cycle_history"

	// DeferredCredits holds future payouts keyed by target slot and address.
	// key - slot (period varint + thread byte) + address (21 bytes)
	// value - varint amount
	DeferredCredits = "deferred_credits"

	// Ledger is opaque to the core: balances, bytecode, datastore entries.
	Ledger = "ledger"

	// AsyncPool is opaque to the core: the queue of pending async calls.
	AsyncPool = "async_pool"

	// ExecutedOps is opaque to the core: dedup window of seen operation ids.
	ExecutedOps = "executed_ops"

	// ExecutedDenunciations is opaque to the core: dedup window of seen
	// denunciations.
	ExecutedDenunciations = "executed_denunciations"

	// MIPStore holds one entry per tracked improvement proposal.
	MIPStore = "mip_store"

	// Meta holds the store's own bookkeeping: change-id, composed hash.
	Meta = "meta"
)

// ColumnFamilies lists every bucket that must exist in a fresh store.
// IsDBValid checks all of them except Meta.
var ColumnFamilies = []string{
	CycleHistory,
	DeferredCredits,
	Ledger,
	AsyncPool,
	ExecutedOps,
	ExecutedDenunciations,
	MIPStore,
	Meta,
}

// Subkeys within a cycle_history/<cycle> entry.
const (
	CycleSubkeyComplete  = byte(0)
	CycleSubkeyRNGSeed   = byte(1)
	CycleSubkeySnapshot  = byte(2)
	CycleSubkeyRollCount = byte(3)
	CycleSubkeyProdStats = byte(4)
)

// Production-stats sub-subkeys, appended after CycleSubkeyProdStats+address.
const (
	ProdStatsFailure = byte(0)
	ProdStatsSuccess = byte(1)
)

// Meta keys.
const (
	MetaKeyChangeID           = "change_id"
	MetaKeyHash               = "composed_hash"
	MetaKeyExecutionTrailHash = "execution_trail_hash"
)

// CycleKey builds the cycle_history/<cycle> key prefix.
func CycleKey(cycle uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, cycle)
	return buf
}

// CycleSubkey builds a cycle_history/<cycle>/<subkey> key.
func CycleSubkey(cycle uint64, subkey byte) []byte {
	return append(CycleKey(cycle), subkey)
}

// CycleRollKey builds a cycle_history/<cycle>/3/<addr> key.
func CycleRollKey(cycle uint64, addr []byte) []byte {
	k := CycleSubkey(cycle, CycleSubkeyRollCount)
	return append(k, addr...)
}

// CycleProdStatsKey builds a cycle_history/<cycle>/4/<addr>/<failOrSuccess> key.
func CycleProdStatsKey(cycle uint64, addr []byte, failOrSuccess byte) []byte {
	k := CycleSubkey(cycle, CycleSubkeyProdStats)
	k = append(k, addr...)
	return append(k, failOrSuccess)
}

// SlotKey builds the <period-varint><thread-byte> key component shared by
// deferred_credits.
func SlotKey(period uint64, thread uint8) []byte {
	buf := make([]byte, binary.MaxVarintLen64+1)
	n := binary.PutUvarint(buf, period)
	buf[n] = thread
	return buf[:n+1]
}

// DeferredCreditKey builds a deferred_credits/<slot><addr> key.
func DeferredCreditKey(period uint64, thread uint8, addr []byte) []byte {
	return append(SlotKey(period, thread), addr...)
}
