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
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/bitseq"
	xmath "github.com/parallelproof/node/common/math"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/kv"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/xhash"
)

// SelectorFeeder is the capability PoSFinalState needs from the selector
// actor: feed it a cycle's draw inputs, and block until its draws are ready.
// The selector holds no back-pointer to PoSFinalState; all communication
// flows through this interface and, underneath it, message passing.
type SelectorFeeder interface {
	FeedCycle(cycle uint64, rolls *rollset.Set, seed xhash.Hash) error
	WaitForDraws(cycle uint64) error
}

// PoSFinalState owns the cycle_history and deferred_credits column
// families: complete flags, RNG seed bits, roll counts, production stats,
// and the commitment-hash snapshot taken at each cycle's completion.
type PoSFinalState struct {
	mu sync.RWMutex

	store kv.Store
	grid  *timeslot.Grid

	cycleHistoryLength uint64
	initialRolls       *rollset.Set
	initialSeedString  string
	initialLedgerHash  xhash.Hash
	selector           SelectorFeeder

	// history is the contiguous tracked window, oldest first.
	history []*CycleInfo

	// pendingSnapshotWrites holds snapshot hashes set by FeedCycleStateHash
	// that have not yet been folded into a write batch: the hash for slot s
	// is only known after s's batch has already been committed, so the
	// snapshot subkey necessarily lags by one finalize call.
	pendingSnapshotWrites map[uint64]xhash.Hash
}

// New returns a PoSFinalState backed by store, rehydrating any existing
// cycle history.
func New(store kv.Store, grid *timeslot.Grid, cycleHistoryLength uint64, initialRolls *rollset.Set, initialSeedString string, initialLedgerHash xhash.Hash, selector SelectorFeeder) (*PoSFinalState, error) {
	p := &PoSFinalState{
		store:                 store,
		grid:                  grid,
		cycleHistoryLength:    cycleHistoryLength,
		initialRolls:          initialRolls,
		initialSeedString:     initialSeedString,
		initialLedgerHash:     initialLedgerHash,
		selector:              selector,
		pendingSnapshotWrites: map[uint64]xhash.Hash{},
	}
	if err := p.rehydrate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PoSFinalState) rehydrate() error {
	cycles := map[uint64]*CycleInfo{}
	err := p.store.View(func(tx kv.Tx) error {
		return tx.ForPrefix(kv.CycleHistory, nil, func(k, v []byte) (bool, error) {
			if len(k) < 9 {
				return true, nil
			}
			cycle := binary.BigEndian.Uint64(k[:8])
			subkey := k[8]
			ci, ok := cycles[cycle]
			if !ok {
				ci = newCycleInfo(cycle, rollset.New())
				cycles[cycle] = ci
			}
			rest := k[9:]
			switch subkey {
			case kv.CycleSubkeyComplete:
				ci.Complete = len(v) > 0 && v[0] == 1
			case kv.CycleSubkeyRNGSeed:
				seq, err := bitseq.Decode(v)
				if err != nil {
					return false, fmt.Errorf("pos: rehydrate cycle %d rng seed: %w", cycle, err)
				}
				ci.RNGSeed = seq
			case kv.CycleSubkeySnapshot:
				if len(v) == 1+xhash.Size && v[0] == 1 {
					var h xhash.Hash
					copy(h[:], v[1:])
					ci.FinalStateHashSnapshot = &h
				}
			case kv.CycleSubkeyRollCount:
				addr, ok := address.FromBytes(rest)
				if !ok {
					return false, fmt.Errorf("pos: rehydrate cycle %d: malformed roll-count key", cycle)
				}
				amt, _ := binary.Uvarint(v)
				ci.RollCounts.Set(addr, amt)
			case kv.CycleSubkeyProdStats:
				if len(rest) < address.Size+1 {
					return false, fmt.Errorf("pos: rehydrate cycle %d: malformed production-stats key", cycle)
				}
				addr, ok := address.FromBytes(rest[:address.Size])
				if !ok {
					return false, fmt.Errorf("pos: rehydrate cycle %d: malformed production-stats address", cycle)
				}
				amt, _ := binary.Uvarint(v)
				stats := ci.ProductionStats[addr]
				switch rest[address.Size] {
				case kv.ProdStatsFailure:
					stats.Failure = amt
				case kv.ProdStatsSuccess:
					stats.Success = amt
				}
				ci.ProductionStats[addr] = stats
			}
			return true, nil
		})
	})
	if err != nil {
		return err
	}
	if len(cycles) == 0 {
		return nil
	}

	var min, max uint64
	first := true
	for c := range cycles {
		if first {
			min, max = c, c
			first = false
			continue
		}
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	history := make([]*CycleInfo, 0, max-min+1)
	for c := min; c <= max; c++ {
		ci, ok := cycles[c]
		if !ok {
			return fmt.Errorf("pos: rehydrate: cycle history gap at cycle %d", c)
		}
		history = append(history, ci)
	}
	p.history = history
	return nil
}

// Reset clears cycle history and deferred credits entirely, used by
// bootstrap's rollback path.
func (p *PoSFinalState) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.DeletePrefix(kv.CycleHistory, nil); err != nil {
		return err
	}
	if err := p.store.DeletePrefix(kv.DeferredCredits, nil); err != nil {
		return err
	}
	p.history = nil
	p.pendingSnapshotWrites = map[uint64]xhash.Hash{}
	return nil
}

// cycleAt returns the tracked cycle c, or ErrCycleUnavailable if it has
// slid out of the history window (or none has been created yet). Callers
// must hold at least a read lock.
func (p *PoSFinalState) cycleAt(c uint64) (*CycleInfo, error) {
	if len(p.history) == 0 {
		return nil, &ErrCycleUnavailable{Cycle: c}
	}
	front := p.history[0].Cycle
	back := p.history[len(p.history)-1].Cycle
	if c < front || c > back {
		return nil, &ErrCycleUnavailable{Cycle: c}
	}
	return p.history[c-front], nil
}

// ApplyChangesToBatch applies one slot's PoS changes into batch, per the
// fixed cycle-lifecycle protocol: extend or roll the current cycle, append
// seed bits, write roll/production-stats/deferred-credit deltas, and — if
// this slot completes the cycle — feed the selector for cycle+2.
func (p *PoSFinalState) ApplyChangesToBatch(changes *Changes, slot timeslot.Slot, feedSelector bool, batch *kv.WriteBatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.grid.Cycle(slot)

	switch {
	case len(p.history) == 0:
		p.history = append(p.history, newCycleInfo(c, p.initialRolls.Clone()))
	default:
		back := p.history[len(p.history)-1]
		switch {
		case back.Cycle == c && !back.Complete:
			// extending the current, still-open cycle
		case back.Cycle+1 == c && back.Complete:
			p.history = append(p.history, newCycleInfo(c, back.RollCounts.Clone()))
			if uint64(len(p.history)) > p.cycleHistoryLength {
				p.history = p.history[uint64(len(p.history))-p.cycleHistoryLength:]
			}
		default:
			return fmt.Errorf("pos: %w: slot %s cycle %d inconsistent with history back %d (complete=%v)",
				ErrOverflow, slot, c, back.Cycle, back.Complete)
		}
	}

	p.flushPendingSnapshots(batch)

	cur := p.history[len(p.history)-1]
	cur.Complete = p.grid.IsLastOfCycle(slot)
	completeByte := byte(0)
	if cur.Complete {
		completeByte = 1
	}
	batch.Put(kv.CycleHistory, kv.CycleSubkey(c, kv.CycleSubkeyComplete), []byte{completeByte})

	cur.RNGSeed.AppendBits(changes.SeedBits)
	batch.Put(kv.CycleHistory, kv.CycleSubkey(c, kv.CycleSubkeyRNGSeed), cur.RNGSeed.Encode())

	for addr, rolls := range changes.RollChanges {
		cur.RollCounts.Set(addr, rolls)
		key := kv.CycleRollKey(c, addr.Bytes())
		if rolls == 0 {
			batch.Delete(kv.CycleHistory, key)
		} else {
			batch.Put(kv.CycleHistory, key, xhash.Varint(rolls))
		}
	}

	for addr, stats := range changes.ProductionStats {
		cur.ProductionStats[addr] = stats
		batch.Put(kv.CycleHistory, kv.CycleProdStatsKey(c, addr.Bytes(), kv.ProdStatsFailure), xhash.Varint(stats.Failure))
		batch.Put(kv.CycleHistory, kv.CycleProdStatsKey(c, addr.Bytes(), kv.ProdStatsSuccess), xhash.Varint(stats.Success))
	}

	// Zero amounts are deleted as they are written rather than swept in a
	// second pass over the whole deferred_credits prefix: invariant 5 still
	// holds since every writer of this table goes through here.
	for s, perAddr := range changes.DeferredCredits {
		for addr, amount := range perAddr {
			key := kv.DeferredCreditKey(s.Period, s.Thread, addr.Bytes())
			if amount == 0 {
				batch.Delete(kv.DeferredCredits, key)
			} else {
				batch.Put(kv.DeferredCredits, key, xhash.Varint(amount))
			}
		}
	}

	if cur.Complete {
		if cur.RNGSeed.Len() != p.grid.SlotsPerCycle() {
			return fmt.Errorf("pos: %w: cycle %d rng seed length %d at completion, want %d",
				ErrOverflow, c, cur.RNGSeed.Len(), p.grid.SlotsPerCycle())
		}
		if feedSelector {
			drawCycle, ok := xmath.SafeAdd(c, 2)
			if !ok {
				return fmt.Errorf("pos: %w: draw cycle overflow past cycle %d", ErrOverflow, c)
			}
			if err := p.feedSelectorLocked(drawCycle); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *PoSFinalState) flushPendingSnapshots(batch *kv.WriteBatch) {
	for cyc, h := range p.pendingSnapshotWrites {
		if _, err := p.cycleAt(cyc); err != nil {
			delete(p.pendingSnapshotWrites, cyc)
			continue
		}
		batch.Put(kv.CycleHistory, kv.CycleSubkey(cyc, kv.CycleSubkeySnapshot), encodeSnapshot(h))
		delete(p.pendingSnapshotWrites, cyc)
	}
}

func encodeSnapshot(h xhash.Hash) []byte {
	buf := make([]byte, 1+xhash.Size)
	buf[0] = 1
	copy(buf[1:], h[:])
	return buf
}

// FeedCycleStateHash sets cycle's live commitment-hash snapshot. FinalState
// calls this after every commit, for the slot's own cycle, so the snapshot
// is always current by the time the cycle completes. The KV write for the
// snapshot subkey is folded into the next batch this package assembles.
func (p *PoSFinalState) FeedCycleStateHash(cycle uint64, hash xhash.Hash) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ci, err := p.cycleAt(cycle)
	if err != nil {
		return err
	}
	h := hash
	ci.FinalStateHashSnapshot = &h
	p.pendingSnapshotWrites[cycle] = h
	return nil
}

// FeedSelector feeds the selector the draw inputs for drawCycle: roll
// counts from drawCycle-3 and an RNG seed mixed from drawCycle-2's seed and
// drawCycle-3's snapshot hash, falling back to the configured initial rolls
// and seed pair for the bootstrap cycles.
func (p *PoSFinalState) FeedSelector(drawCycle uint64) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.feedSelectorLocked(drawCycle)
}

func (p *PoSFinalState) feedSelectorLocked(drawCycle uint64) error {
	var rolls *rollset.Set
	var stateHash xhash.Hash
	if drawCycle < 3 {
		rolls = p.initialRolls
		stateHash = p.initialLedgerHash
	} else {
		rollCycle := drawCycle - 3
		ci, err := p.cycleAt(rollCycle)
		if err != nil {
			return err
		}
		if !ci.Complete || ci.FinalStateHashSnapshot == nil {
			return &ErrCycleUnfinished{Cycle: rollCycle}
		}
		rolls = ci.RollCounts
		stateHash = *ci.FinalStateHashSnapshot
	}

	var seed xhash.Hash
	if drawCycle < 2 {
		seeds := p.bootstrapSeeds()
		seed = seeds[drawCycle]
	} else {
		seedCycle := drawCycle - 2
		ci, err := p.cycleAt(seedCycle)
		if err != nil {
			return err
		}
		if !ci.Complete {
			return &ErrCycleUnfinished{Cycle: seedCycle}
		}
		seed = xhash.H(xhash.Varint(seedCycle), ci.RNGSeed.Bytes(), stateHash[:])
	}

	return p.selector.FeedCycle(drawCycle, rolls.Clone(), seed)
}

// bootstrapSeeds returns the deterministic two-element seed pair used for
// draw cycles 0 and 1, built as [H(seed), seed] where seed = H(initial seed
// string).
func (p *PoSFinalState) bootstrapSeeds() [2]xhash.Hash {
	seed := xhash.H([]byte(p.initialSeedString))
	return [2]xhash.Hash{xhash.H(seed[:]), seed}
}

// ComputeInitialDraws feeds the selector for the bootstrap cycles 0 and 1
// (when history starts there) and for cycle+2 of every complete cycle
// already in history, then blocks until the highest of those draws is
// ready.
func (p *PoSFinalState) ComputeInitialDraws() error {
	p.mu.RLock()
	var toFeed []uint64
	if len(p.history) > 0 && p.history[0].Cycle == 0 {
		toFeed = append(toFeed, 0, 1)
	}
	for _, ci := range p.history {
		if ci.Complete {
			if dc, ok := xmath.SafeAdd(ci.Cycle, 2); ok {
				toFeed = append(toFeed, dc)
			}
		}
	}
	p.mu.RUnlock()

	seen := map[uint64]bool{}
	var maxCycle uint64
	any := false
	for _, dc := range toFeed {
		if seen[dc] {
			continue
		}
		seen[dc] = true
		if err := p.FeedSelector(dc); err != nil {
			return err
		}
		if !any || dc > maxCycle {
			maxCycle = dc
			any = true
		}
	}
	if !any {
		return nil
	}
	return p.selector.WaitForDraws(maxCycle)
}
