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

package versioning

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/parallelproof/node/kv"
)

// FinalStateHashKindComponent is the one component the core itself
// consumes: it selects between the order-sensitive Merkle/LSM commitment
// scheme (version 0, the pre-activation default) and the commutative XOR
// scheme (version 1, active once the MIP has locked in and its activation
// delay has elapsed).
const FinalStateHashKindComponent = "FinalStateHashKind"

// Store tracks a fixed, ordered table of MIPs and answers component-version
// queries keyed on slot timestamps.
type Store struct {
	mips []*MIP
}

// NewStore returns a Store tracking the given MIP table, in the order given
// (the order determines iteration order on persistence, not precedence).
func NewStore(infos []Info) *Store {
	s := &Store{}
	for _, info := range infos {
		s.mips = append(s.mips, NewMIP(info))
	}
	return s
}

// Advance replays one (ts, component->thresholdMet) observation across
// every tracked MIP. Called once per finalized slot, using that slot's
// final timestamp, never wall-clock time.
func (s *Store) Advance(ts uint64, thresholdMet map[string]bool) {
	for _, m := range s.mips {
		m.Advance(ts, thresholdMet[m.Info.Name])
	}
}

// LatestComponentVersionAt returns the highest ComponentVersion among MIPs
// of component that are Active at ts, or 0 if none are.
func (s *Store) LatestComponentVersionAt(component string, ts uint64) uint32 {
	var best uint32
	for _, m := range s.mips {
		if m.Info.Component != component {
			continue
		}
		if v, ok := m.ActiveVersionAt(ts); ok && v > best {
			best = v
		}
	}
	return best
}

// IsCoherentWithShutdownPeriod reports whether no tracked MIP locked in
// strictly inside (start, end): a lock-in inside the downtime window means
// the snapshot's pre-downtime view and the post-restart view could
// legitimately disagree about that MIP's activation, which interpolation
// cannot safely paper over without replaying the actual finalizes that
// happened during the outage.
func (s *Store) IsCoherentWithShutdownPeriod(start, end uint64) bool {
	for _, m := range s.mips {
		lockedInAt, ok := m.LockedInAt()
		if !ok {
			continue
		}
		if lockedInAt > start && lockedInAt < end {
			return false
		}
	}
	return true
}

// MIPs returns the tracked MIPs in table order.
func (s *Store) MIPs() []*MIP { return s.mips }

// Persist writes every MIP's current state into b under mip_store/<name>.
func (s *Store) Persist(b *kv.WriteBatch) {
	for _, m := range s.mips {
		b.Put(kv.MIPStore, []byte(m.Info.Name), encodeMIP(m))
	}
}

// Rehydrate loads MIP state from the store, overwriting in-memory state for
// any MIP present on disk. Must be called before any finalize is accepted.
func (s *Store) Rehydrate(tx kv.Tx) error {
	for _, m := range s.mips {
		v, err := tx.Get(kv.MIPStore, []byte(m.Info.Name))
		if err != nil {
			return fmt.Errorf("versioning: rehydrate %s: %w", m.Info.Name, err)
		}
		if v == nil {
			continue
		}
		if err := decodeMIPInto(m, v); err != nil {
			return fmt.Errorf("versioning: decode %s: %w", m.Info.Name, err)
		}
	}
	return nil
}

func encodeMIP(m *MIP) []byte {
	buf := make([]byte, 0, 32)
	var tmp [8]byte

	buf = append(buf, byte(m.state))

	flags := byte(0)
	if m.hasStarted {
		flags |= 1
	}
	if m.hasLockIn {
		flags |= 2
	}
	buf = append(buf, flags)

	binary.BigEndian.PutUint64(tmp[:], m.startedAt)
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint64(tmp[:], m.lockedInAt)
	buf = append(buf, tmp[:]...)
	return buf
}

func decodeMIPInto(m *MIP, data []byte) error {
	if len(data) != 18 {
		return fmt.Errorf("malformed MIP encoding (%d bytes)", len(data))
	}
	m.state = State(data[0])
	flags := data[1]
	m.hasStarted = flags&1 != 0
	m.hasLockIn = flags&2 != 0
	m.startedAt = binary.BigEndian.Uint64(data[2:10])
	m.lockedInAt = binary.BigEndian.Uint64(data[10:18])
	return nil
}

// sortedNames is a test/debug helper returning tracked MIP names in
// persisted-key order.
func (s *Store) sortedNames() []string {
	names := make([]string, 0, len(s.mips))
	for _, m := range s.mips {
		names = append(names, m.Info.Name)
	}
	sort.Strings(names)
	return names
}
