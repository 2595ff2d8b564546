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

// Package versioning tracks a small set of improvement proposals (MIPs),
// each a state machine over time, and answers
// latest_component_version_at(component, ts) for behavior switches gated on
// a proposal's activation rather than on wall-clock time.
package versioning

import xmath "github.com/parallelproof/node/common/math"

// State is a MIP's position in its lifecycle.
type State int

const (
	Defined State = iota
	Started
	LockedIn
	Active
	Failed
)

func (s State) String() string {
	switch s {
	case Defined:
		return "defined"
	case Started:
		return "started"
	case LockedIn:
		return "locked_in"
	case Active:
		return "active"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Info is a MIP's immutable configuration.
type Info struct {
	Name             string
	Component        string
	ComponentVersion uint32
	StartTimestamp   uint64
	TimeoutTimestamp uint64
	ActivationDelay  uint64
}

// MIP is one improvement proposal's state machine. Progress is driven only
// by (timestamp, threshold-met) pairs derived from finalized slots' final
// timestamps, so that every node in the network reaches the same state
// deterministically regardless of when it happens to observe them.
type MIP struct {
	Info Info

	state      State
	startedAt  uint64
	hasStarted bool
	lockedInAt uint64
	hasLockIn  bool
}

// NewMIP returns a MIP in its Defined state.
func NewMIP(info Info) *MIP {
	return &MIP{Info: info, state: Defined}
}

// State returns the MIP's current state.
func (m *MIP) State() State { return m.state }

// LockedInAt returns the timestamp the MIP entered LockedIn, if it has.
func (m *MIP) LockedInAt() (uint64, bool) { return m.lockedInAt, m.hasLockIn }

// Advance replays one (ts, thresholdMet) observation against the MIP's state
// machine. ts must be non-decreasing across calls for a given MIP.
func (m *MIP) Advance(ts uint64, thresholdMet bool) {
	switch m.state {
	case Defined:
		if ts >= m.Info.StartTimestamp {
			m.state = Started
			m.startedAt = ts
			m.hasStarted = true
		}
	case Started:
		if thresholdMet {
			m.state = LockedIn
			m.lockedInAt = ts
			m.hasLockIn = true
			return
		}
		if ts >= m.Info.TimeoutTimestamp {
			m.state = Failed
		}
	case LockedIn:
		due, ok := xmath.SafeAdd(m.lockedInAt, m.Info.ActivationDelay)
		if ok && ts >= due {
			m.state = Active
		}
	}
}

// ActiveVersionAt returns (ComponentVersion, true) if the MIP is active at
// ts — i.e. it locked in and ts is past its activation delay — else
// (0, false). This does not mutate the MIP; it is a pure query used by
// latest_component_version_at, which must be safe to call for any ts, not
// just the MIP's current replay position.
func (m *MIP) ActiveVersionAt(ts uint64) (uint32, bool) {
	if !m.hasLockIn {
		return 0, false
	}
	due, ok := xmath.SafeAdd(m.lockedInAt, m.Info.ActivationDelay)
	if !ok || ts < due {
		return 0, false
	}
	return m.Info.ComponentVersion, true
}
