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

// Package timeslot maps wall-clock time to (period, thread) slots across the
// node's parallel thread lanes, and groups slots into cycles.
package timeslot

import "fmt"

// Slot identifies a single production opportunity: a period (a round shared
// by all threads) and a thread (one of the parallel block lanes).
type Slot struct {
	Period uint64
	Thread uint8
}

// Compare orders slots lexicographically on (Period, Thread), the node's
// total order over production opportunities.
func (s Slot) Compare(other Slot) int {
	switch {
	case s.Period < other.Period:
		return -1
	case s.Period > other.Period:
		return 1
	case s.Thread < other.Thread:
		return -1
	case s.Thread > other.Thread:
		return 1
	default:
		return 0
	}
}

func (s Slot) String() string {
	return fmt.Sprintf("(%d,%d)", s.Period, s.Thread)
}

// Cycle returns the cycle s belongs to, given P periods per cycle.
func (s Slot) Cycle(periodsPerCycle uint64) uint64 {
	return s.Period / periodsPerCycle
}

// IndexInCycle returns s's zero-based position among the slots_per_cycle
// slots of its cycle.
func (s Slot) IndexInCycle(periodsPerCycle uint64, threadCount uint8) uint64 {
	return (s.Period%periodsPerCycle)*uint64(threadCount) + uint64(s.Thread)
}
