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

package timeslot

import (
	"fmt"

	xmath "github.com/parallelproof/node/common/math"
)

// Grid converts between wall-clock timestamps (milliseconds since the Unix
// epoch) and (period, thread) slots. All arithmetic is checked; overflow
// surfaces as an error rather than wrapping or clamping silently.
type Grid struct {
	ThreadCount    uint8
	T0             uint64 // period duration in ms
	GenesisTimestamp uint64
	PeriodsPerCycle uint64
}

// NewGrid validates the grid's timing preconditions: thread_count >= 1,
// t0 >= 1, and t0 mod thread_count == 0 (the sub-thread stride is integral).
func NewGrid(threadCount uint8, t0, genesisTimestamp, periodsPerCycle uint64) (*Grid, error) {
	if threadCount < 1 {
		return nil, fmt.Errorf("timeslot: %w: thread_count must be >= 1", ErrThreadOverflow)
	}
	if t0 < 1 {
		return nil, fmt.Errorf("timeslot: %w: t0 must be >= 1", ErrThreadOverflow)
	}
	if t0%uint64(threadCount) != 0 {
		return nil, fmt.Errorf("timeslot: %w: t0 (%d) mod thread_count (%d) != 0", ErrThreadOverflow, t0, threadCount)
	}
	if periodsPerCycle < 1 {
		return nil, fmt.Errorf("timeslot: %w: periods_per_cycle must be >= 1", ErrThreadOverflow)
	}
	return &Grid{
		ThreadCount:      threadCount,
		T0:               t0,
		GenesisTimestamp: genesisTimestamp,
		PeriodsPerCycle:  periodsPerCycle,
	}, nil
}

func (g *Grid) subThreadStride() uint64 {
	return g.T0 / uint64(g.ThreadCount)
}

// SlotTimestamp computes genesis_ts + (t0/T)*thread + t0*period, checked.
func (g *Grid) SlotTimestamp(s Slot) (uint64, error) {
	stride := g.subThreadStride()

	threadOffset, ok := xmath.SafeMul(stride, uint64(s.Thread))
	if !ok {
		return 0, fmt.Errorf("timeslot: thread offset: %w", ErrTimeOverflow)
	}
	periodOffset, ok := xmath.SafeMul(g.T0, s.Period)
	if !ok {
		return 0, fmt.Errorf("timeslot: period offset: %w", ErrTimeOverflow)
	}
	sum, ok := xmath.SafeAdd(threadOffset, periodOffset)
	if !ok {
		return 0, fmt.Errorf("timeslot: offset sum: %w", ErrTimeOverflow)
	}
	ts, ok := xmath.SafeAdd(g.GenesisTimestamp, sum)
	if !ok {
		return 0, fmt.Errorf("timeslot: genesis + offset: %w", ErrTimeOverflow)
	}
	return ts, nil
}

// LatestSlotAt returns the latest slot whose timestamp is <= now, and false
// if now predates genesis.
func (g *Grid) LatestSlotAt(now uint64) (Slot, bool) {
	if now < g.GenesisTimestamp {
		return Slot{}, false
	}
	elapsed := now - g.GenesisTimestamp
	period := elapsed / g.T0
	stride := g.subThreadStride()
	thread := (elapsed % g.T0) / stride
	return Slot{Period: period, Thread: uint8(thread)}, true
}

// NextSlot advances s by one, wrapping the thread and incrementing the
// period when s is the last thread of its period.
func (g *Grid) NextSlot(s Slot) (Slot, error) {
	if s.Thread == g.ThreadCount-1 {
		nextPeriod, ok := xmath.SafeAdd(s.Period, 1)
		if !ok {
			return Slot{}, ErrSlotOverflow
		}
		return Slot{Period: nextPeriod, Thread: 0}, nil
	}
	return Slot{Period: s.Period, Thread: s.Thread + 1}, nil
}

// PrevSlot retreats s by one, wrapping the thread and decrementing the
// period when s is the first thread of its period.
func (g *Grid) PrevSlot(s Slot) (Slot, error) {
	if s.Thread == 0 {
		if s.Period == 0 {
			return Slot{}, ErrSlotOverflow
		}
		return Slot{Period: s.Period - 1, Thread: g.ThreadCount - 1}, nil
	}
	return Slot{Period: s.Period, Thread: s.Thread - 1}, nil
}

// IsFirstOfCycle reports whether s is the first slot of its cycle.
func (g *Grid) IsFirstOfCycle(s Slot) bool {
	return s.Period%g.PeriodsPerCycle == 0 && s.Thread == 0
}

// IsLastOfCycle reports whether s is the last slot of its cycle.
func (g *Grid) IsLastOfCycle(s Slot) bool {
	return s.Period%g.PeriodsPerCycle == g.PeriodsPerCycle-1 && s.Thread == g.ThreadCount-1
}

// Cycle returns the cycle containing s.
func (g *Grid) Cycle(s Slot) uint64 {
	return s.Cycle(g.PeriodsPerCycle)
}

// FirstOfCycle returns the first slot of cycle c, in closed form.
func (g *Grid) FirstOfCycle(c uint64) (Slot, error) {
	period, ok := xmath.SafeMul(c, g.PeriodsPerCycle)
	if !ok {
		return Slot{}, ErrSlotOverflow
	}
	return Slot{Period: period, Thread: 0}, nil
}

// LastOfCycle returns the last slot of cycle c, in closed form.
func (g *Grid) LastOfCycle(c uint64) (Slot, error) {
	firstPeriod, ok := xmath.SafeMul(c, g.PeriodsPerCycle)
	if !ok {
		return Slot{}, ErrSlotOverflow
	}
	lastPeriod, ok := xmath.SafeAdd(firstPeriod, g.PeriodsPerCycle-1)
	if !ok {
		return Slot{}, ErrSlotOverflow
	}
	return Slot{Period: lastPeriod, Thread: g.ThreadCount - 1}, nil
}

// SlotsPerCycle returns periods_per_cycle * thread_count.
func (g *Grid) SlotsPerCycle() uint64 {
	return g.PeriodsPerCycle * uint64(g.ThreadCount)
}
