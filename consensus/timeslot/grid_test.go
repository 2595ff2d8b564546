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
	"testing"

	"github.com/stretchr/testify/require"
)

func testGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(2, 2000, 10_000, 3)
	require.NoError(t, err)
	return g
}

func TestSlotTimestamp(t *testing.T) {
	g := testGrid(t)

	cases := []struct {
		slot Slot
		want uint64
	}{
		{Slot{0, 0}, 10000},
		{Slot{0, 1}, 11000},
		{Slot{1, 0}, 12000},
		{Slot{2, 1}, 15000},
	}
	for _, c := range cases {
		got, err := g.SlotTimestamp(c.slot)
		require.NoError(t, err)
		require.Equal(t, c.want, got, "slot %v", c.slot)
	}
}

func TestNextPrevSlot(t *testing.T) {
	g := testGrid(t)

	next, err := g.NextSlot(Slot{0, 1})
	require.NoError(t, err)
	require.Equal(t, Slot{1, 0}, next)

	prev, err := g.PrevSlot(Slot{2, 0})
	require.NoError(t, err)
	require.Equal(t, Slot{1, 1}, prev)

	require.True(t, g.IsLastOfCycle(Slot{2, 1}))
	require.Equal(t, uint64(1), g.Cycle(Slot{5, 0}))
}

func TestNextSlotInverseOfPrevSlot(t *testing.T) {
	g := testGrid(t)
	for period := uint64(0); period < 20; period++ {
		for thread := uint8(0); thread < g.ThreadCount; thread++ {
			s := Slot{Period: period, Thread: thread}
			if s.Period == 0 && s.Thread == 0 {
				continue
			}
			prev, err := g.PrevSlot(s)
			require.NoError(t, err)
			next, err := g.NextSlot(prev)
			require.NoError(t, err)
			require.Equal(t, s, next)
		}
	}
}

func TestSlotTimestampMonotonic(t *testing.T) {
	g := testGrid(t)
	s := Slot{0, 0}
	prevTs, err := g.SlotTimestamp(s)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		s, err = g.NextSlot(s)
		require.NoError(t, err)
		ts, err := g.SlotTimestamp(s)
		require.NoError(t, err)
		require.Greater(t, ts, prevTs)
		require.Equal(t, g.T0/uint64(g.ThreadCount), ts-prevTs)
		prevTs = ts
	}
}

func TestLatestSlotAt(t *testing.T) {
	g := testGrid(t)

	_, ok := g.LatestSlotAt(9_999)
	require.False(t, ok)

	s, ok := g.LatestSlotAt(15_000)
	require.True(t, ok)
	require.Equal(t, Slot{2, 1}, s)
}

func TestFirstLastOfCycle(t *testing.T) {
	g := testGrid(t)

	first, err := g.FirstOfCycle(1)
	require.NoError(t, err)
	require.Equal(t, Slot{3, 0}, first)

	last, err := g.LastOfCycle(0)
	require.NoError(t, err)
	require.Equal(t, Slot{2, 1}, last)
	require.True(t, g.IsLastOfCycle(last))
	require.True(t, g.IsFirstOfCycle(Slot{0, 0}))
}

func TestInvalidGridConfig(t *testing.T) {
	_, err := NewGrid(3, 2000, 0, 3) // 2000 mod 3 != 0
	require.ErrorIs(t, err, ErrThreadOverflow)
}

func TestNextSlotPeriodOverflow(t *testing.T) {
	g := testGrid(t)
	_, err := g.NextSlot(Slot{Period: ^uint64(0), Thread: g.ThreadCount - 1})
	require.ErrorIs(t, err, ErrSlotOverflow)
}
