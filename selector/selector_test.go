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

package selector_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelproof/node/address"
	"github.com/parallelproof/node/consensus/timeslot"
	"github.com/parallelproof/node/rollset"
	"github.com/parallelproof/node/selector"
	"github.com/parallelproof/node/xhash"
)

func addr(b byte) address.Address {
	var a address.Address
	a[0] = b
	return a
}

func TestFeedAndDrawIsDeterministic(t *testing.T) {
	grid, err := timeslot.NewGrid(2, 2000, 10000, 3)
	require.NoError(t, err)

	rolls := rollset.New()
	rolls.Set(addr(1), 3)
	rolls.Set(addr(2), 7)
	seed := xhash.H([]byte("seed"))

	s1, err := selector.New(grid, 2, 8)
	require.NoError(t, err)
	defer s1.Close()
	require.NoError(t, s1.FeedCycle(0, rolls.Clone(), seed))
	require.NoError(t, s1.WaitForDraws(0))

	s2, err := selector.New(grid, 2, 8)
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.FeedCycle(0, rolls.Clone(), seed))
	require.NoError(t, s2.WaitForDraws(0))

	first, err := grid.FirstOfCycle(0)
	require.NoError(t, err)

	sel1, err := s1.GetSelection(first)
	require.NoError(t, err)
	sel2, err := s2.GetSelection(first)
	require.NoError(t, err)
	require.Equal(t, sel1, sel2)
	require.Len(t, sel1.Endorsers, 2)
}

func TestGetSelectionBeforeFeedErrors(t *testing.T) {
	grid, err := timeslot.NewGrid(2, 2000, 10000, 3)
	require.NoError(t, err)

	s, err := selector.New(grid, 2, 8)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetSelection(timeslot.Slot{Period: 0, Thread: 0})
	require.Error(t, err)
}

func TestFeedCycleIsIdempotent(t *testing.T) {
	grid, err := timeslot.NewGrid(2, 2000, 10000, 3)
	require.NoError(t, err)

	rolls := rollset.New()
	rolls.Set(addr(1), 1)

	s, err := selector.New(grid, 1, 8)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.FeedCycle(0, rolls.Clone(), xhash.H([]byte("a"))))
	require.NoError(t, s.FeedCycle(0, rolls.Clone(), xhash.H([]byte("b"))))
	require.NoError(t, s.WaitForDraws(0))
}
