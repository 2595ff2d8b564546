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
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore() *Store {
	return NewStore([]Info{{
		Name:             "hash-kind-v2",
		Component:        FinalStateHashKindComponent,
		ComponentVersion: 1,
		StartTimestamp:   1000,
		TimeoutTimestamp: 5000,
		ActivationDelay:  500,
	}})
}

func TestMIPLifecycle(t *testing.T) {
	s := testStore()

	require.Equal(t, uint32(0), s.LatestComponentVersionAt(FinalStateHashKindComponent, 500))

	s.Advance(500, map[string]bool{})
	require.Equal(t, Defined, s.mips[0].State())

	s.Advance(1000, map[string]bool{})
	require.Equal(t, Started, s.mips[0].State())

	s.Advance(2000, map[string]bool{"hash-kind-v2": true})
	require.Equal(t, LockedIn, s.mips[0].State())

	require.Equal(t, uint32(0), s.LatestComponentVersionAt(FinalStateHashKindComponent, 2499))
	require.Equal(t, uint32(1), s.LatestComponentVersionAt(FinalStateHashKindComponent, 2500))
}

func TestMIPTimesOutWithoutThreshold(t *testing.T) {
	s := testStore()
	s.Advance(1000, nil)
	s.Advance(5000, nil)
	require.Equal(t, Failed, s.mips[0].State())
	require.Equal(t, uint32(0), s.LatestComponentVersionAt(FinalStateHashKindComponent, 10_000))
}

func TestIsCoherentWithShutdownPeriod(t *testing.T) {
	s := testStore()
	s.Advance(1000, nil)
	s.Advance(3000, map[string]bool{"hash-kind-v2": true})

	require.True(t, s.IsCoherentWithShutdownPeriod(0, 2000))
	require.False(t, s.IsCoherentWithShutdownPeriod(2000, 4000))
	require.True(t, s.IsCoherentWithShutdownPeriod(3000, 4000))
}
