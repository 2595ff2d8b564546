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
	"errors"
	"fmt"
)

// ErrCycleUnavailable reports a draw lookback or query against a cycle that
// has slid out of the tracked history window.
type ErrCycleUnavailable struct{ Cycle uint64 }

func (e *ErrCycleUnavailable) Error() string {
	return fmt.Sprintf("pos: cycle %d not available in history", e.Cycle)
}

// ErrCycleUnfinished reports a draw lookback against a cycle that is still
// in history but has not yet been marked complete.
type ErrCycleUnfinished struct{ Cycle uint64 }

func (e *ErrCycleUnfinished) Error() string {
	return fmt.Sprintf("pos: cycle %d is not yet complete", e.Cycle)
}

// ErrOverflow is the fatal error raised when a finalize call's slot is
// inconsistent with the back of cycle history, or when cycle/draw arithmetic
// overflows.
var ErrOverflow = errors.New("pos: cycle history overflow")
