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

import "errors"

// ErrTimeOverflow is returned when slot-to-timestamp arithmetic overflows.
var ErrTimeOverflow = errors.New("timeslot: timestamp arithmetic overflow")

// ErrSlotOverflow is returned when advancing a slot would overflow the period.
var ErrSlotOverflow = errors.New("timeslot: slot period overflow")

// ErrThreadOverflow is returned when a thread_count/stride precondition is violated.
var ErrThreadOverflow = errors.New("timeslot: invalid thread configuration")
