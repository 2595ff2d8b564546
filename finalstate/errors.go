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

package finalstate

import "errors"

// ErrInvalidSlot is returned by Finalize when the given slot is not the
// immediate successor of the current change-id.
var ErrInvalidSlot = errors.New("finalstate: slot is not the change-id's successor")

// ErrSnapshot is returned by the snapshot-restart path — NewDerivedFromSnapshot
// and InterpolateDowntime — when the persisted state cannot be safely resumed.
var ErrSnapshot = errors.New("finalstate: snapshot restart failed")
