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

// Package address defines the canonical, ledger-opaque address form the
// core uses as a map/KV key component. The datastore layout behind an
// address is out of the core's scope; only its wire shape is fixed here.
package address

import "encoding/hex"

// Size is the byte length of an Address: a 1-byte version prefix plus a
// 20-byte payload.
const Size = 21

// Address is the canonical, prefixed form used throughout the core.
type Address [Size]byte

// Bytes returns addr's canonical byte form.
func (a Address) Bytes() []byte { return a[:] }

// String renders addr as a hex string prefixed with its version byte.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// FromBytes copies b into an Address, reporting false if the length is wrong.
func FromBytes(b []byte) (Address, bool) {
	var a Address
	if len(b) != Size {
		return a, false
	}
	copy(a[:], b)
	return a, true
}

// Less orders addresses lexicographically by their canonical bytes, the
// order roll_counts and the BTree-backed rollset use.
func Less(a, b Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
