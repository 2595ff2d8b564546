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

// Package xhash is the single definition of H(...), the deterministic hash
// used for the composed final-state commitment, the selector seed mix, and
// the initial seed bootstrap pair. Every caller goes through here so the
// hash scheme can only change in one place.
package xhash

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Size is the length in bytes of a Hash.
const Size = 32

// Hash is the 32-byte digest produced by H.
type Hash [Size]byte

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// H hashes the concatenation of parts with Keccak-256.
func H(parts ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		d.Write(p)
	}
	var out Hash
	d.Sum(out[:0])
	return out
}

// Varint encodes x as a little-endian varint, the form used to mix cycle
// numbers into H(...) inputs (spec: H(varint(draw_cycle-2) ∥ seed ∥ hash)).
func Varint(x uint64) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, x)
	return buf[:n]
}

// XOR folds a per-key differential H(k ∥ v) into an accumulator. Used by the
// commutative, order-independent commitment scheme.
func XOR(acc Hash, key, value []byte) Hash {
	diff := H(key, value)
	var out Hash
	for i := range out {
		out[i] = acc[i] ^ diff[i]
	}
	return out
}
